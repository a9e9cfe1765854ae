// Package condition classifies the indoor climate against the outdoor one.
package condition

import "fmt"

// Condition is the five-way environmental classification.
type Condition uint8

const (
	Unknown Condition = iota
	TooHot
	TooCold
	Dry
	Damp

	count
)

// labels are five columns wide to fit the status corner of the display.
var labels = [count]string{
	Unknown: " ????",
	TooHot:  "  HOT",
	TooCold: " COLD",
	Dry:     "  DRY",
	Damp:    "!DAMP",
}

var names = [count]string{
	Unknown: "unknown",
	TooHot:  "too_hot",
	TooCold: "too_cold",
	Dry:     "dry",
	Damp:    "damp",
}

// Valid reports whether c is one of the five conditions.
func (c Condition) Valid() bool {
	return c < count
}

// Label returns the display text for c. Out of range values render as
// Unknown.
func (c Condition) Label() string {
	if !c.Valid() {
		return labels[Unknown]
	}
	return labels[c]
}

func (c Condition) String() string {
	if !c.Valid() {
		return fmt.Sprintf("condition(%d)", uint8(c))
	}
	return names[c]
}

// All returns every condition in wire order.
func All() []Condition {
	return []Condition{Unknown, TooHot, TooCold, Dry, Damp}
}

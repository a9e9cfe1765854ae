package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/fanctl/internal/frame"
)

// Collector records telemetry snapshots.
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Recent(limit int) ([]Snapshot, error)
	Close() error
}

// Repository stores snapshots.
type Repository interface {
	Record(snapshot *Snapshot) error
	Recent(limit int) ([]Snapshot, error)
	Close() error
}

// Source tells which node produced a snapshot.
type Source string

const (
	// SourceLocal is a frame the sensor node uploaded.
	SourceLocal Source = "local"
	// SourcePeer is a frame the logger node received.
	SourcePeer Source = "peer"
)

// Snapshot is one telemetry frame with its context.
type Snapshot struct {
	Timestamp time.Time
	Source    Source
	// Valid is false when the frame failed verification and was cleared.
	Valid  bool
	Frame  frame.Frame
	Status uint8
}

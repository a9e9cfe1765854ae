package display

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/fixnum"
)

const newline = "\r\n"

// Main is the content of the default screen:
//
//	+??.? ??%* !DAMP   outdoor, condition or override minutes
//	+??.? ??%* ?????   indoor, fan RPM
type Main struct {
	TempOut, TempIn   fixnum.Temperature
	RHOut, RHIn       fixnum.Humidity
	FreshOut, FreshIn bool
	Condition         condition.Condition
	OverrideMinutes   int
	RPM               fixnum.RPM
}

// Alt is the diagnostic screen shown while the button is held:
//
//	??.??? +??.? ?.?   outdoor vapour pressure, peer temperature and voltage
//	??.??? [FF] ??.?   indoor vapour pressure, link status, supply voltage
type Alt struct {
	WVPOut, WVPIn fixnum.VaporPressure
	PeerTemp      fixnum.Temperature
	PeerVoltage   fixnum.Voltage
	Status        uint8
	Voltage       fixnum.Voltage
}

func RenderMain(w io.Writer, m Main) {
	var b strings.Builder

	b.WriteString("\r")
	reading(&b, m.TempOut, m.RHOut, m.FreshOut)
	if m.OverrideMinutes > 0 {
		mins := fixnum.FromInt[int16, fixnum.D0](int64(m.OverrideMinutes))
		b.WriteString(mins.Format(4, fixnum.FmtRight))
		b.WriteByte('m')
	} else {
		b.WriteString(m.Condition.Label())
	}
	b.WriteString(newline)

	reading(&b, m.TempIn, m.RHIn, m.FreshIn)
	b.WriteString(m.RPM.Format(5, fixnum.FmtRight))
	b.WriteString(newline)

	io.WriteString(w, b.String())
}

func reading(b *strings.Builder, t fixnum.Temperature, rh fixnum.Humidity, fresh bool) {
	b.WriteString(t.Format(5, fixnum.FmtSign|fixnum.FmtRight))
	b.WriteByte(' ')
	b.WriteString(rh.Format(2, fixnum.FmtRight))
	b.WriteByte('%')
	if fresh {
		b.WriteByte('*')
	} else {
		b.WriteByte(' ')
	}
	b.WriteByte(' ')
}

func RenderAlt(w io.Writer, a Alt) {
	var b strings.Builder

	b.WriteString("\r")
	b.WriteString(a.WVPOut.Format(6, fixnum.FmtRight))
	b.WriteByte(' ')
	b.WriteString(a.PeerTemp.Format(5, fixnum.FmtSign|fixnum.FmtRight))
	b.WriteByte(' ')
	b.WriteString(a.PeerVoltage.Format(3, fixnum.FmtRight))
	b.WriteString(newline)

	b.WriteString(a.WVPIn.Format(6, fixnum.FmtRight))
	fmt.Fprintf(&b, " [%02X] ", a.Status)
	b.WriteString(a.Voltage.Format(4, fixnum.FmtRight))
	b.WriteString(newline)

	io.WriteString(w, b.String())
}

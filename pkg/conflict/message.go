package conflict

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleetbook/pkg/sanitizer"
)

const (
	messageTimeLayout = "2006-01-02 15:04"
	fallbackLabel     = "an unnamed customer"
)

// placeholderNames are names UIs store when nobody typed one.
var placeholderNames = map[string]struct{}{
	"-":        {},
	"n/a":      {},
	"unknown":  {},
	"client":   {},
	"customer": {},
	"guest":    {},
}

// Formatter renders conflict facts as plain text. It does no date math: every
// number it prints is already on the Fact.
type Formatter struct {
	loc *time.Location
}

func NewFormatter(loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{loc: loc}
}

func (f Formatter) FormatBlock(fact Fact) string {
	return fmt.Sprintf("Conflicts with the %s reservation of %s: %s (gap %s, required buffer %s).",
		stateWord(fact.OtherConfirmed),
		DisplayLabel(fact.OtherDisplayName, fact.OtherContactEmail),
		f.edgeClause(fact),
		FormatGap(fact.GapMinutes),
		FormatBufferHours(fact.RequiredBufferMinutes),
	)
}

func (f Formatter) FormatWarning(fact Fact, siblingWindow string) string {
	return fmt.Sprintf("The %s reservation of %s (%s) is affected: %s (gap %s, required buffer %s).",
		stateWord(fact.OtherConfirmed),
		DisplayLabel(fact.OtherDisplayName, fact.OtherContactEmail),
		siblingWindow,
		f.edgeClause(fact),
		FormatGap(fact.GapMinutes),
		FormatBufferHours(fact.RequiredBufferMinutes),
	)
}

func (f Formatter) DescribeWindow(w Window) string {
	return f.clock(w.Start) + " - " + f.clock(w.End)
}

func (f Formatter) edgeClause(fact Fact) string {
	relation := "is too close to"
	if fact.GapMinutes < 0 {
		relation = "overlaps"
	}
	switch fact.Edge {
	case EdgePickup:
		return fmt.Sprintf("pickup at %s %s its return at %s",
			f.clock(fact.CandidateWindow.Start), relation, f.clock(fact.OtherWindow.End))
	case EdgeReturn:
		return fmt.Sprintf("return at %s %s its pickup at %s",
			f.clock(fact.CandidateWindow.End), relation, f.clock(fact.OtherWindow.Start))
	default:
		return fmt.Sprintf("window %s %s %s",
			f.DescribeWindow(fact.CandidateWindow), relation, f.DescribeWindow(fact.OtherWindow))
	}
}

func (f Formatter) clock(t time.Time) string {
	return t.In(f.loc).Format(messageTimeLayout)
}

func stateWord(confirmed bool) string {
	if confirmed {
		return "confirmed"
	}
	return "pending"
}

// FormatGap renders signed minutes as "-1 h 30 min", "+45 min", "+2 h" or "0 min".
func FormatGap(minutes int) string {
	if minutes == 0 {
		return "0 min"
	}
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}

	h, m := minutes/60, minutes%60
	var parts []string
	if h > 0 {
		parts = append(parts, strconv.Itoa(h)+" h")
	}
	if m > 0 {
		parts = append(parts, strconv.Itoa(m)+" min")
	}
	return sign + strings.Join(parts, " ")
}

// FormatBufferHours renders 120 as "2 h" and 90 as "1.5 h".
func FormatBufferHours(minutes int) string {
	return strconv.FormatFloat(float64(minutes)/60, 'f', -1, 64) + " h"
}

// DisplayLabel prefers a real name, then "(email)", then a generic label.
func DisplayLabel(name, email string) string {
	name = sanitizer.NormalizeName(name)
	if _, generic := placeholderNames[strings.ToLower(name)]; name != "" && !generic {
		return name
	}
	if email = sanitizer.NormalizeEmail(email); email != "" {
		return "(" + email + ")"
	}
	return fallbackLabel
}

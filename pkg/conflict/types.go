package conflict

import (
	"fmt"
	"time"
)

// parseName maps a MarshalText name back to its value.
func parseName[T interface {
	~int
	String() string
}](kind string, text []byte, values ...T) (T, error) {
	for _, v := range values {
		if v.String() == string(text) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, text)
}

type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityBlock
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityWarning:
		return "warning"
	case SeverityBlock:
		return "block"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := parseName("severity", text, SeverityNone, SeverityWarning, SeverityBlock)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Edge names the boundary of the candidate reservation that is in violation.
type Edge int

const (
	EdgePickup Edge = iota + 1
	EdgeReturn
)

func (e Edge) String() string {
	switch e {
	case EdgePickup:
		return "pickup"
	case EdgeReturn:
		return "return"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

func (e Edge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Edge) UnmarshalText(text []byte) error {
	v, err := parseName("edge", text, EdgePickup, EdgeReturn)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Pairing is the confirmation state of the candidate and the other reservation.
type Pairing int

const (
	BothConfirmed Pairing = iota + 1
	CandidateConfirmedOtherPending
	CandidatePendingOtherConfirmed
	BothPending
)

func PairingOf(candidateConfirmed, otherConfirmed bool) Pairing {
	switch {
	case candidateConfirmed && otherConfirmed:
		return BothConfirmed
	case candidateConfirmed:
		return CandidateConfirmedOtherPending
	case otherConfirmed:
		return CandidatePendingOtherConfirmed
	default:
		return BothPending
	}
}

// Severity is the policy half of conflict detection: a committed reservation
// always wins, and two committed reservations must never collide.
func (p Pairing) Severity() Severity {
	switch p {
	case BothConfirmed, CandidatePendingOtherConfirmed:
		return SeverityBlock
	case CandidateConfirmedOtherPending, BothPending:
		return SeverityWarning
	default:
		return SeverityNone
	}
}

func (p Pairing) String() string {
	switch p {
	case BothConfirmed:
		return "both_confirmed"
	case CandidateConfirmedOtherPending:
		return "candidate_confirmed_other_pending"
	case CandidatePendingOtherConfirmed:
		return "candidate_pending_other_confirmed"
	case BothPending:
		return "both_pending"
	default:
		return fmt.Sprintf("pairing(%d)", int(p))
	}
}

func (p Pairing) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pairing) UnmarshalText(text []byte) error {
	v, err := parseName("pairing", text, BothConfirmed, CandidateConfirmedOtherPending, CandidatePendingOtherConfirmed, BothPending)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Fact describes one conflict between the candidate and another reservation.
type Fact struct {
	OtherReservationID    string   `json:"other_reservation_id"`
	OtherConfirmed        bool     `json:"is_other_confirmed"`
	OtherDisplayName      string   `json:"other_display_name,omitempty"`
	OtherContactEmail     string   `json:"other_contact_email,omitempty"`
	Pairing               Pairing  `json:"pairing"`
	Severity              Severity `json:"severity"`
	Edge                  Edge     `json:"conflict_edge"`
	OverlapMinutes        int      `json:"overlap_minutes"`
	GapMinutes            int      `json:"gap_minutes"`
	RequiredBufferMinutes int      `json:"required_buffer_minutes"`
	CandidateWindow       Window   `json:"candidate_window"`
	OtherWindow           Window   `json:"other_window"`
}

type Result struct {
	CanProceed bool     `json:"can_proceed"`
	Severity   Severity `json:"severity"`
	Facts      []Fact   `json:"facts,omitempty"`
	Message    string   `json:"message,omitempty"`
}

func (r Result) Blocking() []Fact {
	return r.withSeverity(SeverityBlock)
}

func (r Result) Advisory() []Fact {
	return r.withSeverity(SeverityWarning)
}

func (r Result) withSeverity(s Severity) []Fact {
	var out []Fact
	for _, f := range r.Facts {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

type Preflight struct {
	CanConfirm bool  `json:"can_confirm"`
	Blocking   *Fact `json:"blocking_fact,omitempty"`
}

// EditAnalysis bounds the values a user may type for one calendar day.
// A nil bound is unconstrained.
type EditAnalysis struct {
	MinPickup *time.Time `json:"min_pickup_time,omitempty"`
	MaxReturn *time.Time `json:"max_return_time,omitempty"`
	Summary   *Result    `json:"summary,omitempty"`
}

func (e *EditAnalysis) tighten(f Fact, buffer time.Duration) {
	switch f.Edge {
	case EdgePickup:
		bound := f.OtherWindow.End.Add(buffer)
		if e.MinPickup == nil || bound.After(*e.MinPickup) {
			e.MinPickup = &bound
		}
	case EdgeReturn:
		bound := f.OtherWindow.Start.Add(-buffer)
		if e.MaxReturn == nil || bound.Before(*e.MaxReturn) {
			e.MaxReturn = &bound
		}
	}
}

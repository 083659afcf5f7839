package conflict

import (
	"fmt"
	"sort"
	"time"

	"fleetbook/pkg/model"
)

type Analyzer struct {
	calendar  Calendar
	formatter Formatter
}

func NewAnalyzer(loc *time.Location) *Analyzer {
	return &Analyzer{
		calendar:  NewCalendar(loc),
		formatter: NewFormatter(loc),
	}
}

func (a *Analyzer) Calendar() Calendar {
	return a.calendar
}

func (a *Analyzer) Formatter() Formatter {
	return a.formatter
}

func span(r model.Reservation) Window {
	return Window{Start: r.PickupAt, End: r.ReturnAt}
}

func validateReservation(r model.Reservation) error {
	if !r.PickupAt.Before(r.ReturnAt) {
		return fmt.Errorf("%w: reservation %q pickup %s, return %s",
			ErrInvalidInterval,
			r.ID,
			r.PickupAt.Format(time.RFC3339),
			r.ReturnAt.Format(time.RFC3339),
		)
	}
	return nil
}

// siblingsOf validates every reservation passed in and keeps the ones that
// compete with candidate for its resource.
func siblingsOf(candidate model.Reservation, all []model.Reservation) ([]model.Reservation, error) {
	if err := validateReservation(candidate); err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0, len(all))
	for _, r := range all {
		if err := validateReservation(r); err != nil {
			return nil, err
		}
		if r.ResourceID != candidate.ResourceID || r.ID == candidate.ID || r.IsCancelled() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// newFact measures a conflict that overlaps() already reported. The violated
// edge is the one whose gap is larger: that is the boundary that crossed into
// the other window or its buffer.
func newFact(cw Window, candidateConfirmed bool, other model.Reservation, ow Window, buffer time.Duration) Fact {
	gapReturn := ow.Start.Sub(cw.End)
	gapPickup := cw.Start.Sub(ow.End)

	edge, gap := EdgeReturn, SignedGapMinutes(cw.End, ow.Start)
	if gapPickup > gapReturn {
		edge, gap = EdgePickup, SignedGapMinutes(ow.End, cw.Start)
	}

	pairing := PairingOf(candidateConfirmed, other.IsConfirmed())
	return Fact{
		OtherReservationID:    other.ID,
		OtherConfirmed:        other.IsConfirmed(),
		OtherDisplayName:      other.DisplayName,
		OtherContactEmail:     other.ContactEmail,
		Pairing:               pairing,
		Severity:              pairing.Severity(),
		Edge:                  edge,
		OverlapMinutes:        overlapMinutes(cw, ow),
		GapMinutes:            gap,
		RequiredBufferMinutes: int(buffer / time.Minute),
		CandidateWindow:       cw,
		OtherWindow:           ow,
	}
}

// sortFacts orders Block before Warning, then the deepest violation first,
// then by reservation id.
func sortFacts(facts []Fact) {
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].Severity != facts[j].Severity {
			return facts[i].Severity > facts[j].Severity
		}
		if facts[i].GapMinutes != facts[j].GapMinutes {
			return facts[i].GapMinutes < facts[j].GapMinutes
		}
		return facts[i].OtherReservationID < facts[j].OtherReservationID
	})
}

func (a *Analyzer) summarize(facts []Fact) Result {
	if len(facts) == 0 {
		return Result{CanProceed: true, Severity: SeverityNone}
	}
	sortFacts(facts)

	top := facts[0]
	res := Result{
		CanProceed: top.Severity != SeverityBlock,
		Severity:   top.Severity,
		Facts:      facts,
	}
	switch top.Severity {
	case SeverityBlock:
		res.Message = a.formatter.FormatBlock(top)
	case SeverityWarning:
		res.Message = a.formatter.FormatWarning(top, a.formatter.DescribeWindow(top.OtherWindow))
	}
	return res
}

// spanFacts compares whole pickup-to-return spans.
func (a *Analyzer) spanFacts(candidate model.Reservation, candidateConfirmed bool, siblings []model.Reservation, policy BufferPolicy) []Fact {
	buffer := policy.Duration()
	cw := span(candidate)

	var facts []Fact
	for _, s := range siblings {
		sw := span(s)
		if !overlaps(cw, sw, buffer) {
			continue
		}
		facts = append(facts, newFact(cw, candidateConfirmed, s, sw, buffer))
	}
	return facts
}

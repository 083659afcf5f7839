package conflict

import (
	"time"

	"fleetbook/pkg/model"
)

// EditInput is a reservation being edited: Candidate carries the proposed
// pickup and return dates, the clocks carry the typed times.
type EditInput struct {
	Candidate   model.Reservation
	Day         time.Time
	PickupClock Clock
	ReturnClock Clock
}

// AnalyzeEdit compares the candidate's slice of Day with every sibling's slice
// of the same day. Only the worst conflict is summarized, but the pickup and
// return bounds account for every blocking sibling.
func (a *Analyzer) AnalyzeEdit(in EditInput, siblings []model.Reservation, policy BufferPolicy) (EditAnalysis, error) {
	candidate, err := a.withClocks(in)
	if err != nil {
		return EditAnalysis{}, err
	}
	others, err := siblingsOf(candidate, siblings)
	if err != nil {
		return EditAnalysis{}, err
	}

	var out EditAnalysis
	cw, ok := a.calendar.EffectiveWindowForDay(candidate, in.Day)
	if !ok {
		return out, nil
	}

	buffer := policy.Duration()
	var facts []Fact
	for _, s := range others {
		sw, ok := a.calendar.EffectiveWindowForDay(s, in.Day)
		if !ok || !overlaps(cw, sw, buffer) {
			continue
		}
		f := newFact(cw, candidate.IsConfirmed(), s, sw, buffer)
		if f.Severity == SeverityBlock {
			out.tighten(f, buffer)
		}
		facts = append(facts, f)
	}

	if len(facts) > 0 {
		summary := a.summarize(facts)
		out.Summary = &summary
	}
	return out, nil
}

// withClocks moves the candidate's pickup and return onto the typed clock
// times, keeping their calendar days.
func (a *Analyzer) withClocks(in EditInput) (model.Reservation, error) {
	if err := in.PickupClock.Validate(); err != nil {
		return model.Reservation{}, err
	}
	if err := in.ReturnClock.Validate(); err != nil {
		return model.Reservation{}, err
	}
	c := in.Candidate
	c.PickupAt = a.calendar.At(c.PickupAt, in.PickupClock)
	c.ReturnAt = a.calendar.At(c.ReturnAt, in.ReturnClock)
	return c, nil
}

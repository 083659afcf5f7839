package conflict

import (
	"fleetbook/pkg/model"
)

// AnalyzeConfirmation decides whether candidate may be marked confirmed.
// Conflicts with confirmed siblings block; conflicts with pending siblings only
// warn, since those siblings are the ones that become unconfirmable afterwards.
func (a *Analyzer) AnalyzeConfirmation(candidate model.Reservation, siblings []model.Reservation, policy BufferPolicy) (Result, error) {
	others, err := siblingsOf(candidate, siblings)
	if err != nil {
		return Result{}, err
	}
	if candidate.IsConfirmed() {
		return Result{CanProceed: true, Severity: SeverityNone}, nil
	}

	return a.summarize(a.spanFacts(candidate, false, others, policy)), nil
}

// CanPendingBeConfirmed is the message-free pre-flight form of
// AnalyzeConfirmation. Blocking is the most severe blocking conflict.
func (a *Analyzer) CanPendingBeConfirmed(candidate model.Reservation, siblings []model.Reservation, policy BufferPolicy) (Preflight, error) {
	others, err := siblingsOf(candidate, siblings)
	if err != nil {
		return Preflight{}, err
	}

	var blocking []Fact
	for _, f := range a.spanFacts(candidate, false, others, policy) {
		if f.Severity == SeverityBlock {
			blocking = append(blocking, f)
		}
	}
	if len(blocking) == 0 {
		return Preflight{CanConfirm: true}, nil
	}
	sortFacts(blocking)
	return Preflight{CanConfirm: false, Blocking: &blocking[0]}, nil
}

// AnalyzeSpan classifies whole-span conflicts using the candidate's own
// confirmation state. It backs rescheduling, where a confirmed candidate may
// be moved as well.
func (a *Analyzer) AnalyzeSpan(candidate model.Reservation, siblings []model.Reservation, policy BufferPolicy) (Result, error) {
	others, err := siblingsOf(candidate, siblings)
	if err != nil {
		return Result{}, err
	}
	return a.summarize(a.spanFacts(candidate, candidate.IsConfirmed(), others, policy)), nil
}

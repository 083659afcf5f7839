package conflict

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_JSONRoundTrip(t *testing.T) {
	window := Window{
		Start: time.Date(2025, time.January, 3, 13, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC),
	}
	want := Result{
		CanProceed: true,
		Severity:   SeverityWarning,
		Message:    "overlaps",
		Facts: []Fact{
			{OtherReservationID: "A", Pairing: BothPending, Severity: SeverityWarning, Edge: EdgeReturn, GapMinutes: -30, CandidateWindow: window, OtherWindow: window},
			{OtherReservationID: "B", OtherConfirmed: true, Pairing: CandidatePendingOtherConfirmed, Severity: SeverityBlock, Edge: EdgePickup, CandidateWindow: window, OtherWindow: window},
		},
	}

	data, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"warning"`)
	assert.Contains(t, string(data), `"conflict_edge":"pickup"`)
	assert.Contains(t, string(data), `"pairing":"candidate_pending_other_confirmed"`)

	var got Result
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Facts, 2)
	assert.Equal(t, want.Severity, got.Severity)
	for i := range want.Facts {
		assert.Equal(t, want.Facts[i].Pairing, got.Facts[i].Pairing)
		assert.Equal(t, want.Facts[i].Severity, got.Facts[i].Severity)
		assert.Equal(t, want.Facts[i].Edge, got.Facts[i].Edge)
		assert.True(t, want.Facts[i].CandidateWindow.Start.Equal(got.Facts[i].CandidateWindow.Start))
	}
}

func TestUnmarshalText(t *testing.T) {
	for _, s := range []Severity{SeverityNone, SeverityWarning, SeverityBlock} {
		var got Severity
		require.NoError(t, got.UnmarshalText([]byte(s.String())))
		assert.Equal(t, s, got)
	}
	for _, e := range []Edge{EdgePickup, EdgeReturn} {
		var got Edge
		require.NoError(t, got.UnmarshalText([]byte(e.String())))
		assert.Equal(t, e, got)
	}
	for _, p := range []Pairing{BothConfirmed, CandidateConfirmedOtherPending, CandidatePendingOtherConfirmed, BothPending} {
		var got Pairing
		require.NoError(t, got.UnmarshalText([]byte(p.String())))
		assert.Equal(t, p, got)
	}

	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
	var e Edge
	assert.Error(t, e.UnmarshalText([]byte("middle")))
	var p Pairing
	assert.Error(t, p.UnmarshalText([]byte("")))
}

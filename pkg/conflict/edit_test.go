package conflict

import (
	"testing"
	"time"

	"fleetbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editDay() time.Time {
	return time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)
}

func daySiblings(status string) []model.Reservation {
	return []model.Reservation{
		reservation("s2", status, "2025-05-12T19:00", "2025-05-12T21:00"),
		reservation("s1", status, "2025-05-12T06:00", "2025-05-12T08:00"),
	}
}

func TestAnalyzeEdit_BoundsFromBothSides(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)
	in := EditInput{
		Candidate:   reservation("c", model.StatusPending, "2025-05-12T09:00", "2025-05-12T18:00"),
		Day:         editDay(),
		PickupClock: Clock{Hour: 9},
		ReturnClock: Clock{Hour: 18},
	}

	got, err := analyzer.AnalyzeEdit(in, daySiblings(model.StatusConfirmed), BufferPolicy{Hours: 2})
	require.NoError(t, err)

	require.NotNil(t, got.MinPickup)
	require.NotNil(t, got.MaxReturn)
	assert.True(t, time.Date(2025, time.May, 12, 10, 0, 0, 0, time.UTC).Equal(*got.MinPickup))
	assert.True(t, time.Date(2025, time.May, 12, 17, 0, 0, 0, time.UTC).Equal(*got.MaxReturn))

	require.NotNil(t, got.Summary)
	assert.Equal(t, SeverityBlock, got.Summary.Severity)
	assert.False(t, got.Summary.CanProceed)
	require.Len(t, got.Summary.Facts, 2)
	assert.Equal(t, "s1", got.Summary.Facts[0].OtherReservationID)
	assert.Equal(t,
		"Conflicts with the confirmed reservation of an unnamed customer: pickup at 2025-05-12 09:00 is too close to its return at 2025-05-12 08:00 (gap +1 h, required buffer 2 h).",
		got.Summary.Message,
	)
}

func TestAnalyzeEdit_TypedClocksMoveTheCandidate(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)
	in := EditInput{
		Candidate:   reservation("c", model.StatusPending, "2025-05-12T09:00", "2025-05-12T18:00"),
		Day:         editDay(),
		PickupClock: Clock{Hour: 10},
		ReturnClock: Clock{Hour: 17},
	}

	got, err := analyzer.AnalyzeEdit(in, daySiblings(model.StatusConfirmed), BufferPolicy{Hours: 2})
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.MinPickup)
	assert.Nil(t, got.MaxReturn)
}

func TestAnalyzeEdit_MiddleDayOfLongReservation(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)
	in := EditInput{
		Candidate:   reservation("c", model.StatusPending, "2025-05-11T10:00", "2025-05-13T10:00"),
		Day:         editDay(),
		PickupClock: Clock{Hour: 10},
		ReturnClock: Clock{Hour: 10},
	}
	siblings := []model.Reservation{
		reservation("k", model.StatusConfirmed, "2025-05-12T12:00", "2025-05-12T14:00"),
	}

	got, err := analyzer.AnalyzeEdit(in, siblings, BufferPolicy{})
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, SeverityBlock, got.Summary.Severity)

	fact := got.Summary.Facts[0]
	assert.Equal(t, EdgeReturn, fact.Edge)
	assert.Equal(t, 120, fact.OverlapMinutes)
	assert.True(t, editDay().Equal(fact.CandidateWindow.Start))
	assert.True(t, editDay().AddDate(0, 0, 1).Equal(fact.CandidateWindow.End))

	require.NotNil(t, got.MaxReturn)
	assert.True(t, time.Date(2025, time.May, 12, 12, 0, 0, 0, time.UTC).Equal(*got.MaxReturn))
	assert.Nil(t, got.MinPickup)
}

func TestAnalyzeEdit_DayOutsideCandidate(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)
	in := EditInput{
		Candidate:   reservation("c", model.StatusPending, "2025-05-14T09:00", "2025-05-14T18:00"),
		Day:         editDay(),
		PickupClock: Clock{Hour: 9},
		ReturnClock: Clock{Hour: 18},
	}

	got, err := analyzer.AnalyzeEdit(in, daySiblings(model.StatusConfirmed), BufferPolicy{Hours: 2})
	require.NoError(t, err)
	assert.Equal(t, EditAnalysis{}, got)
}

func TestAnalyzeEdit_ConfirmationPairs(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)

	tests := []struct {
		name          string
		candidate     string
		siblings      string
		wantSeverity  Severity
		wantBounds    bool
		wantMessageOf string
	}{
		{
			name:          "confirmed candidate over pending siblings warns",
			candidate:     model.StatusConfirmed,
			siblings:      model.StatusPending,
			wantSeverity:  SeverityWarning,
			wantMessageOf: "The pending reservation of an unnamed customer (2025-05-12 06:00 - 2025-05-12 08:00) is affected",
		},
		{
			name:          "confirmed candidate over confirmed siblings blocks",
			candidate:     model.StatusConfirmed,
			siblings:      model.StatusConfirmed,
			wantSeverity:  SeverityBlock,
			wantBounds:    true,
			wantMessageOf: "Conflicts with the confirmed reservation of an unnamed customer",
		},
		{
			name:          "pending candidate over pending siblings warns",
			candidate:     model.StatusPending,
			siblings:      model.StatusPending,
			wantSeverity:  SeverityWarning,
			wantMessageOf: "The pending reservation of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := EditInput{
				Candidate:   reservation("c", tt.candidate, "2025-05-12T09:00", "2025-05-12T18:00"),
				Day:         editDay(),
				PickupClock: Clock{Hour: 9},
				ReturnClock: Clock{Hour: 18},
			}

			got, err := analyzer.AnalyzeEdit(in, daySiblings(tt.siblings), BufferPolicy{Hours: 2})
			require.NoError(t, err)
			require.NotNil(t, got.Summary)
			assert.Equal(t, tt.wantSeverity, got.Summary.Severity)
			assert.Contains(t, got.Summary.Message, tt.wantMessageOf)
			if tt.wantBounds {
				assert.NotNil(t, got.MinPickup)
				assert.NotNil(t, got.MaxReturn)
			} else {
				assert.Nil(t, got.MinPickup)
				assert.Nil(t, got.MaxReturn)
			}
		})
	}
}

func TestAnalyzeEdit_InvalidInput(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)
	base := EditInput{
		Candidate:   reservation("c", model.StatusPending, "2025-05-12T09:00", "2025-05-12T18:00"),
		Day:         editDay(),
		PickupClock: Clock{Hour: 9},
		ReturnClock: Clock{Hour: 18},
	}

	t.Run("clock out of range", func(t *testing.T) {
		in := base
		in.ReturnClock = Clock{Hour: 24}
		_, err := analyzer.AnalyzeEdit(in, nil, BufferPolicy{})
		assert.ErrorIs(t, err, ErrInvalidClock)
	})

	t.Run("return before pickup", func(t *testing.T) {
		in := base
		in.PickupClock = Clock{Hour: 19}
		_, err := analyzer.AnalyzeEdit(in, nil, BufferPolicy{})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestAnalyzeEdit_MidnightReturnLeavesTheDay(t *testing.T) {
	analyzer := NewAnalyzer(time.UTC)
	siblings := []model.Reservation{
		reservation("s1", model.StatusConfirmed, "2025-05-11T20:00", "2025-05-12T00:00"),
	}
	in := EditInput{
		Candidate:   reservation("c", model.StatusPending, "2025-05-12T01:00", "2025-05-12T05:00"),
		Day:         editDay(),
		PickupClock: Clock{Hour: 1},
		ReturnClock: Clock{Hour: 5},
	}

	got, err := analyzer.AnalyzeEdit(in, siblings, BufferPolicy{Hours: 2})
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.MinPickup)
	assert.Nil(t, got.MaxReturn)
}

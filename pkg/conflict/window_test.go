package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func win(startH, startM, endH, endM int) Window {
	return Window{Start: at(startH, startM), End: at(endH, endM)}
}

func TestOverlaps(t *testing.T) {
	base := win(10, 0, 12, 0)

	tests := []struct {
		name   string
		other  Window
		buffer time.Duration
		want   bool
	}{
		{name: "far before", other: win(6, 0, 7, 0), buffer: 0, want: false},
		{name: "touching before", other: win(8, 0, 10, 0), buffer: 0, want: false},
		{name: "crossing start", other: win(9, 0, 11, 0), buffer: 0, want: true},
		{name: "inside", other: win(10, 30, 11, 30), buffer: 0, want: true},
		{name: "equal", other: win(10, 0, 12, 0), buffer: 0, want: true},
		{name: "superset", other: win(9, 0, 13, 0), buffer: 0, want: true},
		{name: "crossing end", other: win(11, 0, 13, 0), buffer: 0, want: true},
		{name: "touching after", other: win(12, 0, 14, 0), buffer: 0, want: false},
		{name: "inside buffer after", other: win(13, 0, 14, 0), buffer: 2 * time.Hour, want: true},
		{name: "exactly buffer after", other: win(14, 0, 15, 0), buffer: 2 * time.Hour, want: false},
		{name: "one minute short after", other: win(13, 59, 15, 0), buffer: 2 * time.Hour, want: true},
		{name: "inside buffer before", other: win(7, 0, 9, 30), buffer: time.Hour, want: true},
		{name: "exactly buffer before", other: win(7, 0, 9, 0), buffer: time.Hour, want: false},
		{name: "direct overlap ignores buffer", other: win(11, 0, 11, 30), buffer: 5 * time.Hour, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Overlaps(base, tt.other, tt.buffer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	var windows []Window
	for start := 6; start <= 16; start++ {
		for length := 1; length <= 4; length++ {
			windows = append(windows, win(start, 0, start+length, 0))
			windows = append(windows, win(start, 30, start+length, 45))
		}
	}
	buffers := []time.Duration{0, 30 * time.Minute, time.Hour, 2 * time.Hour}

	for _, a := range windows {
		for _, b := range windows {
			for _, buffer := range buffers {
				ab, err := Overlaps(a, b, buffer)
				require.NoError(t, err)
				ba, err := Overlaps(b, a, buffer)
				require.NoError(t, err)
				if ab != ba {
					t.Fatalf("asymmetric result for %v / %v with buffer %s: %v vs %v", a, b, buffer, ab, ba)
				}
			}
		}
	}
}

func TestOverlaps_ZeroBufferIsPlainIntersection(t *testing.T) {
	base := win(10, 0, 12, 0)
	for start := 6; start <= 14; start++ {
		other := win(start, 0, start+2, 0)
		got, err := Overlaps(base, other, 0)
		require.NoError(t, err)
		want := base.Start.Before(other.End) && base.End.After(other.Start)
		assert.Equal(t, want, got, "other starting at %02d:00", start)
	}
}

func TestOverlaps_InvalidWindow(t *testing.T) {
	_, err := Overlaps(win(12, 0, 10, 0), win(10, 0, 11, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Overlaps(win(10, 0, 11, 0), win(12, 0, 10, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestSignedGapMinutes(t *testing.T) {
	assert.Equal(t, 90, SignedGapMinutes(at(10, 0), at(11, 30)))
	assert.Equal(t, 0, SignedGapMinutes(at(10, 0), at(10, 0)))
	assert.Equal(t, -45, SignedGapMinutes(at(10, 0), at(9, 15)))
}

func TestBufferPolicy(t *testing.T) {
	tests := []struct {
		hours float64
		want  int
	}{
		{hours: 0, want: 0},
		{hours: -3, want: 0},
		{hours: 2, want: 120},
		{hours: 1.5, want: 90},
		{hours: 0.25, want: 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BufferPolicy{Hours: tt.hours}.Minutes(), "hours %v", tt.hours)
	}
}

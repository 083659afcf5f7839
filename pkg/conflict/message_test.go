package conflict

import (
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestFormatGap(t *testing.T) {
	tests := map[int]string{
		0:    "0 min",
		45:   "+45 min",
		-45:  "-45 min",
		60:   "+1 h",
		-90:  "-1 h 30 min",
		120:  "+2 h",
		1505: "+25 h 5 min",
	}
	for minutes, want := range tests {
		assert.Equal(t, want, FormatGap(minutes), "minutes=%d", minutes)
	}
}

func TestFormatBufferHours(t *testing.T) {
	assert.Equal(t, "0 h", FormatBufferHours(0))
	assert.Equal(t, "2 h", FormatBufferHours(120))
	assert.Equal(t, "1.5 h", FormatBufferHours(90))
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		email string
		want  string
	}{
		{name: "real name", label: "  Ana\tLópez ", email: "ana@example.com", want: "Ana López"},
		{name: "placeholder falls back to email", label: "Guest", email: " Ana@Example.com ", want: "(ana@example.com)"},
		{name: "empty name falls back to email", label: "", email: "ana@example.com", want: "(ana@example.com)"},
		{name: "nothing usable", label: "n/a", email: "", want: "an unnamed customer"},
		{name: "short real name is kept", label: "Na", email: "na@example.com", want: "Na"},
		{name: "control characters dropped", label: "Ana\x00 López\x1b", want: "Ana López"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayLabel(tt.label, tt.email))
		})
	}
}

func TestFormatter_OverlapWording(t *testing.T) {
	f := NewFormatter(time.UTC)
	fact := Fact{
		OtherConfirmed:        true,
		OtherDisplayName:      "Kim",
		Edge:                  EdgeReturn,
		GapMinutes:            -90,
		RequiredBufferMinutes: 60,
		CandidateWindow:       Window{Start: ts("2025-01-01T08:00"), End: ts("2025-01-01T12:00")},
		OtherWindow:           Window{Start: ts("2025-01-01T10:30"), End: ts("2025-01-01T15:00")},
	}
	assert.Equal(t,
		"Conflicts with the confirmed reservation of Kim: return at 2025-01-01 12:00 overlaps its pickup at 2025-01-01 10:30 (gap -1 h 30 min, required buffer 1 h).",
		f.FormatBlock(fact),
	)
}

func TestFormatter_UsesBusinessTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	assert.NoError(t, err)

	f := NewFormatter(loc)
	w := Window{Start: ts("2025-07-01T08:00"), End: ts("2025-07-01T10:00")}
	assert.Equal(t, "2025-07-01 10:00 - 2025-07-01 12:00", f.DescribeWindow(w))
}

func TestFormatter_NoControlCharacters(t *testing.T) {
	f := NewFormatter(time.UTC)
	fact := Fact{
		OtherDisplayName:  "Eve\n\x07Injected",
		OtherContactEmail: "eve@example.com",
		Edge:              EdgePickup,
		GapMinutes:        15,
		CandidateWindow:   Window{Start: ts("2025-01-01T12:15"), End: ts("2025-01-01T13:00")},
		OtherWindow:       Window{Start: ts("2025-01-01T10:00"), End: ts("2025-01-01T12:00")},
	}
	for _, msg := range []string{f.FormatBlock(fact), f.FormatWarning(fact, f.DescribeWindow(fact.OtherWindow))} {
		assert.False(t, strings.ContainsFunc(msg, unicode.IsControl), msg)
		assert.Contains(t, msg, "Eve Injected")
	}
}

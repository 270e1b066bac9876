package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var fakeNow = time.Date(2026, time.September, 2, 10, 30, 0, 0, time.UTC)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"today", "2026-09-02"},
		{"Tomorrow", "2026-09-03"},
		{"day after tomorrow", "2026-09-04"},
		{"friday", "2026-09-04"},
		{"next friday", "2026-09-04"},
		{"wednesday", "2026-09-09"},
		{"2026-09-15", "2026-09-15"},
		{"09/15/2026", "2026-09-15"},
		{"Sep 15, 2026", "2026-09-15"},
		{"September 15 2026", "2026-09-15"},
		{"Sep 15", "2026-09-15"},
		{"9/15", "2026-09-15"},
	}
	for _, tt := range tests {
		got, err := NormalizeDate(tt.raw, fakeNow)
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestNormalizeDateErrors(t *testing.T) {
	_, err := NormalizeDate("", fakeNow)
	assert.Error(t, err)

	_, err = NormalizeDate("whenever you like", fakeNow)
	assert.Error(t, err)
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"14:00", "14:00"},
		{"2pm", "14:00"},
		{"2 PM", "14:00"},
		{"2:30 pm", "14:30"},
		{"2:30 p.m.", "14:30"},
		{"9am", "09:00"},
		{"12am", "00:00"},
		{"12pm", "12:00"},
		{"noon", "12:00"},
		{"around midday", "12:00"},
		{"midnight", "00:00"},
		{"around 3 pm", "15:00"},
	}
	for _, tt := range tests {
		got, err := NormalizeTime(tt.raw)
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestNormalizeTimeErrors(t *testing.T) {
	_, err := NormalizeTime("")
	assert.Error(t, err)

	_, err = NormalizeTime("sometime soon")
	assert.Error(t, err)

	_, err = NormalizeTime("25:00")
	assert.Error(t, err)
}

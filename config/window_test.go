package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(h, m int) time.Time {
	return time.Date(2024, 3, 15, h, m, 0, 0, time.UTC)
}

func TestParseWindow_Validation(t *testing.T) {
	_, err := ParseWindow("8:50", "9:10", "nowhere/invalid")
	assert.Error(t, err)

	_, err = ParseWindow("25:00", "9:10", "UTC")
	assert.Error(t, err)

	_, err = ParseWindow("09:00", "09:00", "UTC")
	assert.Error(t, err)
}

func TestWindow_Contains(t *testing.T) {
	w, err := ParseWindow("08:50", "09:10", "UTC")
	require.NoError(t, err)

	assert.False(t, w.Contains(utc(8, 49)))
	assert.True(t, w.Contains(utc(8, 50)))
	assert.True(t, w.Contains(utc(9, 0)))
	assert.False(t, w.Contains(utc(9, 10)), "end bound is exclusive")
	assert.False(t, w.Contains(utc(15, 0)))
}

func TestWindow_SpansMidnight(t *testing.T) {
	w, err := ParseWindow("23:50", "00:10", "UTC")
	require.NoError(t, err)

	assert.True(t, w.Contains(utc(23, 55)))
	assert.True(t, w.Contains(utc(0, 5)))
	assert.False(t, w.Contains(utc(12, 0)))
}

func TestWindow_Approaching(t *testing.T) {
	w, err := ParseWindow("08:50", "09:10", "UTC")
	require.NoError(t, err)

	assert.True(t, w.Approaching(utc(8, 45), 10*time.Minute))
	assert.False(t, w.Approaching(utc(8, 30), 10*time.Minute))
	assert.False(t, w.Approaching(utc(8, 55), 10*time.Minute), "already inside")
}

func TestWindow_ZeroValueContainsNothing(t *testing.T) {
	var w Window
	assert.False(t, w.Contains(utc(9, 0)))
	assert.False(t, w.Approaching(utc(8, 45), 10*time.Minute))
}

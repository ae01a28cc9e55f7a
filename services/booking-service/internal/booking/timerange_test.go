package booking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"09:05": 545,
		"19:59": 1199,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"24:00", "9:00", "09:60", "0900", "09:00:00", "", " 09:00", "ab:cd", "2a:00"} {
		_, err := ParseClock(in)
		reason, ok := ReasonOf(err)
		require.True(t, ok, in)
		require.Equal(t, InvalidTime, reason, in)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	require.NoError(t, err)
	require.Equal(t, 28, d.Day())

	_, err = ParseDate("2024-02-29")
	require.NoError(t, err, "leap day")

	for _, in := range []string{"2025-02-30", "2025-13-01", "2025-2-01", "25-02-01", "2025/02/01", "2025-02-01T00:00:00Z", ""} {
		_, err := ParseDate(in)
		reason, _ := ReasonOf(err)
		require.Equal(t, InvalidDate, reason, in)
	}
}

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval("09:00", "09:30")
	require.NoError(t, err)
	require.Equal(t, Interval{Start: 540, End: 570}, iv)
	require.Equal(t, 30, iv.Minutes())
	require.Equal(t, "09:00-09:30", iv.String())

	_, err = ParseInterval("09:30", "09:30")
	reason, _ := ReasonOf(err)
	require.Equal(t, InvalidTime, reason)

	_, err = ParseInterval("10:00", "09:00")
	reason, _ = ReasonOf(err)
	require.Equal(t, InvalidTime, reason)
}

func TestCheckRange(t *testing.T) {
	iv := Interval{Start: 540, End: 570}
	require.NoError(t, CheckRange(iv, 30))

	for _, expected := range []int{29, 31, 35, 0} {
		reason, _ := ReasonOf(CheckRange(iv, expected))
		require.Equal(t, DurationMismatch, reason, expected)
	}
}

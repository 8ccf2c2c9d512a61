package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTimestampFormats(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"ddmmyyyy slash", "15/08/2025", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"ddmmyyyy ambiguous is day first", "03/04/2025", time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"ddmmyyyy with 24h time", "15/08/2025 13:45:10", time.Date(2025, 8, 15, 13, 45, 10, 0, time.UTC)},
		{"ddmmyyyy with 12h time", "15/08/2025, 01:45:10 pm", time.Date(2025, 8, 15, 13, 45, 10, 0, time.UTC)},
		{"iso date", "2025-08-15", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"iso datetime", "2025-08-15 13:45:10", time.Date(2025, 8, 15, 13, 45, 10, 0, time.UTC)},
		{"iso t datetime", "2025-08-15T13:45:10", time.Date(2025, 8, 15, 13, 45, 10, 0, time.UTC)},
		{"month name", "August 15, 2025", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"ddmmyyyy dash", "15-08-2025", time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
		{"quoted input", `"15/08/2025"`, time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToTimestamp(tc.in)
			assert.True(t, tc.want.Equal(got), "got %v want %v", got, tc.want)
		})
	}
}

func TestToTimestampExcelSerial(t *testing.T) {
	// 45918 corresponds to 2025-09-18 under the 1899-12-30 epoch.
	got := ToTimestamp("45918")
	assert.Equal(t, "2025-09-18", got.Format("2006-01-02"))

	// Serial 1 is 1900-01-01 (pre leap-bug region, no shift).
	got = ToTimestamp("1")
	assert.Equal(t, "1899-12-31", got.Format("2006-01-02"))
}

func TestExcelSerialMonotonic(t *testing.T) {
	prev := time.Time{}
	for serial := 1; serial <= 99999; serial += 777 {
		cur, err := parseExcelSerial(itoa(serial))
		require.NoError(t, err)
		assert.True(t, cur.After(prev), "serial %d not after previous", serial)
		prev = cur
	}
}

func itoa(n int) string {
	b := [8]byte{}
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

func TestToTimestampFallsBackToNow(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got := ToTimestamp("not a date at all")
	after := time.Now().UTC().Add(time.Second)
	assert.True(t, got.After(before) && got.Before(after))

	got = ToTimestamp("")
	assert.False(t, got.IsZero())
}

func TestToDateOnly(t *testing.T) {
	d, ok := ToDateOnly("15/08/2025, 01:45:10 pm")
	require.True(t, ok)
	assert.Equal(t, "2025-08-15", d)

	d, ok = ToDateOnly("garbage")
	assert.False(t, ok)
	assert.Empty(t, d)

	_, ok = ToDateOnly("")
	assert.False(t, ok)
}

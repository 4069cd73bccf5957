package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeOfDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	start, end, err := TimeRangeOfDate(NewDate(2023, time.March, 14), "Europe/Berlin")
	require.NoError(t, err)

	assert.True(t, start.Equal(time.Date(2023, 3, 14, 0, 0, 0, 0, berlin)))
	assert.True(t, end.Equal(time.Date(2023, 3, 14, 23, 59, 59, 999999000, berlin)))
	assert.Equal(t, "Europe/Berlin", start.Location().String())
	assert.Equal(t, "Europe/Berlin", end.Location().String())
}

func TestTimeRangeOfDate_Boundaries(t *testing.T) {
	zones := []string{"UTC", "Europe/Berlin", "America/Los_Angeles", "Pacific/Auckland", "Asia/Kolkata", "America/Punta_Arenas"}
	dates := []Date{
		NewDate(2023, time.January, 1),
		NewDate(2023, time.March, 26),    // EU spring forward
		NewDate(2023, time.March, 12),    // US spring forward
		NewDate(2023, time.April, 2),     // NZ fall back
		NewDate(2024, time.February, 29), // leap day
		NewDate(2023, time.December, 31),
	}

	for _, tz := range zones {
		for _, d := range dates {
			start, end, err := TimeRangeOfDate(d, tz)
			require.NoError(t, err)

			assert.Equal(t, 0, start.Hour(), "%s %s", tz, d)
			assert.Equal(t, 0, start.Minute(), "%s %s", tz, d)
			assert.Equal(t, d, DateOf(start), "%s %s", tz, d)
			assert.Equal(t, d, DateOf(end), "%s %s", tz, d)

			next := d.AddDays(1).In(start.Location())
			assert.Equal(t, time.Microsecond, next.Sub(end), "%s %s", tz, d)
			assert.True(t, end.After(start))
		}
	}
}

func TestTimeRangeOfDate_WindowLength(t *testing.T) {
	tests := []struct {
		tz   string
		date Date
		want time.Duration
	}{
		{"Europe/Berlin", NewDate(2023, time.March, 14), 24 * time.Hour},
		{"Europe/Berlin", NewDate(2023, time.March, 26), 23 * time.Hour},
		{"Europe/Berlin", NewDate(2023, time.October, 29), 25 * time.Hour},
		{"America/Los_Angeles", NewDate(2023, time.November, 5), 25 * time.Hour},
		{"Pacific/Auckland", NewDate(2023, time.April, 2), 25 * time.Hour},
		{"Asia/Kolkata", NewDate(2023, time.October, 29), 24 * time.Hour},
	}

	for _, tt := range tests {
		start, end, err := TimeRangeOfDate(tt.date, tt.tz)
		require.NoError(t, err)
		assert.Equal(t, tt.want-time.Microsecond, end.Sub(start), "%s %s", tt.tz, tt.date)
	}
}

func TestTimeRangeOfDate_InvalidTimezone(t *testing.T) {
	_, _, err := TimeRangeOfDate(NewDate(2023, time.March, 14), "Mars/Olympus_Mons")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTimezone))

	_, _, err = TimeRangeOfDate(NewDate(2023, time.March, 14), "")
	assert.True(t, errors.Is(err, ErrInvalidTimezone))
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		name string
		from Date
		to   Date
		want []Date
	}{
		{
			name: "year transition",
			from: NewDate(2020, time.December, 30),
			to:   NewDate(2021, time.January, 2),
			want: []Date{
				NewDate(2020, time.December, 30),
				NewDate(2020, time.December, 31),
				NewDate(2021, time.January, 1),
				NewDate(2021, time.January, 2),
			},
		},
		{
			name: "leap year",
			from: NewDate(2024, time.February, 28),
			to:   NewDate(2024, time.March, 1),
			want: []Date{
				NewDate(2024, time.February, 28),
				NewDate(2024, time.February, 29),
				NewDate(2024, time.March, 1),
			},
		},
		{
			name: "single day",
			from: NewDate(2020, time.December, 30),
			to:   NewDate(2020, time.December, 30),
			want: []Date{NewDate(2020, time.December, 30)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateRange(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DateRange(NewDate(2021, 1, 2), NewDate(2021, 1, 1))
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-03-09")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2023, time.March, 9), d)
	assert.Equal(t, "2023-03-09", d.String())

	for _, bad := range []string{"2020-30-01", "3000-01-30", "2023/03/09", "", "2023-02-30"} {
		_, err := ParseDate(bad)
		assert.True(t, errors.Is(err, ErrInvalidDate), bad)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	assert.Equal(t, NewDate(2024, time.March, 1), d.AddDays(2))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.Equal(t, NewDate(2024, time.March, 1), NewDate(2024, time.February, 30))
}

func TestLoadLocation_CaseInsensitive(t *testing.T) {
	tests := map[string]string{
		"Europe/Berlin":       "Europe/Berlin",
		"Europe/berlin":       "Europe/Berlin",
		"europe/BERLIN":       "Europe/Berlin",
		"america/los_angeles": "America/Los_Angeles",
		"utc":                 "UTC",
	}
	for in, want := range tests {
		got, err := CanonicalZone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LoadLocation("Europe-berlin")
	assert.True(t, errors.Is(err, ErrInvalidTimezone))
	_, err = LoadLocation("Local")
	assert.True(t, errors.Is(err, ErrInvalidTimezone))
}

func TestTimezoneAt(t *testing.T) {
	cities := []struct {
		lat, lon float64
		want     string
	}{
		{52.520008, 13.404954, "Europe/Berlin"},
		{37.4848, -122.2281, "America/Los_Angeles"},
		{-53.163833, -70.917068, "America/Punta_Arenas"},
		{-25.966667, 32.583333, "Africa/Maputo"},
		{-36.848461, 174.763336, "Pacific/Auckland"},
		{51.916, 12.785, "Europe/Berlin"}, // Zahna
	}
	for _, c := range cities {
		got, err := TimezoneAt(c.lat, c.lon)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestICalUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "20210417T143000Z", ICalUTC(time.Date(2021, 4, 17, 16, 30, 0, 0, berlin)))
	assert.Equal(t, "20210417T163000Z", ICalUTC(time.Date(2021, 4, 17, 16, 30, 0, 0, time.UTC)))
}

func TestDateText(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2021-05-01")))
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2021-05-01", string(b))
	assert.Error(t, d.UnmarshalText([]byte("05/01/2021")))
}

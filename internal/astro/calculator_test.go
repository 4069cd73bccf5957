package astro

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suncal/internal/timeutil"
)

func diffMinutes(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Minutes()
}

// clock parses "15:04" on date d in zone tz.
func clock(t *testing.T, d timeutil.Date, tz, hhmm string) time.Time {
	t.Helper()
	zone, err := time.LoadLocation(tz)
	require.NoError(t, err)
	hm, err := time.Parse("15:04", hhmm)
	require.NoError(t, err)
	return time.Date(d.Year, d.Month, d.Day, hm.Hour(), hm.Minute(), 0, 0, zone)
}

var referenceCities = []struct {
	name                               string
	loc                                Location
	sunrise, sunset, moonrise, moonset string
}{
	{"Berlin", Location{"Europe/Berlin", 52.520008, 13.404954}, "06:35", "17:59", "20:17", "07:26"},
	{"Redwood City", Location{"America/Los_Angeles", 37.4848, -122.2281}, "06:28", "18:10", "20:33", "07:40"},
	{"Punta Arenas", Location{"America/Punta_Arenas", -53.163833, -70.917068}, "07:24", "20:22", "21:12", "09:33"},
	{"Maputo", Location{"Africa/Maputo", -25.966667, 32.583333}, "05:47", "18:12", "19:28", "07:15"},
	{"Auckland", Location{"Pacific/Auckland", -36.848461, 174.763336}, "07:13", "19:49", "20:46", "08:23"},
}

func TestRiseSet_ReferenceCities(t *testing.T) {
	d := timeutil.NewDate(2023, time.March, 9)
	calc := NewCalculator()

	for _, tc := range referenceCities {
		t.Run(tc.name, func(t *testing.T) {
			cases := []struct {
				body Body
				rise bool
				want string
				tol  float64
			}{
				{Sun, true, tc.sunrise, 3},
				{Sun, false, tc.sunset, 3},
				{Moon, true, tc.moonrise, 5},
				{Moon, false, tc.moonset, 5},
			}
			for _, c := range cases {
				ev, err := calc.CalculateRiseSet(d, tc.loc, c.rise, c.body)
				require.NoError(t, err)
				require.NotNil(t, ev, "%s rise=%v", c.body, c.rise)

				want := clock(t, d, tc.loc.Timezone, c.want)
				assert.LessOrEqual(t, diffMinutes(ev.Time, want), c.tol,
					"%s rise=%v got %s want %s", c.body, c.rise, ev.Time.Format("15:04:05"), c.want)
				assert.Equal(t, tc.loc.Timezone, ev.Time.Location().String())
				assert.Equal(t, c.body, ev.Body)
				assert.Equal(t, c.rise, ev.Rise)
				assert.Equal(t, tc.loc, ev.Location)
				assert.Equal(t, d, timeutil.DateOf(ev.Time))
			}
		})
	}
}

func TestRiseSet_BerlinRangeIsMonotonic(t *testing.T) {
	loc := Location{"Europe/Berlin", 52.520008, 13.404954}
	dates, err := timeutil.DateRange(timeutil.NewDate(2021, time.May, 1), timeutil.NewDate(2021, time.May, 3))
	require.NoError(t, err)

	var prev time.Time
	for _, d := range dates {
		ev, err := CalculateRiseSet(d, loc, true, Sun)
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.True(t, ev.Time.After(prev))
		assert.Equal(t, d, timeutil.DateOf(ev.Time))
		assert.Equal(t, 5, ev.Time.Hour())
		prev = ev.Time
	}
}

func TestRiseSet_PolarDayAndNight(t *testing.T) {
	north := Location{"UTC", 90, 0}
	south := Location{"UTC", -90, 0}
	dates := []timeutil.Date{
		timeutil.NewDate(2023, time.June, 21),
		timeutil.NewDate(2023, time.December, 21),
		timeutil.NewDate(2023, time.January, 15),
		timeutil.NewDate(2023, time.August, 1),
	}

	for _, d := range dates {
		for _, loc := range []Location{north, south} {
			for _, rise := range []bool{true, false} {
				ev, err := CalculateRiseSet(d, loc, rise, Sun)
				require.NoError(t, err)
				assert.Nil(t, ev, "%s lat=%g rise=%v", d, loc.Latitude, rise)
			}
		}
	}
}

func TestRiseSet_ShortNights(t *testing.T) {
	rovaniemi := Location{"Europe/Helsinki", 66.5039, 25.7294}
	south := Location{"Europe/Helsinki", 65.8, 25.7294}

	tests := []struct {
		loc             Location
		date            timeutil.Date
		sunset, sunrise string
	}{
		{rovaniemi, timeutil.NewDate(2023, time.July, 7), "01:11", "01:33"},
		{south, timeutil.NewDate(2023, time.June, 16), "01:04", "01:32"},
		{south, timeutil.NewDate(2023, time.June, 17), "01:13", "01:22"},
		{south, timeutil.NewDate(2023, time.June, 27), "01:09", "01:31"},
		{south, timeutil.NewDate(2023, time.June, 28), "01:02", "01:38"},
	}

	for _, tt := range tests {
		set, err := CalculateRiseSet(tt.date, tt.loc, false, Sun)
		require.NoError(t, err)
		require.NotNil(t, set, "sunset %s lat=%g", tt.date, tt.loc.Latitude)
		rise, err := CalculateRiseSet(tt.date, tt.loc, true, Sun)
		require.NoError(t, err)
		require.NotNil(t, rise, "sunrise %s lat=%g", tt.date, tt.loc.Latitude)

		assert.LessOrEqual(t, diffMinutes(set.Time, clock(t, tt.date, tt.loc.Timezone, tt.sunset)), 2.0, "sunset %s", tt.date)
		assert.LessOrEqual(t, diffMinutes(rise.Time, clock(t, tt.date, tt.loc.Timezone, tt.sunrise)), 2.0, "sunrise %s", tt.date)
		assert.True(t, set.Time.Before(rise.Time))
	}
}

// fineCalculator samples every minute; the default step must agree with it.
func fineCalculator() *Calculator {
	c := NewCalculator()
	c.Finder.Step = time.Minute
	return c
}

func TestRiseSet_DefaultStepMatchesFineStep(t *testing.T) {
	fine, def := fineCalculator(), NewCalculator()

	cases := []struct {
		loc      Location
		from, to timeutil.Date
	}{
		{Location{"Europe/Helsinki", 65.8, 25.7294}, timeutil.NewDate(2023, time.June, 8), timeutil.NewDate(2023, time.July, 4)},
		{Location{"Europe/Helsinki", 66.5039, 25.7294}, timeutil.NewDate(2023, time.July, 1), timeutil.NewDate(2023, time.July, 12)},
		{Location{"Europe/Helsinki", 65.0121, 25.4651}, timeutil.NewDate(2023, time.June, 18), timeutil.NewDate(2023, time.June, 24)},
	}

	for _, c := range cases {
		dates, err := timeutil.DateRange(c.from, c.to)
		require.NoError(t, err)
		for _, d := range dates {
			for _, rise := range []bool{true, false} {
				want, err := fine.CalculateRiseSet(d, c.loc, rise, Sun)
				require.NoError(t, err)
				got, err := def.CalculateRiseSet(d, c.loc, rise, Sun)
				require.NoError(t, err)

				if want == nil {
					assert.Nil(t, got, "%s lat=%g rise=%v", d, c.loc.Latitude, rise)
					continue
				}
				require.NotNil(t, got, "%s lat=%g rise=%v", d, c.loc.Latitude, rise)
				assert.WithinDuration(t, want.Time, got.Time, time.Second, "%s lat=%g rise=%v", d, c.loc.Latitude, rise)
			}
		}
	}
}

func TestMagicHour_DefaultStepMatchesFineStep(t *testing.T) {
	fine, def := fineCalculator(), NewCalculator()
	trondheim := Location{"Europe/Oslo", 63.4305, 10.3951}

	dates, err := timeutil.DateRange(timeutil.NewDate(2023, time.May, 25), timeutil.NewDate(2023, time.July, 19))
	require.NoError(t, err)

	for i := 0; i < len(dates); i += 6 {
		d := dates[i]
		for _, color := range []Color{Golden, Blue} {
			for _, morning := range []bool{true, false} {
				want, err := fine.CalculateMagicHour(d, trondheim, color, morning)
				require.NoError(t, err)
				got, err := def.CalculateMagicHour(d, trondheim, color, morning)
				require.NoError(t, err)

				if want == nil {
					assert.Nil(t, got, "%s %s morning=%v", d, color, morning)
					continue
				}
				require.NotNil(t, got, "%s %s morning=%v", d, color, morning)
				assert.WithinDuration(t, want.Start, got.Start, time.Second)
				assert.WithinDuration(t, want.End, got.End, time.Second)
			}
		}
	}
}

func TestRiseSet_FallBackDay(t *testing.T) {
	berlin := Location{"Europe/Berlin", 52.520008, 13.404954}
	d := timeutil.NewDate(2023, time.October, 29)

	rise, err := CalculateRiseSet(d, berlin, true, Sun)
	require.NoError(t, err)
	require.NotNil(t, rise)
	set, err := CalculateRiseSet(d, berlin, false, Sun)
	require.NoError(t, err)
	require.NotNil(t, set)

	// Both fall after the 03:00 switch back to CET.
	assert.LessOrEqual(t, diffMinutes(rise.Time, clock(t, d, berlin.Timezone, "06:56")), 3.0)
	assert.LessOrEqual(t, diffMinutes(set.Time, clock(t, d, berlin.Timezone, "16:43")), 3.0)
	_, offset := rise.Time.Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, d, timeutil.DateOf(rise.Time))
	assert.Equal(t, d, timeutil.DateOf(set.Time))
}

func TestRiseSet_InvalidInput(t *testing.T) {
	d := timeutil.NewDate(2023, time.March, 9)

	_, err := CalculateRiseSet(d, Location{"Europe/Berlin", 91, 0}, true, Sun)
	assert.True(t, errors.Is(err, ErrInvalidLocation))

	_, err = CalculateRiseSet(d, Location{"Europe/Berlin", 0, -181}, true, Sun)
	assert.True(t, errors.Is(err, ErrInvalidLocation))

	_, err = CalculateRiseSet(d, Location{"Nowhere/Special", 52, 13}, true, Sun)
	assert.True(t, errors.Is(err, timeutil.ErrInvalidTimezone))

	_, err = CalculateRiseSet(d, Location{"Europe/Berlin", 52, 13}, true, Body(7))
	assert.Error(t, err)
}

func TestMoonPhase_LastQuarterBerlin(t *testing.T) {
	d := timeutil.NewDate(2023, time.March, 15)

	ev, err := CalculateMoonPhase(d, "europe/berlin")
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, LastQuarter, ev.Phase)
	assert.Equal(t, "Europe/Berlin", ev.Timezone)
	assert.Equal(t, "Europe/Berlin", ev.Time.Location().String())
	assert.LessOrEqual(t, diffMinutes(ev.Time, clock(t, d, "Europe/Berlin", "03:08")), 5.0)
}

func TestMoonPhase_March2023(t *testing.T) {
	from := timeutil.NewDate(2023, time.March, 1)
	to := timeutil.NewDate(2023, time.March, 31)
	dates, err := timeutil.DateRange(from, to)
	require.NoError(t, err)

	found := map[int]Phase{}
	for _, d := range dates {
		ev, err := CalculateMoonPhase(d, "Europe/Berlin")
		require.NoError(t, err)
		if ev != nil {
			found[d.Day] = ev.Phase
		}
	}

	assert.Equal(t, map[int]Phase{
		7:  FullMoon,
		15: LastQuarter,
		21: NewMoon,
		29: FirstQuarter,
	}, found)
}

func TestMagicHour_Berlin(t *testing.T) {
	d := timeutil.NewDate(2023, time.March, 9)
	loc := Location{"Europe/Berlin", 52.520008, 13.404954}

	tests := []struct {
		color      Color
		morning    bool
		start, end string
	}{
		{Golden, true, "06:14", "07:21"},
		{Blue, false, "18:20", "18:46"},
	}

	for _, tc := range tests {
		ev, err := CalculateMagicHour(d, loc, tc.color, tc.morning)
		require.NoError(t, err)
		require.NotNil(t, ev)

		assert.Equal(t, tc.color, ev.Color)
		assert.Equal(t, tc.morning, ev.Morning)
		assert.True(t, ev.Start.Before(ev.End))
		assert.LessOrEqual(t, diffMinutes(ev.Start, clock(t, d, loc.Timezone, tc.start)), 3.0)
		assert.LessOrEqual(t, diffMinutes(ev.End, clock(t, d, loc.Timezone, tc.end)), 3.0)
	}
}

func TestMagicHour_Ordering(t *testing.T) {
	d := timeutil.NewDate(2023, time.March, 9)
	loc := Location{"Europe/Berlin", 52.520008, 13.404954}
	calc := NewCalculator()

	blueAM, err := calc.CalculateMagicHour(d, loc, Blue, true)
	require.NoError(t, err)
	goldenAM, err := calc.CalculateMagicHour(d, loc, Golden, true)
	require.NoError(t, err)
	goldenPM, err := calc.CalculateMagicHour(d, loc, Golden, false)
	require.NoError(t, err)
	bluePM, err := calc.CalculateMagicHour(d, loc, Blue, false)
	require.NoError(t, err)

	require.NotNil(t, blueAM)
	require.NotNil(t, goldenAM)
	require.NotNil(t, goldenPM)
	require.NotNil(t, bluePM)

	// Adjacent bands share the -4 deg edge.
	assert.LessOrEqual(t, diffMinutes(blueAM.End, goldenAM.Start), 0.01)
	assert.LessOrEqual(t, diffMinutes(goldenPM.End, bluePM.Start), 0.01)
	assert.True(t, goldenAM.End.Before(goldenPM.Start))
}

func TestMagicHour_WhiteNight(t *testing.T) {
	tromso := Location{"Europe/Oslo", 69.6492, 18.9553}
	ev, err := CalculateMagicHour(timeutil.NewDate(2023, time.June, 21), tromso, Blue, false)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestMagicHour_UnknownColor(t *testing.T) {
	_, err := CalculateMagicHour(timeutil.NewDate(2023, time.March, 9),
		Location{"Europe/Berlin", 52.5, 13.4}, Color("purple"), true)
	assert.True(t, errors.Is(err, ErrInvalidMagicHour))
}

func TestEventConstructors(t *testing.T) {
	now := time.Date(2023, 3, 15, 2, 8, 0, 0, time.UTC)

	_, err := NewMoonPhaseEvent("UTC", now, 4)
	assert.True(t, errors.Is(err, ErrInvalidPhase))
	_, err = NewMoonPhaseEvent("UTC", now, -1)
	assert.True(t, errors.Is(err, ErrInvalidPhase))

	ev, err := NewMoonPhaseEvent("UTC", now, 3)
	require.NoError(t, err)
	assert.Equal(t, "Last Quarter", ev.Phase.String())
	assert.Equal(t, KindMoonPhase, ev.Kind())

	_, err = NewMagicHourEvent(Golden, now, now, true)
	assert.True(t, errors.Is(err, ErrInvalidMagicHour))
	_, err = NewMagicHourEvent("silver", now, now.Add(time.Minute), true)
	assert.True(t, errors.Is(err, ErrInvalidMagicHour))

	mh, err := NewMagicHourEvent(Blue, now, now.Add(20*time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, now, mh.At())

	c, err := ParseColor(" Golden ")
	require.NoError(t, err)
	assert.Equal(t, Golden, c)
}

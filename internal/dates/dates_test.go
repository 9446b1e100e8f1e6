package dates

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/tabular"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseString(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15", day(2024, time.March, 15)},
		{"2024-03-15T10:30:00Z", day(2024, time.March, 15)},
		{"2024-03-15T23:30:00-05:00", day(2024, time.March, 15)},
		{"2024-03-15 08:00:00", day(2024, time.March, 15)},
		{"2024/03/15", day(2024, time.March, 15)},
		{"March 15, 2024", day(2024, time.March, 15)},
		{"15 Mar 2024", day(2024, time.March, 15)},
		{"13/05/2024", day(2024, time.May, 13)},
		{"05/13/2024", day(2024, time.May, 13)},
		{"05/04/2024", day(2024, time.April, 5)},
		{"25/12/2024 14:05", day(2024, time.December, 25)},
		{"01/02/24", day(2024, time.February, 1)},
		{"2024-3-5", day(2024, time.March, 5)},
		{"15-03-2024", day(2024, time.March, 15)},
		{"Jan 2023", day(2023, time.January, 1)},
		{"january 2023", day(2023, time.January, 1)},
		{"Sept. 2022", day(2022, time.September, 1)},
		{"15 March 2024 10:00", day(2024, time.March, 15)},
		{"March 15, 2024 10:30 AM", day(2024, time.March, 15)},
		{"Fri Mar 15 2024 00:00:00", day(2024, time.March, 15)},
		{"Fri Mar 15 2024 00:00:00 GMT+0000", day(2024, time.March, 15)},
		{"Fri Mar 15 2024 00:00:00 GMT+0000 (Coordinated Universal Time)", day(2024, time.March, 15)},
		{"15.03.2024", day(2024, time.March, 15)},
		{"03.15.2024", day(2024, time.March, 15)},
		{"1.2.2024 09:15", day(2024, time.February, 1)},
		{"2024.03.15", day(2024, time.March, 15)},
		{"45356", day(2024, time.March, 5)},
	}
	for _, c := range cases {
		got, err := ParseString(c.in)
		if assert.NoError(t, err, c.in) {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestParseString_Unparseable(t *testing.T) {
	for _, in := range []string{"", "   ", "soon", "31/02/2024", "13/13/2024", "Foo 2024", "999", "1999999", "Closed Sept 2022", "Due 15 March 2024 10:00 or later", "1.5", "1.2.3"} {
		_, err := ParseString(in)
		assert.True(t, errors.Is(err, ErrUnparseable), "expected ErrUnparseable for %q, got %v", in, err)
	}
}

func TestParseString_DayFirstWhenDayAboveTwelve(t *testing.T) {
	for d := 13; d <= 28; d++ {
		for m := 1; m <= 12; m++ {
			in := fmt.Sprintf("%02d/%02d/2024", d, m)
			got, err := ParseString(in)
			require.NoError(t, err, in)
			assert.Equal(t, day(2024, time.Month(m), d), got, in)
		}
	}
}

func TestSerialToDate_LeapYearBugCompensation(t *testing.T) {
	epoch := day(1900, time.January, 1)
	for _, n := range []int{1, 2, 30, 59, 60} {
		naive := epoch.AddDate(0, 0, n)
		assert.Equal(t, naive.AddDate(0, 0, -1), SerialToDate(float64(n)), "serial %d", n)
	}
	for _, n := range []int{61, 1000, 36526, 45356, 60000} {
		naive := epoch.AddDate(0, 0, n)
		assert.Equal(t, naive.AddDate(0, 0, -2), SerialToDate(float64(n)), "serial %d", n)
	}
}

func TestParse_SerialRange(t *testing.T) {
	got, err := Parse(tabular.Number(45356.75))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 5), got)

	got, err = Parse(tabular.Number(18264))
	require.NoError(t, err)
	assert.Equal(t, day(1950, time.January, 1), got)

	// 2100-01-01 and a plain dollar amount both fall outside the window.
	_, err = Parse(tabular.Number(73051))
	assert.ErrorIs(t, err, ErrUnparseable)
	_, err = Parse(tabular.Number(1500))
	assert.ErrorIs(t, err, ErrUnparseable)
	_, err = Parse(tabular.Number(250))
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestParse_ValueKinds(t *testing.T) {
	ts := time.Date(2024, time.June, 3, 17, 45, 0, 0, time.UTC)
	got, err := Parse(tabular.DateValue(ts))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.June, 3), got)

	got, err = Parse(tabular.Text("2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.June, 3), got)

	_, err = Parse(tabular.Missing())
	assert.ErrorIs(t, err, ErrUnparseable)
	_, err = Parse(tabular.Boolean(true))
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestFormatISO_RoundTrip(t *testing.T) {
	start := day(1899, time.December, 25)
	for i := 0; i < 365*230; i += 13 {
		d := start.AddDate(0, 0, i)
		iso := FormatISO(d)
		parsed, err := ParseString(iso)
		require.NoError(t, err, iso)
		assert.Equal(t, iso, FormatISO(parsed))
	}
	for _, iso := range []string{"0001-01-01", "0999-12-31", "2024-02-29", "9999-12-31"} {
		parsed, err := ParseString(iso)
		require.NoError(t, err, iso)
		assert.Equal(t, iso, FormatISO(parsed))
	}
}

func TestMonthHelpers(t *testing.T) {
	d := day(2024, time.March, 15)
	assert.Equal(t, "2024-03", MonthKey(d))
	assert.Equal(t, day(2024, time.March, 1), FirstOfMonth(d))

	m, err := ParseMonthKey("2024-03")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 1), m)
}

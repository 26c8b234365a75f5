package dataset

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesOf(t *testing.T) {
	// 2014-11-02 was a Sunday
	a := AttributesOf(time.Date(2014, 11, 2, 13, 30, 0, 0, time.UTC))
	assert.Equal(t, Attributes{Day: 2, Hour: 13, Weekday: 6, Month: 11}, a)

	a = AttributesOf(time.Date(2014, 11, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, a.Weekday)

	assert.Equal(t, "November", MonthName(11))
	assert.Equal(t, "Monday", WeekdayName(0))
	assert.Equal(t, "Sunday", WeekdayName(6))
}

func TestResampleDaily(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	daily := frame.ResampleDaily()
	require.Len(t, daily, 4)

	assert.Equal(t, time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC), daily[0].Time)
	assert.InDelta(t, (10844.0+8127.0)/2, daily[0].Value, 1e-9)
	assert.Equal(t, 6210.0, daily[1].Value)
	assert.True(t, math.IsNaN(daily[2].Value), "empty day is NaN")
	assert.Equal(t, 4000.0, daily[3].Value)

	assert.Len(t, DropNaN(daily), 3)
	assert.Equal(t, []float64{6210, 4000}, Values(DropNaN(daily))[1:])
}

func TestGroupMeanOrder(t *testing.T) {
	csv := "timestamp,value\n" +
		"2014-12-01 00:00:00,10\n" +
		"2014-12-01 01:00:00,20\n" +
		"2014-12-01 02:00:00,\n" +
		"2014-12-02 00:00:00,30\n" +
		"2015-01-01 00:00:00,5\n" +
		"2015-01-01 00:30:00,7\n"
	frame, err := Read(strings.NewReader(csv))
	require.NoError(t, err)

	groups := ByMonth(frame.WithAttributes())
	require.Len(t, groups, 2)

	// December appears first in the data so it comes first
	assert.Equal(t, "December", groups[0].Label)
	assert.Equal(t, 12, groups[0].Key)
	assert.Equal(t, []XY{{X: 1, Y: 15}, {X: 2, Y: 30}}, groups[0].Points)

	assert.Equal(t, "January", groups[1].Label)
	assert.Equal(t, []XY{{X: 1, Y: 6}}, groups[1].Points)
}

func TestByWeekday(t *testing.T) {
	csv := "timestamp,value\n" +
		"2014-11-03 08:00:00,100\n" + // Monday
		"2014-11-10 08:30:00,200\n" + // Monday
		"2014-11-04 09:00:00,50\n" // Tuesday
	frame, err := Read(strings.NewReader(csv))
	require.NoError(t, err)

	groups := ByWeekday(frame.WithAttributes())
	require.Len(t, groups, 2)
	assert.Equal(t, "Monday", groups[0].Label)
	assert.Equal(t, []XY{{X: 8, Y: 150}}, groups[0].Points)
	assert.Equal(t, "Tuesday", groups[1].Label)
	assert.Equal(t, []XY{{X: 9, Y: 50}}, groups[1].Points)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateString(t *testing.T) {
	d := NewDate(2024, time.March, 7)
	assert.Equal(t, "2024-03-07", d.String())
}

func TestDateHeader(t *testing.T) {
	tests := []struct {
		date Date
		want string
	}{
		{NewDate(2024, time.March, 7), "7-Mar"},
		{NewDate(2024, time.October, 15), "15-Oct"},
		{NewDate(2025, time.January, 1), "1-Jan"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.date.Header())
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-10-15")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.October, 15), d)
	assert.Equal(t, "2024-10-15", d.String())

	_, err = ParseDate("15/10/2024")
	assert.Error(t, err)
}

func TestDateBefore(t *testing.T) {
	assert.True(t, NewDate(2024, time.October, 15).Before(NewDate(2024, time.October, 16)))
	assert.True(t, NewDate(2024, time.October, 15).Before(NewDate(2024, time.November, 1)))
	assert.True(t, NewDate(2024, time.December, 31).Before(NewDate(2025, time.January, 1)))
	assert.False(t, NewDate(2024, time.October, 15).Before(NewDate(2024, time.October, 15)))
}

func TestDateIsComparableMapKey(t *testing.T) {
	counts := map[Date]int{}
	counts[NewDate(2024, time.October, 15)]++
	counts[NewDate(2024, time.October, 15)]++

	assert.Equal(t, 2, counts[NewDate(2024, time.October, 15)])
}

func TestSortDates(t *testing.T) {
	dates := []Date{
		NewDate(2025, time.January, 2),
		NewDate(2024, time.March, 7),
		NewDate(2024, time.December, 31),
	}

	sorted := SortDates(dates)

	assert.Equal(t, []Date{
		NewDate(2024, time.March, 7),
		NewDate(2024, time.December, 31),
		NewDate(2025, time.January, 2),
	}, sorted)
}

func TestRegionAllRegionsCopy(t *testing.T) {
	regions := AllRegions()
	require.Len(t, regions, 18)
	assert.Equal(t, RegionNCR, regions[0])
	assert.Equal(t, RegionUnidentified, regions[len(regions)-1])

	// Mutating the returned slice must not affect later calls.
	regions[0] = RegionUnidentified
	assert.Equal(t, RegionNCR, AllRegions()[0])
}

func TestFileAggregate(t *testing.T) {
	agg := FileAggregate{}
	agg.Add(Observation{Date: NewDate(2024, time.October, 15), Region: RegionNCR})
	agg.Add(Observation{Date: NewDate(2024, time.October, 15), Region: RegionNCR})
	agg.Add(Observation{Date: NewDate(2024, time.October, 16), Region: RegionV})

	assert.Equal(t, 2, agg[AggregateKey{Date: NewDate(2024, time.October, 15), Region: RegionNCR}])
	assert.Equal(t, 3, agg.Total())
}

package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustDay(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddBusiness(t *testing.T) {
	// 2026-03-06 is a Friday
	friday := mustDay("2026-03-06")

	require.Equal(t, mustDay("2026-03-09"), AddBusiness(friday, 1), "Friday +1 skips the weekend")
	require.Equal(t, mustDay("2026-03-13"), AddBusiness(friday, 5))
	require.Equal(t, mustDay("2026-03-05"), AddBusiness(friday, -1))
	require.Equal(t, mustDay("2026-02-27"), AddBusiness(mustDay("2026-03-02"), -1), "Monday -1 is the prior Friday")
	require.Equal(t, friday, AddBusiness(friday, 0))
}

func TestAddBusinessNormalizesTime(t *testing.T) {
	noon := time.Date(2026, 3, 6, 12, 30, 0, 0, time.UTC)
	require.Equal(t, mustDay("2026-03-06"), AddBusiness(noon, 0))
	require.Equal(t, mustDay("2026-03-06"), Day(noon))
}

func TestMonthStart(t *testing.T) {
	require.True(t, MonthStart(mustDay("2026-02-27"), mustDay("2026-03-02")))
	require.True(t, MonthStart(mustDay("2025-12-31"), mustDay("2026-01-02")))
	require.False(t, MonthStart(mustDay("2026-03-02"), mustDay("2026-03-03")))
}

func TestWeekStart(t *testing.T) {
	require.True(t, WeekStart(mustDay("2026-03-06"), mustDay("2026-03-09")))
	require.False(t, WeekStart(mustDay("2026-03-09"), mustDay("2026-03-10")))
	require.True(t, WeekStart(mustDay("2025-12-26"), mustDay("2025-12-29")), "year boundary week")
}

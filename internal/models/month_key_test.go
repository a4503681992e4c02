package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMonthKey(t *testing.T) {
	for _, key := range []string{"2025-01", "2025-12", "1999-06"} {
		assert.NoError(t, ValidateMonthKey(key), key)
	}
	for _, key := range []string{"2025-13", "2025-00", "2025-1", "202501", "2025-01-01", ""} {
		assert.Error(t, ValidateMonthKey(key), key)
	}
}

func TestMonthKeyOfUsesUTC(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	// 00:30 local on 1 June is still 31 May in UTC.
	local := time.Date(2025, 6, 1, 0, 30, 0, 0, warsaw)
	assert.Equal(t, "2025-05", MonthKeyOf(local))
}

func TestLastMonthKeysOldestFirst(t *testing.T) {
	end := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []MonthKey{"2024-12", "2025-01", "2025-02"}, LastMonthKeys(end, 3))
	assert.Nil(t, LastMonthKeys(end, 0))
}

func TestPrevMonthKeyCrossesYear(t *testing.T) {
	prev, err := PrevMonthKey("2025-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-12", prev)

	_, err = PrevMonthKey("bogus")
	assert.Error(t, err)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoversIsInclusive(t *testing.T) {
	w := PriceWindow{
		StartDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, w.Covers(w.StartDate))
	assert.True(t, w.Covers(w.EndDate))
	assert.False(t, w.Covers(w.EndDate.AddDate(0, 0, 1)))
	assert.True(t, w.Overlaps(w.EndDate, w.EndDate.AddDate(0, 0, 5)))
	assert.False(t, w.Overlaps(w.EndDate.AddDate(0, 0, 1), w.EndDate.AddDate(0, 0, 5)))
}

func TestDateOnlyUsesOwnLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	local := time.Date(2026, 5, 2, 1, 0, 0, 0, jakarta)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), DateOnly(local))
}

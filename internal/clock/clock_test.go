package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayUsesStoreTimezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 18:30 UTC on the 1st is already the 2nd in Jakarta.
	fc := NewFakeClock(time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Today(fc, jakarta))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Today(fc, nil))
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFakeClock(start)
	fc.Advance(36 * time.Hour)
	assert.Equal(t, start.Add(36*time.Hour), fc.Now())
}

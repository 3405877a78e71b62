package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// Other clients have their own budget
	assert.True(t, l.Allow("10.0.0.2"))

	// Nothing has expired yet
	assert.Equal(t, 0, l.Purge())

	now = now.Add(time.Minute + time.Second)
	assert.True(t, l.Allow("10.0.0.1"))

	// 10.0.0.1 opened a new window, 10.0.0.2's is closed
	assert.Equal(t, 1, l.Purge())
	assert.Len(t, l.entries, 1)
}

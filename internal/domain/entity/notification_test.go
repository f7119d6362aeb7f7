package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReminderKindRoundTrip(t *testing.T) {
	kind := ReminderKind(7)
	assert.Equal(t, "reminder:7", kind)

	days, ok := IsReminderKind(kind)
	assert.True(t, ok)
	assert.Equal(t, 7, days)
}

func TestIsReminderKindRejectsOtherKinds(t *testing.T) {
	for _, kind := range []string{KindConfirmation, KindWaitlistPromotion, "reminder:", "reminder:x", ""} {
		_, ok := IsReminderKind(kind)
		assert.False(t, ok, kind)
	}
}

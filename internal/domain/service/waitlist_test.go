package service

import (
	"context"
	"testing"

	"github.com/gatherkit/rsvp-service/internal/domain/common/errorz"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWaitlist(t *testing.T, responses *memResponseStorage, eventID string, userIDs ...int64) {
	t.Helper()
	for i, userID := range userIDs {
		response := &entity.Response{
			EventID: eventID,
			UserID:  userID,
		}
		response.MarkWaitlisted(1, i+1, response.CreatedAt)
		_, err := responses.Create(context.Background(), response)
		require.NoError(t, err)
	}
}

func TestPromoteFollowsWaitlistOrder(t *testing.T) {
	event := testEvent("event-1", 2)
	responses := newMemResponseStorage()
	listener := &recordingListener{}
	waitlist := NewWaitlistService(newTestLogger(), responses, newMemEventProvider(event), listener)
	seedWaitlist(t, responses, event.ID, 10, 20, 30)
	ctx := context.Background()

	promoted, err := waitlist.Promote(ctx, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, promoted)

	for _, userID := range promoted {
		response, errGet := responses.Get(ctx, event.ID, userID)
		require.NoError(t, errGet)
		assert.Equal(t, entity.ResponseStatusAttending, response.Status)
		assert.Nil(t, response.WaitlistPosition)
		assert.Nil(t, response.WaitlistJoinedAt)
	}

	remaining, err := responses.Get(ctx, event.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseStatusWaitlisted, remaining.Status)
	require.NotNil(t, remaining.WaitlistPosition)
	assert.Equal(t, 3, *remaining.WaitlistPosition)

	require.Len(t, listener.changes, 2)
	for _, change := range listener.changes {
		assert.Equal(t, entity.KindWaitlistPromotion, change.NotificationKind)
		assert.Equal(t, entity.ResponseStatusAttending, change.NewStatus)
	}
}

func TestPromoteCarriesGuestCount(t *testing.T) {
	event := testEvent("event-1", 2)
	responses := newMemResponseStorage()
	waitlist := NewWaitlistService(newTestLogger(), responses, newMemEventProvider(event), nil)
	ctx := context.Background()

	response := &entity.Response{EventID: event.ID, UserID: 1}
	response.MarkWaitlisted(3, 1, response.CreatedAt)
	_, err := responses.Create(ctx, response)
	require.NoError(t, err)

	_, err = waitlist.Promote(ctx, event.ID, 1)
	require.NoError(t, err)

	promoted, err := responses.Get(ctx, event.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, promoted.GuestCount)
}

func TestPromoteZeroSpotsIsNoOp(t *testing.T) {
	event := testEvent("event-1", 2)
	responses := newMemResponseStorage()
	listener := &recordingListener{}
	waitlist := NewWaitlistService(newTestLogger(), responses, newMemEventProvider(event), listener)
	seedWaitlist(t, responses, event.ID, 1)

	promoted, err := waitlist.Promote(context.Background(), event.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, promoted)
	assert.Empty(t, listener.changes)
}

func TestPromoteIsIdempotent(t *testing.T) {
	event := testEvent("event-1", 2)
	responses := newMemResponseStorage()
	waitlist := NewWaitlistService(newTestLogger(), responses, newMemEventProvider(event), nil)
	seedWaitlist(t, responses, event.ID, 1)
	ctx := context.Background()

	first, err := waitlist.Promote(ctx, event.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, first)

	// Promoted responses are no longer waitlisted, so nothing is selectable.
	second, err := waitlist.Promote(ctx, event.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestPromoteMissingEvent(t *testing.T) {
	waitlist := NewWaitlistService(newTestLogger(), newMemResponseStorage(), newMemEventProvider(), nil)

	_, err := waitlist.Promote(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, errorz.EventNotFound)
}

func TestPromotePartialFailureContinues(t *testing.T) {
	event := testEvent("event-1", 2)
	responses := newMemResponseStorage()
	waitlist := NewWaitlistService(newTestLogger(), responses, newMemEventProvider(event), nil)
	seedWaitlist(t, responses, event.ID, 1, 2, 3)
	responses.failUpdateFor[2] = true
	ctx := context.Background()

	promoted, err := waitlist.Promote(ctx, event.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, promoted)

	stuck, err := responses.Get(ctx, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseStatusWaitlisted, stuck.Status)
}

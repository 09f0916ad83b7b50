package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"heirloom/internal/notify"
	notifymocks "heirloom/mocks/notify"
	id "heirloom/pkg/domain"
)

func TestDispatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := id.NewUserID()

	t.Run("nil sink is a no-op", func(t *testing.T) {
		notify.Dispatch(context.Background(), logger, nil, userID, notify.KindAutoUnlocked, nil)
	})

	t.Run("forwards the notification to the sink", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sink := notifymocks.NewMockSink(ctrl)

		var sent notify.Notification
		sink.EXPECT().
			Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n notify.Notification) error {
				sent = n
				return nil
			})

		notify.Dispatch(context.Background(), logger, sink, userID, notify.KindUnlockApproved, map[string]any{
			"record_id": "r-1",
		})

		assert.Equal(t, userID, sent.UserID)
		assert.Equal(t, notify.KindUnlockApproved, sent.Kind)
		assert.Equal(t, "r-1", sent.Payload["record_id"])
		assert.False(t, sent.CreatedAt.IsZero())
	})

	t.Run("swallows sink failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sink := notifymocks.NewMockSink(ctrl)
		sink.EXPECT().
			Send(gomock.Any(), gomock.Any()).
			Return(errors.New("broker down"))

		// Must not panic or propagate; the caller already committed.
		notify.Dispatch(context.Background(), logger, sink, userID, notify.KindVoteRecorded, nil)
	})
}

func TestMemorySink(t *testing.T) {
	sink := notify.NewMemorySink()
	userA := id.NewUserID()
	userB := id.NewUserID()

	notify.Dispatch(context.Background(), nil, sink, userA, notify.KindVerificationRequested, nil)
	notify.Dispatch(context.Background(), nil, sink, userA, notify.KindVerificationRequested, nil)
	notify.Dispatch(context.Background(), nil, sink, userA, notify.KindVerificationApproved, nil)
	notify.Dispatch(context.Background(), nil, sink, userB, notify.KindVerificationDenied, nil)

	assert.Len(t, sink.Sent(), 4)
	assert.Len(t, sink.SentTo(userA, notify.KindVerificationRequested), 2)
	assert.Empty(t, sink.SentTo(userB, notify.KindVerificationRequested))
	assert.Len(t, sink.SentTo(userB, notify.KindVerificationDenied), 1)
}

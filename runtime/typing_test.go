package runtime

import (
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTypingTracker_RepeatedSignalsDeliverOneEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockIPublisher(ctrl)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.Typing{From: "alice"}).
		Return(true).
		Times(1)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.StopTyping{From: "alice"}).
		Return(true).
		Times(1)

	tracker := NewTypingTracker(slog.Default(), publisher, time.Minute)
	ctx := context.Background()

	// Continuous keystrokes only reset the clock
	tracker.Typing(ctx, "alice", "bob")
	tracker.Typing(ctx, "alice", "bob")
	tracker.Typing(ctx, "alice", "bob")

	tracker.StopTyping(ctx, "alice", "bob")
}

func TestTypingTracker_StopOnIdlePairIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No DeliverTo expected at all
	publisher := mocks.NewMockIPublisher(ctrl)

	tracker := NewTypingTracker(slog.Default(), publisher, time.Minute)
	tracker.StopTyping(context.Background(), "alice", "bob")
}

func TestTypingTracker_SessionExpiresAfterTTL(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ttl := 50 * time.Millisecond
	expired := make(chan time.Time, 1)

	publisher := mocks.NewMockIPublisher(ctrl)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.Typing{From: "alice"}).
		Return(true).
		Times(1)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.StopTyping{From: "alice"}).
		DoAndReturn(func(context.Context, string, event.Event) bool {
			expired <- time.Now()
			return true
		}).
		Times(1)

	tracker := NewTypingTracker(slog.Default(), publisher, ttl)

	start := time.Now()
	tracker.Typing(context.Background(), "alice", "bob")

	select {
	case at := <-expired:
		req.GreaterOrEqual(at.Sub(start), ttl)
	case <-time.After(2 * time.Second):
		req.Fail("typing session never expired")
	}

	// A stop after expiry must be a no-op (pair already IDLE)
	tracker.StopTyping(context.Background(), "alice", "bob")
}

func TestTypingTracker_RefreshRestartsTheClock(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ttl := 100 * time.Millisecond
	expired := make(chan time.Time, 1)

	publisher := mocks.NewMockIPublisher(ctrl)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.Typing{From: "alice"}).
		Return(true).
		Times(1)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.StopTyping{From: "alice"}).
		DoAndReturn(func(context.Context, string, event.Event) bool {
			expired <- time.Now()
			return true
		}).
		Times(1)

	tracker := NewTypingTracker(slog.Default(), publisher, ttl)
	ctx := context.Background()

	tracker.Typing(ctx, "alice", "bob")
	time.Sleep(60 * time.Millisecond)
	refreshedAt := time.Now()
	tracker.Typing(ctx, "alice", "bob")

	select {
	case at := <-expired:
		// The stop must be measured from the second signal, not the first
		req.GreaterOrEqual(at.Sub(refreshedAt), ttl)
	case <-time.After(2 * time.Second):
		req.Fail("typing session never expired")
	}
}

func TestTypingTracker_PairsAreIndependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mocks.NewMockIPublisher(ctrl)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.Typing{From: "alice"}).
		Return(true).
		Times(1)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "alice", event.Typing{From: "bob"}).
		Return(true).
		Times(1)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "bob", event.StopTyping{From: "alice"}).
		Return(true).
		Times(1)
	publisher.EXPECT().
		DeliverTo(gomock.Any(), "alice", event.StopTyping{From: "bob"}).
		Return(true).
		Times(1)

	tracker := NewTypingTracker(slog.Default(), publisher, time.Minute)
	ctx := context.Background()

	// Both directions of the same conversation are separate sessions
	tracker.Typing(ctx, "alice", "bob")
	tracker.Typing(ctx, "bob", "alice")
	tracker.StopTyping(ctx, "alice", "bob")
	tracker.StopTyping(ctx, "bob", "alice")
}

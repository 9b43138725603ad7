package workers

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestIndexerWorker_DrainsTheQueue(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	index := mocks.NewMockISearchIndex(ctrl)
	indexed := make(chan string, 2)
	index.EXPECT().
		Index(gomock.Any()).
		DoAndReturn(func(msg domain.Message) error {
			indexed <- msg.ID
			return nil
		}).
		Times(2)

	queue := make(chan domain.Message, 2)
	worker := NewIndexerWorker(slog.Default(), index, queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	queue <- domain.Message{ID: "m1", Text: "first"}
	queue <- domain.Message{ID: "m2", Text: "second"}

	req.Equal("m1", <-indexed)
	req.Equal("m2", <-indexed)

	cancel()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("indexer did not stop on cancel")
	}
}

func TestIndexerWorker_IndexFailureIsNotFatal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	index := mocks.NewMockISearchIndex(ctrl)
	gomock.InOrder(
		index.EXPECT().Index(gomock.Any()).Return(errors.New("index corrupted")),
		index.EXPECT().Index(gomock.Any()).Return(nil),
	)

	queue := make(chan domain.Message, 2)
	queue <- domain.Message{ID: "m1", Text: "fails"}
	queue <- domain.Message{ID: "m2", Text: "succeeds"}
	close(queue)

	worker := NewIndexerWorker(slog.Default(), index, queue)

	// A closed and drained queue ends the worker cleanly
	req.NoError(worker.Run(context.Background()))
}

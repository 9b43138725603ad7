package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
)

// IndexerWorker feeds persisted messages into the search index off the
// send path. Indexing lag is acceptable; losing an index entry only
// degrades search, never delivery.
type IndexerWorker struct {
	log   *slog.Logger
	index contract.ISearchIndex
	queue <-chan domain.Message
}

func NewIndexerWorker(log *slog.Logger, index contract.ISearchIndex, queue <-chan domain.Message) *IndexerWorker {
	return &IndexerWorker{log: log, index: index, queue: queue}
}

func (w *IndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping indexer")
			return nil
		case message, ok := <-w.queue:
			if !ok {
				return nil
			}
			if err := w.index.Index(message); err != nil {
				w.log.Error("indexing message failed", "message_id", message.ID, "error", err)
			}
		}
	}
}

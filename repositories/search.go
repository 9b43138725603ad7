package repositories

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"

	"chat-relay/domain"
)

// SearchIndex maintains a Bluge full-text index over message bodies.
// Each document carries both participant ids as keyword fields so a
// query can be scoped to conversations the caller takes part in.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index adds or replaces the document for msg. Image-only messages
// have no searchable body and are skipped.
func (s *SearchIndex) Index(msg domain.Message) error {
	if msg.Text == "" {
		return nil
	}
	doc := bluge.NewDocument(msg.ID).
		AddField(bluge.NewTextField("text", msg.Text)).
		AddField(bluge.NewKeywordField("participant", msg.SenderID)).
		AddField(bluge.NewKeywordField("participant", msg.ReceiverID))
	return s.writer.Update(doc.ID(), doc)
}

// Remove drops the document for a deleted message.
func (s *SearchIndex) Remove(id string) error {
	return s.writer.Delete(bluge.Identifier(id))
}

// Search returns the ids of messages matching query in any
// conversation userID participates in, best match first.
func (s *SearchIndex) Search(ctx context.Context, userID, query string, limit int) ([]string, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("closing bluge reader failed", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(userID).SetField("participant"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			return ids, nil
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
}

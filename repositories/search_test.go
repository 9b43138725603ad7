package repositories

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, slog.Default())
}

func TestSearchIndex_ScopedToParticipants(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	ctx := context.Background()

	req.NoError(index.Index(domain.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "the weather is lovely",
	}))
	req.NoError(index.Index(domain.Message{
		ID: "m2", SenderID: "clara", ReceiverID: "dave", Text: "lovely indeed",
	}))

	// Either side of the conversation can find its own messages
	for _, userID := range []string{"alice", "bob"} {
		ids, err := index.Search(ctx, userID, "lovely", 10)
		req.NoError(err)
		req.Equal([]string{"m1"}, ids)
	}

	// An outsider's query never crosses conversations
	ids, err := index.Search(ctx, "clara", "lovely", 10)
	req.NoError(err)
	req.Equal([]string{"m2"}, ids)

	ids, err = index.Search(ctx, "eve", "lovely", 10)
	req.NoError(err)
	req.Empty(ids)
}

func TestSearchIndex_RemoveDropsTheDocument(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	ctx := context.Background()

	req.NoError(index.Index(domain.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "delete me later",
	}))

	ids, err := index.Search(ctx, "alice", "delete", 10)
	req.NoError(err)
	req.Len(ids, 1)

	req.NoError(index.Remove("m1"))

	ids, err = index.Search(ctx, "alice", "delete", 10)
	req.NoError(err)
	req.Empty(ids)
}

func TestSearchIndex_ImageOnlyMessagesAreSkipped(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(domain.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob", ImageRef: "/uploads/cat.png",
	}))

	ids, err := index.Search(context.Background(), "alice", "cat", 10)
	req.NoError(err)
	req.Empty(ids)
}

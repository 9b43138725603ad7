package repositories

import (
	relayerrors "chat-relay/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func TestUserDirectory_UpsertAndResolve(t *testing.T) {
	req := require.New(t)
	directory := NewUserDirectory(openTestDB(t))

	profile := domain.Profile{
		ID:          "alice",
		DisplayName: "Alice",
		AvatarRef:   "/uploads/alice.png",
		CreatedAt:   time.Now().UTC(),
	}
	req.NoError(directory.Upsert(profile))

	resolved, err := directory.Resolve("alice")
	req.NoError(err)
	req.Equal(profile, resolved)

	// Replacing keeps the same key
	profile.DisplayName = "Alice B."
	req.NoError(directory.Upsert(profile))
	resolved, err = directory.Resolve("alice")
	req.NoError(err)
	req.Equal("Alice B.", resolved.DisplayName)
}

func TestUserDirectory_ResolveUnknown(t *testing.T) {
	req := require.New(t)
	directory := NewUserDirectory(openTestDB(t))

	_, err := directory.Resolve("nobody")
	req.ErrorIs(err, relayerrors.ErrUnknownUser)
}

func TestUserDirectory_List(t *testing.T) {
	req := require.New(t)
	directory := NewUserDirectory(openTestDB(t))

	for _, id := range []string{"alice", "bob", "clara"} {
		req.NoError(directory.Upsert(domain.Profile{ID: id, DisplayName: id}))
	}

	profiles, err := directory.List()
	req.NoError(err)
	req.Len(profiles, 3)

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	req.ElementsMatch([]string{"alice", "bob", "clara"}, ids)
}

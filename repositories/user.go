package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/domain"
	relayerrors "chat-relay/errors"
)

// UserDirectory stores display profiles under "user:{id}". It is the
// read side of the externally owned account system: the relay resolves
// ids to display attributes here and never touches credentials.
type UserDirectory struct {
	db *badger.DB
}

func NewUserDirectory(db *badger.DB) UserDirectory {
	return UserDirectory{db: db}
}

type diskProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

func userKey(id string) []byte {
	return fmt.Appendf(nil, "user:%s", id)
}

// Upsert writes or replaces a profile. Used by the seeding path and by
// whatever account system sits in front of the relay.
func (u UserDirectory) Upsert(profile domain.Profile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(diskProfile{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		AvatarRef:   profile.AvatarRef,
		CreatedAt:   profile.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(profile.ID), data)
	})
}

// Resolve returns the profile for userID or ErrUnknownUser.
func (u UserDirectory) Resolve(userID string) (domain.Profile, error) {
	var disk diskProfile
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Profile{}, relayerrors.ErrUnknownUser
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return toProfile(disk), nil
}

// List returns every known profile via a prefix scan.
func (u UserDirectory) List() ([]domain.Profile, error) {
	prefix := []byte("user:")
	var profiles []domain.Profile

	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
			if err != nil {
				return err
			}
			profiles = append(profiles, toProfile(disk))
		}
		return nil
	})
	return profiles, err
}

func toProfile(disk diskProfile) domain.Profile {
	return domain.Profile{
		ID:          disk.ID,
		DisplayName: disk.DisplayName,
		AvatarRef:   disk.AvatarRef,
		CreatedAt:   time.Unix(0, disk.CreatedAt).UTC(),
	}
}

package services

import (
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/moderation"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type serviceMocks struct {
	store     *mocks.MockIMessageStore
	directory *mocks.MockIUserDirectory
	publisher *mocks.MockIPublisher
	search    *mocks.MockISearchIndex
}

func newService(ctrl *gomock.Controller, indexQueue chan<- domain.Message) (*MessageService, serviceMocks) {
	m := serviceMocks{
		store:     mocks.NewMockIMessageStore(ctrl),
		directory: mocks.NewMockIUserDirectory(ctrl),
		publisher: mocks.NewMockIPublisher(ctrl),
		search:    mocks.NewMockISearchIndex(ctrl),
	}
	service := NewMessageService(slog.Default(), m.store, m.directory, m.publisher, m.search, nil, indexQueue)
	return service, m
}

func TestSend_PersistsPublishesAndQueuesForIndexing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	indexQueue := make(chan domain.Message, 1)
	service, m := newService(ctrl, indexQueue)

	stored := domain.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob",
		Text: "hello", CreatedAt: time.Now().UTC(),
	}
	m.store.EXPECT().
		Create(domain.Draft{SenderID: "alice", ReceiverID: "bob", Text: "hello"}).
		Return(stored, nil)
	m.publisher.EXPECT().
		PublishNewMessage(gomock.Any(), domain.Enriched{Message: stored})

	enriched, err := service.Send(context.Background(), domain.SendCommand{
		SenderID: "alice", ReceiverID: "bob", Text: "hello",
	})
	req.NoError(err)
	req.Equal(stored, enriched.Message)
	req.Nil(enriched.ForwardOrigin)

	select {
	case queued := <-indexQueue:
		req.Equal(stored, queued)
	default:
		req.Fail("message was not queued for indexing")
	}
}

func TestSend_EmptyDraftIsRejectedBeforeTheStore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, _ := newService(ctrl, nil)

	_, err := service.Send(context.Background(), domain.SendCommand{
		SenderID: "alice", ReceiverID: "bob",
	})
	req.ErrorIs(err, relayerrors.ErrEmptyMessage)
}

func TestSend_SelfConversationIsRejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, _ := newService(ctrl, nil)

	_, err := service.Send(context.Background(), domain.SendCommand{
		SenderID: "alice", ReceiverID: "alice", Text: "note to self",
	})
	req.ErrorIs(err, relayerrors.ErrSelfConversation)
}

func TestForward_CarriesContentAndOrigin(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	original := domain.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "original text",
	}
	m.store.EXPECT().FindByID("m1").Return(original, nil)

	forwarded := domain.Message{
		ID: "m2", SenderID: "bob", ReceiverID: "clara",
		Text: "original text", Forwarded: true, ForwardedFrom: "alice",
	}
	m.store.EXPECT().
		Create(domain.Draft{
			SenderID: "bob", ReceiverID: "clara", Text: "original text",
			Forwarded: true, ForwardedFrom: "alice",
		}).
		Return(forwarded, nil)
	m.directory.EXPECT().
		Resolve("alice").
		Return(domain.Profile{ID: "alice", DisplayName: "Alice", AvatarRef: "a.png"}, nil)
	m.publisher.EXPECT().PublishNewMessage(gomock.Any(), gomock.Any())

	enriched, err := service.Forward(context.Background(), domain.ForwardCommand{
		ActingUserID: "bob", MessageID: "m1", ReceiverID: "clara",
	})
	req.NoError(err)
	req.True(enriched.Forwarded)
	req.Equal("alice", enriched.ForwardedFrom)
	req.NotNil(enriched.ForwardOrigin)
	req.Equal("Alice", enriched.ForwardOrigin.DisplayName)
}

func TestForward_UnknownOriginDegradesToBareID(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	original := domain.Message{ID: "m1", SenderID: "ghost", ReceiverID: "bob", Text: "hi"}
	m.store.EXPECT().FindByID("m1").Return(original, nil)
	m.store.EXPECT().Create(gomock.Any()).Return(domain.Message{
		ID: "m2", SenderID: "bob", ReceiverID: "clara",
		Text: "hi", Forwarded: true, ForwardedFrom: "ghost",
	}, nil)
	m.directory.EXPECT().
		Resolve("ghost").
		Return(domain.Profile{}, relayerrors.ErrUnknownUser)
	m.publisher.EXPECT().PublishNewMessage(gomock.Any(), gomock.Any())

	enriched, err := service.Forward(context.Background(), domain.ForwardCommand{
		ActingUserID: "bob", MessageID: "m1", ReceiverID: "clara",
	})
	req.NoError(err)
	req.NotNil(enriched.ForwardOrigin)
	req.Equal("ghost", enriched.ForwardOrigin.ID)
	req.Empty(enriched.ForwardOrigin.DisplayName)
}

func TestDelete_OnlyTheSenderMayDelete(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	m.store.EXPECT().
		FindByID("m1").
		Return(domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"}, nil)

	// No DeleteByID, no index removal, zero fan-out events
	err := service.Delete(context.Background(), "m1", "mallory")
	req.ErrorIs(err, relayerrors.ErrUnauthorized)
}

func TestDelete_PropagatesToReceiverAndIndex(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	m.store.EXPECT().
		FindByID("m1").
		Return(domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"}, nil)
	m.store.EXPECT().DeleteByID("m1").Return(nil)
	m.search.EXPECT().Remove("m1").Return(nil)
	m.publisher.EXPECT().PublishDeletion(gomock.Any(), "m1", "bob", "alice")

	req.NoError(service.Delete(context.Background(), "m1", "alice"))
}

func TestDelete_UnknownMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	m.store.EXPECT().FindByID("nope").Return(domain.Message{}, relayerrors.ErrNotFound)

	err := service.Delete(context.Background(), "nope", "alice")
	req.ErrorIs(err, relayerrors.ErrNotFound)
}

func TestSearch_SkipsIdsTheStoreAlreadyDeleted(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	m.search.EXPECT().
		Search(gomock.Any(), "alice", "hello", searchLimit).
		Return([]string{"m1", "m2"}, nil)
	m.store.EXPECT().
		FindByID("m1").
		Return(domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hello"}, nil)
	m.store.EXPECT().FindByID("m2").Return(domain.Message{}, relayerrors.ErrNotFound)

	results, err := service.Search(context.Background(), "alice", "hello")
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("m1", results[0].ID)
}

func TestSidebar_ExcludesTheViewer(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, m := newService(ctrl, nil)

	lastAt := time.Now().UTC()
	m.directory.EXPECT().List().Return([]domain.Profile{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
		{ID: "clara", DisplayName: "Clara"},
	}, nil)
	m.store.EXPECT().LastMessageAt("alice", "bob").Return(&lastAt, nil)
	m.store.EXPECT().LastMessageAt("alice", "clara").Return(nil, nil)

	entries, err := service.Sidebar(context.Background(), "alice")
	req.NoError(err)
	req.Len(entries, 2)
	req.Equal("bob", entries[0].ID)
	req.Equal(lastAt, *entries[0].LastMessageAt)
	req.Equal("clara", entries[1].ID)
	req.Nil(entries[1].LastMessageAt)
}

func TestSend_TextIsCensoredBeforePersistence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	moderator, err := moderation.NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	store := mocks.NewMockIMessageStore(ctrl)
	publisher := mocks.NewMockIPublisher(ctrl)
	service := NewMessageService(slog.Default(), store,
		mocks.NewMockIUserDirectory(ctrl), publisher,
		mocks.NewMockISearchIndex(ctrl), moderator, nil)

	// The stored draft already carries the sanitized text, so every
	// delivery path agrees with the persisted copy.
	store.EXPECT().
		Create(domain.Draft{SenderID: "alice", ReceiverID: "bob", Text: "this is *******"}).
		Return(domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "this is *******"}, nil)
	publisher.EXPECT().PublishNewMessage(gomock.Any(), gomock.Any())

	enriched, err := service.Send(context.Background(), domain.SendCommand{
		SenderID: "alice", ReceiverID: "bob", Text: "this is badword",
	})
	req.NoError(err)
	req.Equal("this is *******", enriched.Text)
}

func TestCanDelete(t *testing.T) {
	req := require.New(t)
	msg := domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"}

	req.True(CanDelete(msg, "alice"))
	req.False(CanDelete(msg, "bob"))
	req.False(CanDelete(msg, "mallory"))
}

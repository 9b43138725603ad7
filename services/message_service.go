//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"errors"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"chat-relay/moderation"
)

const searchLimit = 50

type IMessageService interface {
	Send(ctx context.Context, cmd domain.SendCommand) (domain.Enriched, error)
	Forward(ctx context.Context, cmd domain.ForwardCommand) (domain.Enriched, error)
	Delete(ctx context.Context, messageID, actingUserID string) error
	Conversation(ctx context.Context, viewerID, peerID string) ([]domain.Enriched, error)
	Sidebar(ctx context.Context, viewerID string) ([]domain.SidebarEntry, error)
	Search(ctx context.Context, viewerID, query string) ([]domain.Enriched, error)
}

// MessageService coordinates a message's path from intent to fan-out:
// moderation, validation, persistence, enrichment, delivery. It owns
// no connection state; routing is entirely the publisher's concern.
type MessageService struct {
	log        *slog.Logger
	store      contract.IMessageStore
	directory  contract.IUserDirectory
	publisher  contract.IPublisher
	search     contract.ISearchIndex
	moderator  *moderation.Moderator
	indexQueue chan<- domain.Message
}

// NewMessageService wires the service. moderator may be nil to disable
// censoring; indexQueue may be nil to disable search indexing.
func NewMessageService(log *slog.Logger, store contract.IMessageStore,
	directory contract.IUserDirectory, publisher contract.IPublisher,
	search contract.ISearchIndex, moderator *moderation.Moderator,
	indexQueue chan<- domain.Message) *MessageService {
	return &MessageService{
		log:        log,
		store:      store,
		directory:  directory,
		publisher:  publisher,
		search:     search,
		moderator:  moderator,
		indexQueue: indexQueue,
	}
}

// CanDelete is the deletion authorization predicate: only the sender
// may delete a message. Pure, no side effects.
func CanDelete(msg domain.Message, actingUserID string) bool {
	return msg.SenderID == actingUserID
}

// Send persists a new message and fans it out to both participants.
// The text is censored before persistence so the stored copy and every
// delivered copy agree.
func (s *MessageService) Send(ctx context.Context, cmd domain.SendCommand) (domain.Enriched, error) {
	draft := domain.Draft{
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Text:       s.censor(cmd.Text),
		ImageRef:   cmd.ImageRef,
		ReplyTo:    cmd.ReplyTo,
	}
	return s.create(ctx, draft)
}

// Forward reads the original message and re-sends its content as a new
// message marked forwarded, carrying a live reference to the original
// sender. The delivery path is identical to an ordinary send.
func (s *MessageService) Forward(ctx context.Context, cmd domain.ForwardCommand) (domain.Enriched, error) {
	original, err := s.store.FindByID(cmd.MessageID)
	if err != nil {
		return domain.Enriched{}, err
	}

	draft := domain.Draft{
		SenderID:      cmd.ActingUserID,
		ReceiverID:    cmd.ReceiverID,
		Text:          original.Text,
		ImageRef:      original.ImageRef,
		Forwarded:     true,
		ForwardedFrom: original.SenderID,
	}
	return s.create(ctx, draft)
}

func (s *MessageService) create(ctx context.Context, draft domain.Draft) (domain.Enriched, error) {
	if err := draft.Validate(); err != nil {
		return domain.Enriched{}, err
	}

	message, err := s.store.Create(draft)
	if err != nil {
		return domain.Enriched{}, err
	}

	enriched := s.enrich(message)
	s.publisher.PublishNewMessage(ctx, enriched)
	s.queueForIndex(message)
	return enriched, nil
}

// Delete authorizes, removes, and propagates the removal. An
// unauthorized or unknown message produces zero fan-out events.
func (s *MessageService) Delete(ctx context.Context, messageID, actingUserID string) error {
	message, err := s.store.FindByID(messageID)
	if err != nil {
		return err
	}
	if !CanDelete(message, actingUserID) {
		return relayerrors.ErrUnauthorized
	}
	if err := s.store.DeleteByID(messageID); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.Remove(messageID); err != nil {
			s.log.Warn("removing message from search index failed",
				"message_id", messageID, "error", err)
		}
	}
	s.publisher.PublishDeletion(ctx, messageID, message.ReceiverID, actingUserID)
	return nil
}

// Conversation returns the enriched history between viewer and peer in
// chronological order.
func (s *MessageService) Conversation(_ context.Context, viewerID, peerID string) ([]domain.Enriched, error) {
	messages, err := s.store.FindConversation(viewerID, peerID)
	if err != nil {
		return nil, err
	}
	enriched := make([]domain.Enriched, 0, len(messages))
	for _, message := range messages {
		enriched = append(enriched, s.enrich(message))
	}
	return enriched, nil
}

// Sidebar lists every other user with the timestamp of the last
// message exchanged with the viewer, nil when no conversation exists.
func (s *MessageService) Sidebar(_ context.Context, viewerID string) ([]domain.SidebarEntry, error) {
	profiles, err := s.directory.List()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SidebarEntry, 0, len(profiles))
	for _, profile := range profiles {
		if profile.ID == viewerID {
			continue
		}
		last, err := s.store.LastMessageAt(viewerID, profile.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.SidebarEntry{Profile: profile, LastMessageAt: last})
	}
	return entries, nil
}

// Search resolves matching message ids against the store. Ids the
// index still knows but the store already deleted are skipped.
func (s *MessageService) Search(ctx context.Context, viewerID, query string) ([]domain.Enriched, error) {
	ids, err := s.search.Search(ctx, viewerID, query, searchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]domain.Enriched, 0, len(ids))
	for _, id := range ids {
		message, err := s.store.FindByID(id)
		if errors.Is(err, relayerrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, s.enrich(message))
	}
	return results, nil
}

// enrich produces the delivery-ready representation: the forward
// origin is resolved to display attributes, the reply snapshot is
// copied verbatim. An origin the directory no longer knows degrades to
// the bare id instead of failing the whole message.
func (s *MessageService) enrich(message domain.Message) domain.Enriched {
	enriched := domain.Enriched{Message: message}
	if message.ForwardedFrom == "" {
		return enriched
	}

	profile, err := s.directory.Resolve(message.ForwardedFrom)
	if err != nil {
		s.log.Debug("forward origin not resolvable", "user_id", message.ForwardedFrom, "error", err)
		enriched.ForwardOrigin = &domain.ForwardOrigin{ID: message.ForwardedFrom}
		return enriched
	}
	enriched.ForwardOrigin = &domain.ForwardOrigin{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		AvatarRef:   profile.AvatarRef,
	}
	return enriched
}

func (s *MessageService) censor(text string) string {
	if s.moderator == nil || text == "" {
		return text
	}
	result := s.moderator.Review(text)
	if result.Censored {
		s.log.Debug("censored message text", "lang", result.Lang)
	}
	return result.Text
}

// queueForIndex hands the message to the indexer worker without ever
// blocking the send path.
func (s *MessageService) queueForIndex(message domain.Message) {
	if s.indexQueue == nil {
		return
	}
	select {
	case s.indexQueue <- message:
	default:
		s.log.Warn("index queue full, message not indexed", "message_id", message.ID)
	}
}

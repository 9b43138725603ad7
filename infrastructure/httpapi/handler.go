// Package httpapi exposes the message operations over HTTP. It is a
// thin layer: identity comes from the token, everything else is
// delegated to the message service and the object store.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"
)

type Handler struct {
	log       *slog.Logger
	service   services.IMessageService
	objects   contract.IObjectStore
	directory contract.IUserDirectory
	stats     *observability.DeliveryStats
	validate  *validator.Validate
}

func NewHandler(log *slog.Logger, service services.IMessageService,
	objects contract.IObjectStore, directory contract.IUserDirectory,
	stats *observability.DeliveryStats) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		objects:   objects,
		directory: directory,
		stats:     stats,
		validate:  validator.New(),
	}
}

// Routes mounts the API. Order matters: the more specific routes come
// before the catch-all conversation route.
func (h *Handler) Routes(tokens auth.Tokens, uploadsDir string) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.health)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(RequireAuth(tokens))
		r.Get("/users", h.sidebar)
		r.Get("/search", h.search)
		r.Post("/send/{id}", h.send)
		r.Post("/forward", h.forward)
		r.Delete("/{id}", h.deleteMessage)
		r.Get("/{id}", h.conversation)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(tokens))
		r.Post("/api/uploads", h.upload)
		r.Put("/api/users/me", h.updateProfile)
	})

	return r
}

// maxUploadBytes bounds a single raw upload body.
const maxUploadBytes = 10 << 20

type sendRequest struct {
	Text    string                `json:"text"`
	Image   string                `json:"image"` // base64-encoded upload, optional
	ReplyTo *domain.ReplySnapshot `json:"replyTo"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	var imageRef string
	if req.Image != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			http.Error(w, "image must be base64 encoded", http.StatusBadRequest)
			return
		}
		if imageRef, err = h.objects.Put(raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	message, err := h.service.Send(r.Context(), domain.SendCommand{
		SenderID:   callerID(r.Context()),
		ReceiverID: chi.URLParam(r, "id"),
		Text:       req.Text,
		ImageRef:   imageRef,
		ReplyTo:    req.ReplyTo,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, message)
}

type forwardRequest struct {
	MessageID  string `json:"messageId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	var req forwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := h.service.Forward(r.Context(), domain.ForwardCommand{
		ActingUserID: callerID(r.Context()),
		MessageID:    req.MessageID,
		ReceiverID:   req.ReceiverID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, message)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), callerID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"messageId": chi.URLParam(r, "id")})
}

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.Conversation(r.Context(), callerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) sidebar(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Sidebar(r.Context(), callerID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	results, err := h.service.Search(r.Context(), callerID(r.Context()), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// upload stores a raw image body ahead of a send, so clients can attach
// the returned reference instead of inlining the bytes.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "reading upload failed", http.StatusBadRequest)
		return
	}

	ref, err := h.objects.Put(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"imageRef": ref})
}

type profileRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
	Avatar      string `json:"avatar"` // base64-encoded image, optional
}

// updateProfile writes the caller's display attributes. The id always
// comes from the token; a creation timestamp set on first write is
// preserved on later updates.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile := domain.Profile{
		ID:          callerID(r.Context()),
		DisplayName: req.DisplayName,
	}
	if existing, err := h.directory.Resolve(profile.ID); err == nil {
		profile.CreatedAt = existing.CreatedAt
		profile.AvatarRef = existing.AvatarRef
	}

	if req.Avatar != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Avatar)
		if err != nil {
			http.Error(w, "avatar must be base64 encoded", http.StatusBadRequest)
			return
		}
		ref, err := h.objects.Put(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		profile.AvatarRef = ref
	}

	if err := h.directory.Upsert(profile); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

// writeError maps the service error taxonomy onto HTTP status codes.
// Anything unmapped is a store-layer failure and surfaces as a 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relayerrors.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, relayerrors.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, relayerrors.ErrEmptyMessage),
		errors.Is(err, relayerrors.ErrSelfConversation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("writing response failed", "error", err)
	}
}

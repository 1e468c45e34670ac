package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/sous/internal/config"
	"github.com/scrypster/sous/internal/dispatch"
	"github.com/scrypster/sous/internal/metrics"
	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/internal/turns"
	"github.com/scrypster/sous/internal/whatsapp"
	"github.com/scrypster/sous/pkg/types"
)

// TurnHandler processes one classified message turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, user *types.User, message string) (string, error)
	HandleImageTurn(ctx context.Context, user *types.User, imageData []byte) (string, error)
}

// ReplySender delivers outbound messages and fetches inbound media.
type ReplySender interface {
	SendText(ctx context.Context, toNumber, body string) (string, error)
	FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// WebhookHandler receives Twilio WhatsApp webhook deliveries, serializes
// turns per user and drives the dispatch pipeline.
type WebhookHandler struct {
	dispatcher TurnHandler
	sender     ReplySender
	store      storage.UserStore
	registry   *turns.Registry
	metrics    *metrics.Collector
	hub        *WebSocketHub // optional; nil disables activity events
	cfg        *config.Config

	now func() time.Time
}

// NewWebhookHandler wires a webhook handler.
func NewWebhookHandler(
	dispatcher TurnHandler,
	sender ReplySender,
	store storage.UserStore,
	registry *turns.Registry,
	collector *metrics.Collector,
	hub *WebSocketHub,
	cfg *config.Config,
) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		sender:     sender,
		store:      store,
		registry:   registry,
		metrics:    collector,
		hub:        hub,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ServeHTTP handles POST /whatsapp. The webhook always answers Twilio with a
// small JSON body; the real reply to the user goes out through the Messages
// API.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	if !h.validSignature(r) {
		http.Error(w, "Invalid Twilio signature", http.StatusForbidden)
		return
	}

	msg := whatsapp.ParseWebhook(r.PostForm)
	if msg.From == "" {
		http.Error(w, "Missing sender", http.StatusBadRequest)
		return
	}

	// One in-flight turn per sender. A second message while the first is
	// still processing gets a busy reply and is otherwise dropped; Twilio
	// still receives a 200 so it does not retry.
	release, ok := h.registry.Acquire(msg.From)
	if !ok {
		h.metrics.BusyRejection()
		h.broadcast(TurnEvent{Type: "busy_rejection", UserID: msg.From, Timestamp: h.now().UTC()})
		if _, err := h.sender.SendText(r.Context(), msg.From, dispatch.MsgBusy); err != nil {
			log.Printf("webhook: failed to send busy reply to %s: %v", msg.From, err)
		}
		writeJSON(w, http.StatusOK, `{"status":"busy"}`)
		return
	}
	defer release()

	if err := h.processTurn(r.Context(), msg); err != nil {
		log.Printf("webhook: turn failed for %s: %v", msg.From, err)
		if _, sendErr := h.sender.SendText(r.Context(), msg.From, dispatch.MsgGenericFailure); sendErr != nil {
			log.Printf("webhook: failed to send error reply to %s: %v", msg.From, sendErr)
		}
		writeJSON(w, http.StatusInternalServerError, `{"status":"error"}`)
		return
	}

	writeJSON(w, http.StatusOK, `{"status":"success"}`)
}

func (h *WebhookHandler) processTurn(ctx context.Context, msg whatsapp.IncomingMessage) error {
	user, err := h.getOrCreateUser(ctx, msg.From)
	if err != nil {
		return err
	}

	var reply string
	kind := "text"
	switch msg.Type {
	case whatsapp.MessageTypeImage:
		kind = "image"
		image, _, err := h.sender.FetchMedia(ctx, msg.MediaURL)
		if err != nil {
			return err
		}
		reply, err = h.dispatcher.HandleImageTurn(ctx, user, image)
		if err != nil {
			return err
		}
	default:
		reply, err = h.dispatcher.HandleTurn(ctx, user, msg.Body)
		if err != nil {
			return err
		}
	}

	if _, err := h.sender.SendText(ctx, user.PhoneNumber, reply); err != nil {
		return err
	}

	h.broadcast(TurnEvent{Type: "turn", UserID: user.UserID, Kind: kind, Timestamp: h.now().UTC()})
	return nil
}

// getOrCreateUser loads the sender's document, creating it on first contact.
// A concurrent insert of the same phone number loses the race cleanly: the
// duplicate error triggers a re-read.
func (h *WebhookHandler) getOrCreateUser(ctx context.Context, phoneNumber string) (*types.User, error) {
	user, err := h.store.FindByPhone(ctx, phoneNumber)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = types.NewUser(phoneNumber, h.now())
	if err := h.store.Insert(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicatePhone) {
			return h.store.FindByPhone(ctx, phoneNumber)
		}
		return nil, err
	}
	log.Printf("webhook: created user %s", user.UserID)
	return user, nil
}

// validSignature checks X-Twilio-Signature. Development mode skips the check
// so the pipeline can be exercised locally.
func (h *WebhookHandler) validSignature(r *http.Request) bool {
	if h.cfg.Security.SecurityMode == "development" {
		return true
	}

	requestURL := h.cfg.Twilio.PublicURL
	if requestURL == "" {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		requestURL = scheme + "://" + r.Host
	} else {
		requestURL = trimTrailingSlash(requestURL)
	}
	requestURL += r.URL.RequestURI()

	return whatsapp.ValidateSignature(
		h.cfg.Twilio.AuthToken,
		requestURL,
		url.Values(r.PostForm),
		r.Header.Get("X-Twilio-Signature"),
	)
}

func (h *WebhookHandler) broadcast(event TurnEvent) {
	if h.hub != nil {
		event.EventID = uuid.New().String()
		h.hub.Broadcast(event)
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

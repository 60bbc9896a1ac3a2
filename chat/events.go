package chat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	maxBodyBytes   = 1 << 20
	maxClockSkew   = 5 * time.Minute
	dedupCacheSize = 4096
)

// EventsHandler serves the Slack Events API.
type EventsHandler struct {
	secret []byte
	sink   Sink
	seen   *lru.Cache[string, struct{}]
	logger *slog.Logger
	now    func() time.Time
}

// EventsOption configures an EventsHandler.
type EventsOption func(*EventsHandler)

// WithEventsLogger sets the logger.
func WithEventsLogger(l *slog.Logger) EventsOption {
	return func(h *EventsHandler) { h.logger = l }
}

// WithEventsClock overrides the clock used for timestamp checks.
func WithEventsClock(now func() time.Time) EventsOption {
	return func(h *EventsHandler) { h.now = now }
}

// NewEventsHandler creates a handler that passes messages to sink. An
// empty signing secret disables signature verification.
func NewEventsHandler(signingSecret string, sink Sink, opts ...EventsOption) (*EventsHandler, error) {
	seen, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		return nil, err
	}
	h := &EventsHandler{
		secret: []byte(signingSecret),
		sink:   sink,
		seen:   seen,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if len(h.secret) == 0 {
		h.logger.Warn("slack signing secret not set; request signatures are not verified")
	}
	return h, nil
}

// Register mounts the endpoint at /slack/events.
func (h *EventsHandler) Register(r gin.IRoutes) {
	r.POST("/slack/events", h.Handle)
}

type envelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	EventID   string `json:"event_id"`
	Event     struct {
		Type     string `json:"type"`
		Subtype  string `json:"subtype"`
		User     string `json:"user"`
		BotID    string `json:"bot_id"`
		Text     string `json:"text"`
		Channel  string `json:"channel"`
		TS       string `json:"ts"`
		ThreadTS string `json:"thread_ts"`
	} `json:"event"`
}

// Handle processes one Events API request.
func (h *EventsHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	if !h.verify(c.Request.Header, body) {
		h.logger.Warn("rejected slack request with bad signature")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	switch env.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": env.Challenge})
		return
	case "event_callback":
		if msg, key, ok := h.toMessage(&env); ok {
			if err := h.sink(c.Request.Context(), msg); err != nil {
				// Slack redelivers on a non-2xx answer; the key stays unseen.
				h.logger.Warn("message not accepted", "thread_id", msg.ThreadID, "error", err)
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
			h.seen.Add(key, struct{}{})
		}
	}
	c.Status(http.StatusOK)
}

// toMessage returns the message carried by env and its dedup key.
func (h *EventsHandler) toMessage(env *envelope) (Message, string, bool) {
	ev := env.Event
	if ev.Type != "message" && ev.Type != "app_mention" {
		return Message{}, "", false
	}
	if ev.BotID != "" || ev.Subtype != "" || ev.User == "" {
		return Message{}, "", false
	}

	// A threaded mention arrives as both message and app_mention.
	key := ev.Channel + "/" + ev.TS
	if _, dup := h.seen.Get(key); dup {
		return Message{}, "", false
	}

	msg := Message{
		ThreadID: ev.ThreadTS,
		Channel:  ev.Channel,
		User:     ev.User,
		Text:     StripMentions(ev.Text),
	}
	if ev.ThreadTS == "" || ev.ThreadTS == ev.TS {
		// Top-level chatter is ignored unless it addresses the bot.
		if ev.Type != "app_mention" {
			return Message{}, "", false
		}
		msg.ThreadID = ev.TS
		msg.Mention = true
	}

	return msg, key, true
}

func (h *EventsHandler) verify(header http.Header, body []byte) bool {
	if len(h.secret) == 0 {
		return true
	}

	ts := header.Get("X-Slack-Request-Timestamp")
	sig := header.Get("X-Slack-Signature")
	if ts == "" || sig == "" {
		return false
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	if skew := h.now().Sub(time.Unix(secs, 0)); skew > maxClockSkew || skew < -maxClockSkew {
		return false
	}

	return hmac.Equal([]byte(sig), []byte(Sign(h.secret, ts, body)))
}

// Sign computes the v0 request signature.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

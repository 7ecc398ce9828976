package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"codequest-service/internal/app"
	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// WSHandler streams achievement events (badges, certificates, streak
// changes) to the authenticated user over a websocket.
type WSHandler struct {
	feed     *app.Feed
	log      *logging.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.Feed, log *logging.Logger) *WSHandler {
	if log == nil {
		log = logging.NewNop()
	}
	return &WSHandler{
		feed: feed,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundEvent struct {
	Type    string                  `json:"type"`
	Payload domain.AchievementEvent `json:"payload"`
}

// ServeWS upgrades the request and forwards feed events until the
// client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe(principal.ID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain reads so close frames are processed; clients send nothing.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundEvent{Type: string(event.Kind), Payload: event}); err != nil {
				h.log.Warn("ws write error", "user", principal.ID, "err", err)
				return
			}
		case <-done:
			return
		}
	}
}

package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/config"
)

// Handler upgrades HTTP requests to order-update websocket sessions.
type Handler struct {
	registry *Registry
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
}

func NewHandler(registry *Registry, cfg config.RealtimeConfig) *Handler {
	return &Handler{
		registry: registry,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("realtime: websocket upgrade failed")
		return
	}

	c := newClient(conn, h.cfg)
	log.Info().Stringer("client_id", c.id).Str("remote_addr", r.RemoteAddr).Msg("realtime: client connected")

	go c.writePump()
	c.readPump(h.registry)

	log.Info().Stringer("client_id", c.id).Msg("realtime: client disconnected")
}

package feed

import (
	"net/http"

	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/logging"
)

// Handler upgrades /v1/feed to a websocket that streams ledger events.
type Handler struct {
	Hub            *events.Hub
	AllowedOrigins []string
}

func NewHandler(hub *events.Hub, allowedOrigins []string) Handler {
	return Handler{Hub: hub, AllowedOrigins: allowedOrigins}
}

func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	logData.AddData("origin", req.Header.Get("Origin"))
	logData.AddData("clients", h.Hub.Clients())
	return events.ServeWS(w, req, h.Hub, h.AllowedOrigins)
}

package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsAdapter "github.com/lorrc/helpdesk/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk/internal/auth"
)

// WebSocketHandler upgrades authenticated connections onto the live query feed
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	tm       *auth.TokenManager
	cfg      WebSocketConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// WebSocketConfig holds configuration for the WebSocket handler
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	IsDevelopment   bool
	Client          wsAdapter.ClientConfig
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg WebSocketConfig,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		tm:     tm,
		cfg:    cfg,
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler
}

// checkOrigin allows same-origin and non-browser clients, configured origins,
// and any origin in development. Entries like "*.example.com" match subdomains.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.cfg.IsDevelopment {
		h.logger.Warn("allowing websocket connection in development mode",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
		)
		return true
	}

	parsedOrigin, err := url.Parse(origin)
	if err != nil {
		h.logger.Warn("failed to parse websocket origin", "origin", origin, "error", err)
		return false
	}
	originHost := parsedOrigin.Host

	for _, allowed := range h.cfg.AllowedOrigins {
		if strings.HasPrefix(allowed, "*.") {
			if strings.HasSuffix(originHost, allowed[1:]) || originHost == allowed[2:] {
				return true
			}
		} else if originHost == allowed || origin == allowed {
			return true
		}
	}

	h.logger.Warn("websocket connection rejected due to origin",
		"origin", origin,
		"remote_addr", r.RemoteAddr,
	)
	return false
}

// ServeHTTP handles GET /ws?token=
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Authenticate via query parameter; browsers cannot set headers on upgrade
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing authentication token", Code: "UNAUTHORIZED"})
		return
	}

	claims, err := h.tm.ValidateToken(tokenString)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket connection rejected: invalid token",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token", Code: "UNAUTHORIZED"})
		return
	}

	// 2. Upgrade the connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to upgrade websocket connection",
			"user_id", claims.UserID,
			"error", err,
		)
		return
	}

	// 3. Register the client with its actor so the hub can filter events
	client := wsAdapter.NewClient(h.hub, conn, claims.Actor(), h.cfg.Client, h.logger)
	if !h.hub.Attach(client) {
		_ = conn.Close()
		return
	}

	h.logger.InfoContext(r.Context(), "websocket connection established",
		"user_id", claims.UserID,
		"role", claims.Role,
	)

	// 4. Start the I/O pumps
	go client.WritePump()
	go client.ReadPump()
}

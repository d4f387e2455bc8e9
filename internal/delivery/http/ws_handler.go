package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ardentia/internal/delivery/http/dto"
	"ardentia/internal/domain"
	"ardentia/internal/middleware"
	"ardentia/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// wsMessage is the envelope for every frame pushed to a streaming client.
type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WSHandler bridges the event hub to websocket clients. Each connection gets
// one price subscription and one position subscription for the caller's own
// positions; both are cancelled when the connection drops.
type WSHandler struct {
	hub      *service.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *service.Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The dashboard is served from arbitrary community hosts.
				return true
			},
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

// Stream upgrades the connection and pushes price ticks and the caller's
// position changes until the client disconnects.
func (h *WSHandler) Stream(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	prices, cancelPrices := h.hub.SubscribePrices()
	positions, cancelPositions := h.hub.SubscribePositions(userID)

	h.log.Debug().Str("user_id", userID.String()).Msg("websocket client connected")

	done := make(chan struct{})

	// Reader only consumes control frames; any error means the client left.
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		cancelPrices()
		cancelPositions()
		_ = conn.Close()
		h.log.Debug().Str("user_id", userID.String()).Msg("websocket client disconnected")
	}()

	for {
		select {
		case event, ok := <-prices:
			if !ok {
				return nil
			}
			if err := h.write(conn, wsMessage{Type: "price", Data: event}); err != nil {
				return nil
			}
		case event, ok := <-positions:
			if !ok {
				return nil
			}
			if err := h.write(conn, wsMessage{Type: event.Type, Data: positionPayload(event)}); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

func positionPayload(event domain.PositionEvent) interface{} {
	if event.Position == nil {
		return nil
	}
	return dto.NewPositionOutput(event.Position)
}

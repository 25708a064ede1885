package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// subscriptionRequest - первое сообщение клиента после подключения.
type subscriptionRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// subscriptionHandler обслуживает одну подписку на соединение. Каждый
// результат уходит отдельным JSON-кадром.
type subscriptionHandler struct {
	schema    *graphql.Schema
	upgrader  websocket.Upgrader
	keepAlive time.Duration
	logger    *zap.Logger
}

func newSubscriptionHandler(schema *graphql.Schema, keepAlive time.Duration, logger *zap.Logger) *subscriptionHandler {
	if keepAlive <= 0 {
		keepAlive = 10 * time.Second
	}
	return &subscriptionHandler{
		schema: schema,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		keepAlive: keepAlive,
		logger:    logger.Named("subscriptions"),
	}
}

func (h *subscriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err), zap.String("remoteAddr", r.RemoteAddr))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	var req subscriptionRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.logger.Debug("invalid subscription request", zap.Error(err))
		h.close(conn, websocket.CloseUnsupportedData, "invalid subscription request")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Чтение нужно только чтобы заметить отключение клиента.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	results, err := h.schema.Subscribe(ctx, req.Query, req.OperationName, req.Variables)
	if err != nil {
		h.logger.Debug("subscription rejected", zap.Error(err))
		h.close(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				h.close(conn, websocket.CloseNormalClosure, "")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(res); err != nil {
				h.logger.Debug("failed to write result", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *subscriptionHandler) close(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/math-agent/backend/pkg/logger"
)

type WebSocketHandler struct {
	router Router
}

func NewWebSocketHandler(r Router) *WebSocketHandler {
	return &WebSocketHandler{router: r}
}

// HandleConnection answers questions over one connection, emitting a tier
// event as each pipeline stage starts and a final answer event.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Question string `json:"question"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Question == "" {
			h.sendError(c, "Question is required")
			continue
		}

		trace := func(tier string) {
			c.WriteJSON(map[string]interface{}{
				"type": "tier",
				"tier": tier,
			})
		}

		answer, err := h.router.Route(context.Background(), msg.Question, trace)
		if err != nil {
			logger.Error("Failed to answer question", zap.Error(err))
			h.sendError(c, "Failed to answer question")
			continue
		}

		if err := c.WriteJSON(map[string]interface{}{
			"type":   "answer",
			"source": answer.Source,
			"text":   answer.Text,
		}); err != nil {
			logger.Error("Failed to write answer", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

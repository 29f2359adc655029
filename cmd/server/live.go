package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Simplici0/profitlevers/internal/metrics"
)

const (
	liveReadLimit = 4096
	liveIdle      = 2 * time.Minute
	liveWriteWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type liveResponse struct {
	outcome
	Error string `json:"error,omitempty"`
}

// handleLive serves slider updates over a websocket. Every inbound lever
// message is answered with exactly one outcome message; the connection
// carries no state between messages.
func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.LiveConnections.Inc()
	defer s.metrics.LiveConnections.Dec()

	conn.SetReadLimit(liveReadLimit)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(liveIdle))

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}

		var form leverForm
		if err := json.Unmarshal(payload, &form); err != nil {
			if err := s.writeLive(conn, liveResponse{Error: "invalid lever message"}); err != nil {
				return
			}
			continue
		}

		result, err := evaluateForm(form, s.fallbackSales)
		s.metrics.ObserveEvaluation(metrics.SourceLive, result.Result.NetProfit, len(result.Adjustments), err)

		resp := liveResponse{outcome: result}
		if err != nil {
			resp = liveResponse{Error: err.Error()}
		}
		if err := s.writeLive(conn, resp); err != nil {
			s.logger.Debug("websocket write", zap.Error(err))
			return
		}
	}
}

func (s *server) writeLive(conn *websocket.Conn, resp liveResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode live response", zap.Error(err))
		payload, _ = json.Marshal(liveResponse{Error: "failed to encode result"})
	}
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

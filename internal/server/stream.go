package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/pkg/types"
)

// Stream message types.
const (
	msgExtract   = "extract_vocabulary"
	msgExtracted = "vocabulary_extracted"
	msgError     = "error"
)

// streamRequest is a client message on /v1/stream.
type streamRequest struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	requestOptions
}

type extractedMessage struct {
	Type  string                 `json:"type"`
	Items []types.VocabularyItem `json:"items"`
	Count int                    `json:"count"`
	Stats types.Stats            `json:"stats"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func streamError(msg string) errorMessage {
	return errorMessage{Type: msgError, Message: msg}
}

// handleStream upgrades to a WebSocket and answers every
// extract_vocabulary message with the items of its transcript. Malformed
// messages get an error reply; the connection stays open until the client
// closes it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		observe.Logger(r.Context()).Warn("server: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(s.maxBodyBytes)

	ctx := r.Context()
	defer s.metrics.TrackStream(ctx)()

	log := observe.Logger(ctx)
	log.Debug("server: stream opened", "remote", r.RemoteAddr)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.Debug("server: stream read ended", "err", err)
			}
			return
		}
		if typ != websocket.MessageText {
			if err := s.reply(ctx, conn, streamError("expected a text message")); err != nil {
				return
			}
			continue
		}
		if err := s.reply(ctx, conn, s.answer(ctx, data)); err != nil {
			log.Debug("server: stream write failed", "err", err)
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, data []byte) any {
	var req streamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return streamError("invalid JSON message: " + err.Error())
	}
	if req.Type != msgExtract {
		return streamError(fmt.Sprintf("unknown message type %q", req.Type))
	}
	opts, err := req.options()
	if err != nil {
		return streamError(err.Error())
	}
	res, err := s.orch.Extract(ctx, req.Transcript, opts)
	if err != nil {
		msg := err.Error()
		if statusFor(err) >= http.StatusInternalServerError {
			observe.Logger(ctx).Error("server: stream extraction failed", "err", err)
			msg = "internal error"
		}
		return streamError(msg)
	}
	return extractedMessage{
		Type:  msgExtracted,
		Items: res.Items,
		Count: len(res.Items),
		Stats: res.Stats,
	}
}

func (s *Server) reply(ctx context.Context, conn *websocket.Conn, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

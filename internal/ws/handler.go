package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rise-hand/internal/hub"
	"github.com/DoyleJ11/rise-hand/internal/lobby"
	"github.com/DoyleJ11/rise-hand/internal/types"
)

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second
	// Clients are idle for long stretches at a table; the read deadline only
	// catches dead peers.
	readTimeout = 10 * time.Minute
)

type Options struct {
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.EnsureLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan []byte, outboxSize)
		clientID := uuid.NewString()
		clog := log.With(zap.String("room", code), zap.String("client", clientID))

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			conn.Close(websocket.StatusTryAgainLater, "room closed")
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for frame := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err := conn.Write(ctx, websocket.MessageText, frame)
				cancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
				}
			}
			// Outbox closed by the lobby: dropped as slow, or lobby gone.
			conn.Close(websocket.StatusTryAgainLater, "relay closed the stream")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			var f types.Frame
			if err := json.Unmarshal(data, &f); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText, types.ErrorFrame("bad json"))
				continue
			}
			if f.Type != types.FrameBroadcast || len(f.Payload) == 0 {
				_ = conn.Write(r.Context(), websocket.MessageText, types.ErrorFrame("unknown type"))
				continue
			}

			relay, _ := json.Marshal(types.Frame{Type: types.FrameBroadcast, Payload: f.Payload})
			select {
			case lb.Inbox() <- lobby.Publish{From: clientID, Payload: relay}:
			case <-lb.Done():
				return
			}
		}
	}
}

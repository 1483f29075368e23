package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
	"github.com/DoyleJ11/rise-hand/internal/types"
)

const writeTimeout = 3 * time.Second

type WebsocketOptions struct {
	SendBuffer int
	Logger     *zap.Logger
}

// Websocket talks to the relay server (cmd/server). The relay forwards every
// frame to the other members of the room and never back to us.
type Websocket struct {
	*pump
	conn *websocket.Conn
	room string
}

// RelayURL builds the websocket endpoint for a room from the relay's base
// address (http, https, ws or wss).
func RelayURL(base, room string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(err, "parse relay url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Errorf("unsupported relay scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"room": {room}}.Encode()
	return u.String(), nil
}

func DialWebsocket(ctx context.Context, base, room string, opts WebsocketOptions) (*Websocket, error) {
	target, err := RelayURL(base, room)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial relay %s", target)
	}
	p := newPump(opts.SendBuffer, opts.Logger)
	p.log = p.log.With(zap.String("room", room), zap.String("transport", "websocket"))
	return &Websocket{pump: p, conn: conn, room: room}, nil
}

func (w *Websocket) Send(m handraise.Message) error {
	payload, err := handraise.EncodeMessage(m)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(types.Frame{Type: types.FrameBroadcast, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}
	return w.enqueue(frame)
}

// Run pumps frames in both directions until ctx ends or the connection
// drops. It closes the connection on return.
func (w *Websocket) Run(parent context.Context) error {
	g, ctx := errgroup.WithContext(parent)
	g.Go(func() error { return w.writeLoop(ctx) })
	g.Go(func() error { return w.readLoop(ctx) })
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-w.done:
		}
		// Unblocks the reader.
		w.conn.Close(websocket.StatusNormalClosure, "bye")
		return nil
	})
	err := g.Wait()
	w.close()
	if parent.Err() != nil {
		return nil
	}
	return err
}

func (w *Websocket) Close() error {
	w.close()
	return nil
}

func (w *Websocket) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case frame := <-w.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := w.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return errors.Wrap(err, "write frame")
			}
		}
	}
}

func (w *Websocket) readLoop(ctx context.Context) error {
	for {
		_, data, err := w.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			select {
			case <-w.done:
				return nil
			default:
			}
			return errors.Wrap(err, "read frame")
		}

		var f types.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			w.log.Debug("dropping unreadable frame", zap.Error(err))
			continue
		}
		switch f.Type {
		case types.FrameBroadcast:
			m, err := handraise.DecodeMessage(f.Payload)
			if err != nil {
				w.log.Debug("dropping unreadable payload", zap.Error(err))
				continue
			}
			w.deliver(m)
		case types.FrameError:
			w.log.Warn("relay rejected a frame", zap.String("error", f.Error))
		default:
			w.log.Debug("ignoring frame", zap.String("type", f.Type))
		}
	}
}

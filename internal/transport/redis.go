package transport

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
)

const ChannelPrefix = "risehand:"

type RedisOptions struct {
	SendBuffer int
	Logger     *zap.Logger
}

// Redis broadcasts through PUBLISH/SUBSCRIBE on one channel per room. Redis
// echoes publications to the publisher, so every envelope carries the
// connection id and we drop our own.
type Redis struct {
	*pump
	client  *redis.Client
	channel string
	connID  string
}

type envelope struct {
	Conn    string          `json:"conn"`
	Payload json.RawMessage `json:"payload"`
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return rdb, nil
}

func NewRedis(client *redis.Client, room string, opts RedisOptions) *Redis {
	p := newPump(opts.SendBuffer, opts.Logger)
	p.log = p.log.With(zap.String("room", room), zap.String("transport", "redis"))
	return &Redis{
		pump:    p,
		client:  client,
		channel: ChannelPrefix + room,
		connID:  uuid.NewString(),
	}
}

func (r *Redis) Send(m handraise.Message) error {
	payload, err := handraise.EncodeMessage(m)
	if err != nil {
		return err
	}
	b, err := json.Marshal(envelope{Conn: r.connID, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "encode envelope")
	}
	return r.enqueue(b)
}

// Run subscribes, then publishes queued messages until ctx ends or Close is
// called.
func (r *Redis) Run(parent context.Context) error {
	sub := r.client.Subscribe(parent, r.channel)
	defer sub.Close()
	// Wait for the subscription to be confirmed so nothing published right
	// after Run starts is missed.
	if _, err := sub.Receive(parent); err != nil {
		r.close()
		return errors.Wrapf(err, "subscribe %s", r.channel)
	}

	g, ctx := errgroup.WithContext(parent)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.done:
				return nil
			case b := <-r.out:
				if err := r.client.Publish(ctx, r.channel, b).Err(); err != nil {
					// at most once: the message is gone
					r.log.Warn("publish failed", zap.Error(err))
				}
			}
		}
	})
	g.Go(func() error {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.done:
				return nil
			case msg, ok := <-ch:
				if !ok {
					return errors.New("redis subscription closed")
				}
				r.dispatch(msg.Payload)
			}
		}
	})
	err := g.Wait()
	r.close()
	if parent.Err() != nil {
		return nil
	}
	return err
}

func (r *Redis) dispatch(raw string) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.log.Debug("dropping unreadable envelope", zap.Error(err))
		return
	}
	if env.Conn == r.connID {
		return
	}
	m, err := handraise.DecodeMessage(env.Payload)
	if err != nil {
		r.log.Debug("dropping unreadable payload", zap.Error(err))
		return
	}
	r.deliver(m)
}

func (r *Redis) Close() error {
	r.close()
	return nil
}

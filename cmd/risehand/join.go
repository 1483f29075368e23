package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/message"

	"github.com/DoyleJ11/rise-hand/internal/config"
	"github.com/DoyleJ11/rise-hand/internal/console"
	"github.com/DoyleJ11/rise-hand/internal/handraise"
	"github.com/DoyleJ11/rise-hand/internal/i18n"
	"github.com/DoyleJ11/rise-hand/internal/logging"
	"github.com/DoyleJ11/rise-hand/internal/session"
	"github.com/DoyleJ11/rise-hand/internal/transport"
)

var errQuit = errors.New("quit")

// link is a connected transport plus whatever keeps it alive.
type link struct {
	handraise.Transport
	run   func(context.Context) error
	close func() error
}

func joinCommand(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "join",
		Short: "join a room and manage the raise-hand queue from the prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Identity.UserID == "" {
				return errors.New("a user id is required (--user or RISEHAND_USER_ID)")
			}
			log, err := logging.New(cfg.LogLevel, cfg.IsProduction())
			if err != nil {
				return err
			}
			defer log.Sync()
			return join(ctx, cfg, log, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func dial(ctx context.Context, cfg *config.Config, log *zap.Logger) (*link, error) {
	switch strings.ToLower(cfg.Transport) {
	case config.TransportWebsocket:
		ws, err := transport.DialWebsocket(ctx, cfg.Relay.URL, cfg.Relay.Room, transport.WebsocketOptions{
			SendBuffer: cfg.SendBuffer,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		return &link{Transport: ws, run: ws.Run, close: ws.Close}, nil

	case config.TransportRedis:
		client, err := transport.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		r := transport.NewRedis(client, cfg.Relay.Room, transport.RedisOptions{
			SendBuffer: cfg.SendBuffer,
			Logger:     log,
		})
		return &link{
			Transport: r,
			run:       r.Run,
			close:     func() error { return multierr.Append(r.Close(), client.Close()) },
		}, nil

	case config.TransportMemory:
		// Nobody else can reach an in-process bus; useful for trying the
		// prompt out alone.
		ep := transport.NewBus().Join()
		return &link{
			Transport: ep,
			run: func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			},
			close: func() error { ep.Leave(); return nil },
		}, nil
	}
	return nil, errors.Wrapf(config.ErrInvalidConfig, "unknown transport %q", cfg.Transport)
}

func join(ctx context.Context, cfg *config.Config, log *zap.Logger, in io.Reader, out io.Writer) error {
	log = log.With(zap.String("user_id", cfg.Identity.UserID), zap.String("room", cfg.Relay.Room))
	p := i18n.NewPrinter(cfg.Language)

	l, err := dial(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.close(); err != nil {
			log.Warn("closing transport", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	renderer := console.NewRenderer(out, p)
	announcer := console.NewChatAnnouncer(gctx,
		&console.ChatClient{Base: cfg.Relay.URL, Room: cfg.Relay.Room},
		console.AnnouncerOptions{Speaker: p.Sprintf(i18n.SpeakerAlias), Logger: log})
	mgr := handraise.NewManager(handraise.Config{
		Identity: handraise.StaticIdentity{
			ID:        cfg.Identity.UserID,
			Name:      cfg.Identity.UserName,
			Moderator: cfg.Identity.Moderator,
		},
		Transport: l,
		Notifier:  console.NewNotifier(out),
		Announcer: announcer,
		Renderer:  handraise.Renderers{
			renderer,
			console.NewPositionView(out, p, cfg.Identity.UserID),
		},
		Sound:   console.Bell{W: out},
		Printer: p,
		Logger:  log,
	})

	sess := session.New(gctx, mgr, session.Options{Transport: l, Logger: log})
	defer sess.Stop()

	g.Go(func() error { return l.run(gctx) })
	g.Go(func() error { return prompt(gctx, sess, cfg.Identity.UserID, renderer, p, log, in, out) })

	log.Info("joined", zap.String("transport", cfg.Transport))
	fmt.Fprintln(out, console.Help)
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

// prompt reads commands until quit, EOF or ctx ends.
func prompt(ctx context.Context, sess *session.Session, self string, r *console.Renderer,
	p *message.Printer, log *zap.Logger, in io.Reader, out io.Writer) error {

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return errQuit
			}
			line = l
		}

		c, err := console.ParseCommand(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if c.Kind == console.CmdQuit {
			return errQuit
		}
		if err := run(ctx, sess, self, c, r, p, out); err != nil {
			report(log, out, err)
		}
	}
}

func run(ctx context.Context, sess *session.Session, self string, c console.Command,
	r *console.Renderer, p *message.Printer, out io.Writer) error {

	switch c.Kind {
	case console.CmdRaise:
		return sess.Raise(ctx, c.Priority)
	case console.CmdLower:
		return sess.Lower(ctx)
	case console.CmdGive:
		return sess.GiveWord(ctx, c.UserID)
	case console.CmdRemove:
		return sess.Remove(ctx, c.UserID)
	case console.CmdClear:
		return sess.Clear(ctx)
	case console.CmdQueue:
		q, err := sess.Queue(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, r.Render(q))
	case console.CmdPosition:
		who := c.UserID
		if who == "" {
			who = self
		}
		pos, err := sess.Position(ctx, who)
		if err != nil {
			return err
		}
		if pos < 0 {
			fmt.Fprintln(out, p.Sprintf(i18n.QueueNotInQueue))
		} else {
			fmt.Fprintln(out, p.Sprintf(i18n.QueuePosition, pos))
		}
	case console.CmdHelp:
		fmt.Fprintln(out, console.Help)
	}
	return nil
}

// report prints command failures. Refusals the queue already reported, or
// that it ignores on purpose, go to the debug log only.
func report(log *zap.Logger, out io.Writer, err error) {
	switch {
	case errors.Is(err, handraise.ErrAlreadyQueued),
		errors.Is(err, handraise.ErrNotQueued),
		errors.Is(err, handraise.ErrNotModerator),
		errors.Is(err, handraise.ErrUnknownUser):
		log.Debug("command ignored", zap.Error(err))
	default:
		fmt.Fprintln(out, "error:", err)
	}
}

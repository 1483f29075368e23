package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rise-hand/internal/chatlog"
	"github.com/DoyleJ11/rise-hand/internal/hub"
	"github.com/DoyleJ11/rise-hand/internal/ws"
)

type Deps struct {
	Hub            *hub.Hub
	Chat           chatlog.Store
	Logger         *zap.Logger
	OriginPatterns []string
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{OriginPatterns: d.OriginPatterns, Logger: log}))

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(d.Hub, log))
		r.Get("/", ListRooms(d.Hub))
		r.Post("/{code}/chat", PostChat(d.Chat, log))
		r.Get("/{code}/chat", GetChat(d.Chat, log))
	})
	return r
}

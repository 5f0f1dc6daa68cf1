package handler

import (
	"context"
	"errors"
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/importer"
	"rsvp-checkin/internal/invite"
)

const defaultRequestTimeout = 5 * time.Second

type Deps struct {
	Core     Core
	Importer Importer
	Event    invite.Event
	Defaults importer.Defaults
	// RequestTimeout defaults to 5s
	RequestTimeout time.Duration
}

type health struct {
	Status string `json:"status"`
}

// NewRouter builds the API routes
func NewRouter(log zerolog.Logger, deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(AccessLog(log))
	router.Use(middleware.Recoverer)
	router.Use(Timeout(timeout))

	router.NotFound(NotFound())
	router.MethodNotAllowed(NotAllowed())

	router.With(render.SetContentType(render.ContentTypeJSON)).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Ok(health{Status: "ok"}))
	})

	router.Route("/api", func(api chi.Router) {
		api.Group(func(j chi.Router) {
			j.Use(render.SetContentType(render.ContentTypeJSON))

			j.Route("/attendees", func(a chi.Router) {
				a.Get("/", ListAttendees(log, deps.Core))
				a.Post("/", CreateAttendee(log, deps.Core))
				a.Post("/import", ImportAttendees(log, deps.Importer, deps.Defaults))
				a.Route("/{id}", func(one chi.Router) {
					one.Get("/", GetAttendee(log, deps.Core))
					one.Patch("/", PatchAttendee(log, deps.Core))
					one.Delete("/", DeleteAttendee(log, deps.Core))
					one.Post("/confirm", ConfirmAttendee(log, deps.Core))
					one.Post("/unconfirm", UnconfirmAttendee(log, deps.Core))
					one.Post("/notify", NotifyAttendee(log, deps.Core))
				})
			})
			j.Post("/scan", Scan(log, deps.Core))
			j.Get("/reports/attendance", AttendanceReport(log, deps.Core))
			j.Get("/invite/{id}", GetInvite(log, deps.Core, deps.Event))
		})

		api.Get("/qr/{id}", LinkQR(log, deps.Event))
		api.Get("/invite/{id}/qr", PayloadQR(log, deps.Core))
	})

	return router
}

type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

func NewServer(addr string, handler http.Handler, log zerolog.Logger) *Server {
	log = log.With().Str("component", "api.server").Logger()
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ErrorLog:     newStdLogger(log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info().Str("address", s.httpServer.Addr).Msg("starting api server")

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newStdLogger routes net/http server errors into zerolog
func newStdLogger(log zerolog.Logger) *stdlog.Logger {
	return stdlog.New(log.With().Str("level", "error").Logger(), "", 0)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

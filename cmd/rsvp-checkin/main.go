package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/attendee"
	"rsvp-checkin/internal/config"
	"rsvp-checkin/internal/handler"
	"rsvp-checkin/internal/importer"
	"rsvp-checkin/internal/invite"
	"rsvp-checkin/internal/normalize"
	"rsvp-checkin/internal/scan"
	"rsvp-checkin/internal/storage"
	"rsvp-checkin/internal/whatsapp"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	station := flag.Bool("station", false, "read scanner input from stdin instead of serving the API")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.Env, cfg.LogLevel)
	log.Info().Str("store", cfg.Store.Driver).Bool("station", *station).Msg("starting rsvp-checkin")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *station); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
	log.Info().Msg("goodbye")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, station bool) error {
	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()

	event := invite.Event{
		Name:       cfg.Event.Name,
		Schedule:   cfg.Event.Schedule,
		Venue:      cfg.Event.Venue,
		Address:    cfg.Event.Address,
		Gate:       cfg.Event.Gate,
		LinkPrefix: cfg.Event.LinkPrefix,
	}

	var notifier attendee.Notifier
	if cfg.WhatsApp.Enabled && !station {
		wa, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: cfg.WhatsApp.DataDir}, log)
		if err != nil {
			return fmt.Errorf("whatsapp: %w", err)
		}
		log.Info().Msg("connecting to WhatsApp")
		if err := wa.Connect(ctx); err != nil {
			return fmt.Errorf("whatsapp: %w", err)
		}
		defer wa.Disconnect()
		notifier = wa
	}

	svc := attendee.NewService(store, notifier, &attendee.Config{
		Event: event,
		Phone: normalize.Phone{
			CountryCode:      cfg.Phone.CountryCode,
			SubscriberPrefix: cfg.Phone.SubscriberPrefix,
		},
	}, log)

	if station {
		return runStation(ctx, svc, cfg.Scan.Window, os.Stdin, os.Stdout, log)
	}

	router := handler.NewRouter(log, handler.Deps{
		Core:     svc,
		Importer: importer.NewResolver(svc, log),
		Event:    event,
		Defaults: importer.Defaults{
			Program: cfg.Import.DefaultProgram,
			Seat:    cfg.Import.DefaultSeat,
		},
		RequestTimeout: cfg.Listen.RequestTimeout,
	})
	server := handler.NewServer(cfg.Addr(), router, log)

	errc := make(chan error, 1)
	go func() { errc <- server.Run() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, log zerolog.Logger) (attendee.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := storage.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		return s, s.Close, nil
	case config.DriverPostgres:
		s, err := storage.NewPostgres(cfg.Store.DSN, log)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return s, s.Close, nil
	default:
		s, err := storage.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("file store: %w", err)
		}
		return s, noop, nil
	}
}

// stationFailure tells the operator whether to scan again or call for help
func stationFailure(err error) string {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrMalformedPayload) || errors.Is(err, apperr.ErrValidation) {
		return "INVALID code, scan again"
	}
	return "ERROR " + apperr.Message(err) + ", call the event desk"
}

func runStation(ctx context.Context, svc *attendee.Service, window time.Duration, in io.Reader, out io.Writer, log zerolog.Logger) error {
	debouncer := scan.NewDebouncer(svc, log, scan.WithWindow(window))
	st := scan.NewStation(debouncer, func(res scan.Result) {
		switch res.Outcome {
		case scan.OutcomeConfirmed:
			fmt.Fprintf(out, "OK   %s (%s, seat %s)\n", res.Attendee.Name, res.Attendee.Program, res.Attendee.Seat)
		case scan.OutcomeDuplicate:
			fmt.Fprintf(out, "SKIP %s scanned twice\n", res.ID)
		case scan.OutcomeBusy:
			fmt.Fprintln(out, "WAIT previous scan still processing")
		default:
			fmt.Fprintln(out, stationFailure(res.Err))
		}
	})

	fmt.Fprintln(out, "Scanner station ready. Scan a code or type an id and press Enter.")
	err := st.Run(ctx, in)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

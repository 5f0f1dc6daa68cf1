package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
)

var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

type Config struct {
	DataDir string
	// PairingOutput receives the pairing QR; defaults to stdout
	PairingOutput io.Writer
}

// Service sends invitations from a linked WhatsApp account
type Service struct {
	client *whatsmeow.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewService opens the device session stored under cfg.DataDir
func NewService(ctx context.Context, cfg *Config, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))

	// nil logger: sqlstore falls back to a no-op logger
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	if cfg.PairingOutput == nil {
		cfg.PairingOutput = os.Stdout
	}
	s := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		cfg:    cfg,
		log:    log.With().Str("component", "whatsapp").Logger(),
	}
	s.client.AddEventHandler(s.eventHandler)
	return s, nil
}

// Connect connects to WhatsApp, pairing through a terminal QR code when no
// session exists yet. Pairing blocks until the code is scanned or expires.
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pairing channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("pairing event")
			continue
		}
		s.printPairingCode(evt.Code)
	}
	if s.client.Store.ID == nil {
		return errors.New("pairing did not complete")
	}
	return nil
}

func (s *Service) printPairingCode(code string) {
	out := s.cfg.PairingOutput
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to render pairing QR")
		fmt.Fprintf(out, "Pairing code: %s\n", code)
		return
	}
	fmt.Fprintln(out, "\n"+q.ToSmallString(false))
	fmt.Fprintln(out, "Scan the QR code above in WhatsApp > Settings > Linked Devices > Link a Device")
}

func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// Send delivers subject and body to a normalized phone number. The number is
// checked with WhatsApp first so unregistered numbers fail before sending.
func (s *Service) Send(ctx context.Context, destination, subject, body string) error {
	if !s.client.IsConnected() {
		return errors.New("whatsapp client is not connected")
	}

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + destination})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("%s: %w", destination, ErrNotOnWhatsApp)
	}
	jid := resp[0].JID

	text := Compose(subject, body)
	log := s.log.With().Str("jid", jid.String()).Logger()
	log.Debug().Msg("sending message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &text})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid.String(), err)
	}
	log.Info().Str("message_id", sent.ID).Time("timestamp", sent.Timestamp).Msg("message sent")
	return nil
}

// Compose renders the subject in bold above the body
func Compose(subject, body string) string {
	if subject == "" {
		return body
	}
	return "*" + subject + "*\n\n" + body
}

func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Connected:
		s.log.Info().Msg("connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Bool("on_connect", evt.OnConnect).Msg("logged out from WhatsApp")
	case *events.Message:
		if !evt.Info.IsFromMe {
			s.log.Debug().Str("sender", evt.Info.Sender.String()).Msg("incoming message ignored")
		}
	}
}

package notify

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Config selects the notification sink.
type Config struct {
	SMTPAddr string // empty selects the log-only sink
	From     string
	To       string
}

// DefaultConfig returns the default notifier configuration.
func DefaultConfig() Config {
	return Config{
		From: "noreply@catalog-admin.local",
		To:   "admin@catalog-admin.local",
	}
}

// Module provides the notifier as a mono module.
type Module struct {
	cfg      Config
	notifier Notifier
}

var _ mono.Module = (*Module)(nil)

// NewModule creates a new notify module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "notify"
}

// Start selects the sink.
func (m *Module) Start(_ context.Context) error {
	if m.cfg.SMTPAddr == "" {
		m.notifier = LogNotifier{}
		log.Println("[notify] No SMTP server configured, logging notifications")
	} else {
		m.notifier = NewSMTPNotifier(SMTPConfig{Addr: m.cfg.SMTPAddr, From: m.cfg.From, To: m.cfg.To})
		log.Printf("[notify] Sending notifications via %s", m.cfg.SMTPAddr)
	}
	log.Println("[notify] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[notify] Module stopped")
	return nil
}

// GetNotifier returns the configured sink.
func (m *Module) GetNotifier() Notifier {
	return m.notifier
}

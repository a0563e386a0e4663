// Package main is the entry point for the mailcast mailing-list sender.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shineum/mailcast/internal/address"
	"github.com/shineum/mailcast/internal/compose"
	"github.com/shineum/mailcast/internal/config"
	"github.com/shineum/mailcast/internal/dkim"
	"github.com/shineum/mailcast/internal/maillist"
	"github.com/shineum/mailcast/internal/recipients"
	"github.com/shineum/mailcast/internal/transport"
	"github.com/shineum/mailcast/internal/transport/mboxfile"
	sestransport "github.com/shineum/mailcast/internal/transport/ses"
	smtptransport "github.com/shineum/mailcast/internal/transport/smtp"
	"github.com/shineum/mailcast/internal/transport/stdout"
)

func main() {
	specPath := flag.String("spec", "spec.yaml", "path to the YAML mailing specification")
	listPath := flag.String("list", "list.csv", "path to the CSV recipient list")
	envPath := flag.String("env", "", "path to a dotenv file (optional)")
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			slog.Error("failed to load dotenv file", "path", *envPath, "error", err)
			os.Exit(1)
		}
	} else {
		// A missing default .env is fine; env vars may come from the shell.
		_ = godotenv.Load()
	}

	settings := config.LoadSettings()
	setupLogger(settings.Logging.Level)

	spec, err := config.LoadSpec(*specPath)
	if err != nil {
		slog.Error("failed to load specification", "error", err)
		os.Exit(1)
	}

	list, err := buildList(spec)
	if err != nil {
		slog.Error("failed to build mailing list identity", "error", err)
		os.Exit(1)
	}

	recips, err := recipients.ReadFile(*listPath)
	if err != nil {
		slog.Error("failed to read recipient list", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	buildFailures := sealAll(spec, list, recips)

	trans, err := selectTransport(ctx, settings)
	if err != nil {
		slog.Error("failed to set up transport", "error", err)
		os.Exit(1)
	}

	slog.Info("dispatching mailing list",
		"list_id", list.ListID(),
		"messages", list.Len(),
		"transport", trans.Name(),
	)

	outcomes := list.Send(ctx, trans)
	if closer, ok := trans.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close transport", "error", err)
		}
	}

	sendFailures := 0
	for _, outcome := range outcomes {
		if !outcome.Sent() {
			sendFailures++
		}
	}

	slog.Info("mailing run complete",
		"sent", len(outcomes)-sendFailures,
		"send_failures", sendFailures,
		"build_failures", buildFailures,
	)

	if buildFailures > 0 || sendFailures > 0 {
		os.Exit(1)
	}
}

// sealAll builds and seals one personalized message per recipient,
// returning the number of recipients whose message could not be built.
// A build failure stops that recipient only.
func sealAll(spec *config.Spec, list *maillist.List, recips []address.Address) int {
	template, err := spec.Email.Template.Load()
	if err != nil {
		slog.Error("failed to load template", "error", err)
		os.Exit(1)
	}

	failures := 0
	for _, recipient := range recips {
		content := compose.Personalize(template, recipient.Addr)
		built, err := compose.Build(content, spec.Email.Template.ContentType,
			spec.Email.Template.InlineAttachments, spec.Email.Attachments)
		if err != nil {
			slog.Error("failed to build message", "recipient", recipient.Addr, "error", err)
			failures++
			continue
		}

		err = list.Seal(built, spec.Email.Subject, maillist.SealOptions{
			To: []address.Address{recipient},
		})
		if err != nil {
			slog.Error("failed to seal message", "recipient", recipient.Addr, "error", err)
			failures++
		}
	}

	return failures
}

// buildList validates the identity participants and constructs the list.
func buildList(spec *config.Spec) (*maillist.List, error) {
	originator, err := toAddress(&spec.Email.Originator)
	if err != nil {
		return nil, err
	}
	author, err := toOptionalAddress(spec.Email.Author)
	if err != nil {
		return nil, err
	}
	sender, err := toOptionalAddress(spec.Email.Sender)
	if err != nil {
		return nil, err
	}
	contact, err := toOptionalAddress(spec.Email.Contact)
	if err != nil {
		return nil, err
	}

	return maillist.New(maillist.Config{
		Originator:    *originator,
		Author:        author,
		Sender:        sender,
		Contact:       contact,
		ListLabel:     spec.MailingList.ListID.Label,
		ListNamespace: spec.MailingList.ListID.Namespace,
	}, slog.Default()), nil
}

func toAddress(p *config.Participant) (*address.Address, error) {
	a, err := address.New(p.Name, p.Address)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func toOptionalAddress(p *config.Participant) (*address.Address, error) {
	if p == nil {
		return nil, nil
	}
	return toAddress(p)
}

// selectTransport chooses the submission backend based on settings.
// If the PROVIDER env var is set, it takes precedence. Otherwise, it
// falls back to auto-detection (SMTP if configured, then SES, then stdout).
func selectTransport(ctx context.Context, settings *config.Settings) (transport.Transport, error) {
	newSMTP := func() (transport.Transport, error) {
		slog.Info("using SMTP transport",
			"hostname", settings.SMTP.Hostname,
			"port", settings.SMTP.Port,
			"auth_enabled", settings.SMTP.Username != "",
		)
		return smtptransport.Dial(smtptransport.Config{
			Hostname: settings.SMTP.Hostname,
			Port:     settings.SMTP.Port,
			Username: settings.SMTP.Username,
			Password: settings.SMTP.Password,
		})
	}
	newSES := func() (transport.Transport, error) {
		slog.Info("using AWS SES transport", "region", settings.SES.Region)
		return sestransport.New(ctx, sestransport.Config{
			Region:          settings.SES.Region,
			AccessKeyID:     settings.SES.AccessKeyID,
			SecretAccessKey: settings.SES.SecretAccessKey,
		})
	}

	var (
		trans transport.Transport
		err   error
	)
	switch settings.Provider {
	case "smtp":
		if !settings.SMTPConfigured() {
			slog.Error("SMTP transport selected but SMTP_HOSTNAME is required")
			os.Exit(1)
		}
		trans, err = newSMTP()

	case "ses":
		if !settings.SESConfigured() {
			slog.Error("SES transport selected but SES_REGION is required")
			os.Exit(1)
		}
		trans, err = newSES()

	case "mbox":
		slog.Info("using mbox archive transport", "path", settings.Mbox.Path)
		trans, err = mboxfile.Open(settings.Mbox.Path)

	case "stdout":
		slog.Info("using stdout transport")
		trans = stdout.New()

	case "":
		// Auto-detection fallback when no provider is named.
		switch {
		case settings.SMTPConfigured():
			trans, err = newSMTP()
		case settings.SESConfigured():
			trans, err = newSES()
		default:
			slog.Info("no transport configured, using stdout transport")
			trans = stdout.New()
		}

	default:
		slog.Error("unknown provider", "provider", settings.Provider)
		os.Exit(1)
	}
	if err != nil {
		return nil, err
	}

	if settings.DKIMConfigured() {
		slog.Info("DKIM signing enabled",
			"selector", settings.DKIM.Selector,
			"domain", settings.DKIM.Domain,
		)
		return dkim.Wrap(trans, dkim.Config{
			Selector: settings.DKIM.Selector,
			Domain:   settings.DKIM.Domain,
			KeyFile:  settings.DKIM.KeyFile,
		})
	}

	return trans, nil
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

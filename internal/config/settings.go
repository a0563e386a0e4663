package config

import (
	"os"
	"strconv"
	"strings"
)

// defaultSubmissionPort is the RFC 6409 mail submission port.
const defaultSubmissionPort = 587

// Settings holds the environment-supplied runtime configuration:
// transport selection and credentials. Unlike the specification file,
// these never describe message content.
type Settings struct {
	Provider string
	SMTP     SMTPSettings
	SES      SESSettings
	DKIM     DKIMSettings
	Mbox     MboxSettings
	Logging  LoggingSettings
}

// SMTPSettings holds the mail-submission session credentials.
type SMTPSettings struct {
	Hostname string
	Port     int
	Username string
	Password string
}

// SESSettings holds AWS SES v2 configuration.
type SESSettings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// DKIMSettings holds the optional signing configuration.
type DKIMSettings struct {
	Selector string
	Domain   string
	KeyFile  string
}

// MboxSettings configures the mbox archive transport.
type MboxSettings struct {
	Path string
}

// LoggingSettings holds logging configuration.
type LoggingSettings struct {
	Level string
}

// LoadSettings loads runtime settings from environment variables with
// sensible defaults. Only non-empty variables override defaults.
func LoadSettings() *Settings {
	s := &Settings{}
	s.applyDefaults()
	s.applyEnvVars()
	return s
}

// SMTPConfigured returns true if a submission host is set.
func (s *Settings) SMTPConfigured() bool {
	return s.SMTP.Hostname != ""
}

// SESConfigured returns true if an SES region is set.
func (s *Settings) SESConfigured() bool {
	return s.SES.Region != ""
}

// DKIMConfigured returns true if all three signing parameters are set.
func (s *Settings) DKIMConfigured() bool {
	return s.DKIM.Selector != "" && s.DKIM.Domain != "" && s.DKIM.KeyFile != ""
}

func (s *Settings) applyDefaults() {
	s.SMTP.Port = defaultSubmissionPort
	s.Mbox.Path = "archive/sent.mbox"
	s.Logging.Level = "info"
}

func (s *Settings) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		s.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_HOSTNAME"); v != "" {
		s.SMTP.Hostname = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		s.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		s.SMTP.Password = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		s.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		s.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		s.SES.SecretAccessKey = v
	}

	if v := os.Getenv("DKIM_SELECTOR"); v != "" {
		s.DKIM.Selector = v
	}
	if v := os.Getenv("DKIM_DOMAIN"); v != "" {
		s.DKIM.Domain = v
	}
	if v := os.Getenv("DKIM_KEY_FILE"); v != "" {
		s.DKIM.KeyFile = v
	}

	if v := os.Getenv("MBOX_PATH"); v != "" {
		s.Mbox.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		s.Logging.Level = strings.ToLower(v)
	}
}

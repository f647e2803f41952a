// Package config loads and validates environment configuration. Every
// variable is declared in one option table with its description, type, and
// default, which also drives the generated .env-dist template.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type optionKind int

const (
	kindString optionKind = iota
	kindNumber
	kindBool
)

type envOption struct {
	name        string
	description string
	def         string
	required    bool
	kind        optionKind
	choices     []string
}

var envOptions = []envOption{
	{name: "MAILWARD_ENV", description: "Specifies the environment in which the service is running",
		choices: []string{"development", "staging", "production"}, def: "development"},
	{name: "API_HOST", description: "Local IP address for the API to listen at", def: "0.0.0.0"},
	{name: "API_PORT", description: "Port the API listens on", def: "3780", kind: kindNumber},
	{name: "DATABASE_URL", description: "Postgres connection URL for the template store", required: true},
	{name: "MAIL_PROVIDER", description: "Mail transport used for dispatch",
		choices: []string{"smtp", "sendgrid", "ses", "gmail"}, def: "smtp"},
	{name: "SMTP_HOST", description: "Hostname of SMTP sending host", def: "localhost"},
	{name: "SMTP_PORT", description: "SMTP host server port", def: "25", kind: kindNumber},
	{name: "SMTP_SECURE", description: "Require TLS for the SMTP connection", def: "false", kind: kindBool},
	{name: "SMTP_USER", description: "Username for SMTP host", def: ""},
	{name: "SMTP_PASSWORD", description: "Password for SMTP host", def: ""},
	{name: "SENDGRID_API_KEY", description: "API key for the sendgrid provider", def: ""},
	{name: "GMAIL_CREDENTIALS_FILE", description: "Service-account JSON file for the gmail provider", def: ""},
	{name: "GMAIL_SENDER", description: "Mailbox the gmail provider impersonates", def: ""},
	{name: "FORMS_FILE", description: "Optional YAML registry of form-to-email targets", def: ""},
}

// Config is the validated runtime configuration.
type Config struct {
	Env          string
	Host         string
	Port         int
	DatabaseURL  string
	MailProvider string

	SMTPHost     string
	SMTPPort     int
	SMTPSecure   bool
	SMTPUser     string
	SMTPPassword string

	SendGridAPIKey       string
	GmailCredentialsFile string
	GmailSender          string

	FormsFile string
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads a .env file if present, validates every declared variable, and
// returns the aggregated errors if any check fails.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	values := make(map[string]string, len(envOptions))
	var errs []string

	for _, opt := range envOptions {
		val := os.Getenv(opt.name)
		if val == "" {
			if opt.required {
				errs = append(errs, fmt.Sprintf("missing required environment variable: %s", opt.name))
				continue
			}
			val = opt.def
		}
		if len(opt.choices) > 0 && !contains(opt.choices, val) {
			errs = append(errs, fmt.Sprintf("invalid value for %s: %q (must be one of: %s)",
				opt.name, val, strings.Join(opt.choices, ", ")))
			continue
		}
		switch opt.kind {
		case kindNumber:
			if _, err := strconv.Atoi(val); err != nil {
				errs = append(errs, fmt.Sprintf("invalid number for %s: %q", opt.name, val))
				continue
			}
		case kindBool:
			if _, err := parseBool(val); err != nil {
				errs = append(errs, fmt.Sprintf("invalid boolean for %s: %q", opt.name, val))
				continue
			}
		}
		values[opt.name] = val
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errs, "\n"))
	}

	cfg := &Config{
		Env:                  values["MAILWARD_ENV"],
		Host:                 values["API_HOST"],
		Port:                 mustInt(values["API_PORT"]),
		DatabaseURL:          values["DATABASE_URL"],
		MailProvider:         values["MAIL_PROVIDER"],
		SMTPHost:             values["SMTP_HOST"],
		SMTPPort:             mustInt(values["SMTP_PORT"]),
		SMTPSecure:           mustBool(values["SMTP_SECURE"]),
		SMTPUser:             values["SMTP_USER"],
		SMTPPassword:         values["SMTP_PASSWORD"],
		SendGridAPIKey:       values["SENDGRID_API_KEY"],
		GmailCredentialsFile: values["GMAIL_CREDENTIALS_FILE"],
		GmailSender:          values["GMAIL_SENDER"],
		FormsFile:            values["FORMS_FILE"],
	}
	if err := cfg.validateProvider(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateProvider checks the settings the selected mail provider depends on.
func (c *Config) validateProvider() error {
	switch c.MailProvider {
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("mail provider smtp requires SMTP_HOST")
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("mail provider sendgrid requires SENDGRID_API_KEY")
		}
	case "gmail":
		if c.GmailCredentialsFile == "" || c.GmailSender == "" {
			return fmt.Errorf("mail provider gmail requires GMAIL_CREDENTIALS_FILE and GMAIL_SENDER")
		}
	}
	// ses reads its own credentials from the standard AWS environment.
	return nil
}

// EnvDist renders an annotated .env template from the option table.
func EnvDist() string {
	var b strings.Builder
	for _, opt := range envOptions {
		kind := "string"
		switch opt.kind {
		case kindNumber:
			kind = "number"
		case kindBool:
			kind = "boolean"
		}
		if opt.required {
			kind += " - required"
		}
		fmt.Fprintf(&b, "# %s [%s]\n", opt.description, kind)
		if len(opt.choices) > 0 {
			fmt.Fprintf(&b, "# Possible values: %s\n", strings.Join(opt.choices, ", "))
		}
		if opt.required {
			fmt.Fprintf(&b, "%s=\n", opt.name)
		} else if opt.def != "" {
			fmt.Fprintf(&b, "# %s=%s\n", opt.name, opt.def)
		} else {
			fmt.Fprintf(&b, "%s=\n", opt.name)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", val)
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}

// mustInt and mustBool run after validation; values are known good.
func mustInt(val string) int {
	n, _ := strconv.Atoi(val)
	return n
}

func mustBool(val string) bool {
	b, _ := parseBool(val)
	return b
}

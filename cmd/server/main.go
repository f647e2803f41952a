package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/docno/mailward/internal/api"
	"github.com/docno/mailward/internal/cache"
	"github.com/docno/mailward/internal/config"
	"github.com/docno/mailward/internal/forms"
	"github.com/docno/mailward/internal/mailer"
	"github.com/docno/mailward/internal/store"
)

func main() {
	envDist := flag.Bool("env-dist", false, "print an annotated .env template and exit")
	flag.Parse()
	if *envDist {
		fmt.Print(config.EnvDist())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	queries := store.New(pool)

	// Cache preload is a startup precondition: an unreachable store here is
	// fatal, not retryable.
	tc := cache.New()
	if err := tc.Preload(ctx, queries); err != nil {
		log.Fatal().Err(err).Msg("template cache preload failed")
	}
	nd, nt := tc.Stats()
	log.Info().Int("domains", nd).Int("templates", nt).Msg("template cache preloaded")

	sender, err := buildSender(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct mail provider")
	}

	registry := forms.NewRegistry()
	if cfg.FormsFile != "" {
		if err := registry.LoadFile(cfg.FormsFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load forms registry")
		}
	}

	pipeline := mailer.NewPipeline(tc, sender, log)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.RegisterRoutes(router, queries, tc, pipeline, registry, log)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Info().Str("addr", addr).Str("provider", cfg.MailProvider).Msg("starting server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func buildSender(ctx context.Context, cfg *config.Config) (mailer.Sender, error) {
	switch cfg.MailProvider {
	case "smtp":
		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			Secure:   cfg.SMTPSecure,
		}), nil
	case "sendgrid":
		return mailer.NewSendGridSender(cfg.SendGridAPIKey), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return mailer.NewSESSender(sesv2.NewFromConfig(awsCfg)), nil
	case "gmail":
		creds, err := os.ReadFile(cfg.GmailCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read gmail credentials: %w", err)
		}
		return mailer.NewGmailSender(ctx, creds, cfg.GmailSender)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.MailProvider)
	}
}

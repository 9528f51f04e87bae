// Package main is the entry point for the review platform server.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (env vars, optionally from a .env file)
//  2. Create dependencies (logger, mail sender)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...). A project can grow more executables under cmd/
// (this one has cmd/loadcsv for seeding), each with its own main.go.
package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/reviewdb/internal/mail"
	"github.com/sakif/reviewdb/internal/server"
)

func main() {
	// A .env file is a development convenience; in production the
	// variables come from the real environment and the file is absent.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/reviewdb.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string, e.g.:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	tokenLifetime := 24 * time.Hour
	if envTTL := os.Getenv("TOKEN_LIFETIME"); envTTL != "" {
		var err error
		tokenLifetime, err = time.ParseDuration(envTTL)
		if err != nil {
			logger.Error("invalid TOKEN_LIFETIME value", slog.String("value", envTTL))
			os.Exit(1)
		}
	}

	// Confirmation codes go out by SMTP when configured. Without SMTP_HOST
	// the server still runs and logs the codes instead, which is how
	// development setups retrieve them.
	var sender mail.Sender
	if host := os.Getenv("SMTP_HOST"); host != "" {
		smtpPort := 0
		if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
			var err error
			smtpPort, err = strconv.Atoi(portStr)
			if err != nil {
				logger.Error("invalid SMTP_PORT value", slog.String("value", portStr))
				os.Exit(1)
			}
		}
		smtpSender, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     host,
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		})
		if err != nil {
			logger.Error("invalid SMTP configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sender = smtpSender
	} else {
		logger.Warn("SMTP_HOST not set, confirmation codes will be logged instead of emailed")
		sender = mail.NewLogSender(logger)
	}

	cfg := server.Config{
		Port:          port,
		DBPath:        dbPath,
		JWTSecret:     jwtSecret,
		TokenLifetime: tokenLifetime,
	}

	srv, err := server.New(cfg, sender, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/localq/localq/internal/server/database"
	"github.com/localq/localq/internal/server/handlers"
	"github.com/localq/localq/internal/server/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultLogLevel        = "info"
	defaultWorkerBatchSize = 50
)

// Server is the queue and scheduler web server.
type Server struct {
	Config

	ctx         context.Context
	cancel      context.CancelFunc
	mux         http.Handler
	logger      *slog.Logger
	middlewares []func(http.Handler) http.Handler
	store       database.Store
	Worker      *Worker
}

// Config holds configuration for creating a Server.
type Config struct {
	AutoTLS           bool
	Domains           []string
	LogFormat         string
	LogLevel          string
	MaxMessageBytes   int
	Metrics           bool
	Port              int
	StorageDir        string
	TLSCert           string
	TLSKey            string
	Validation        bool
	WorkerBatchSize   int
	WorkerDeleteAfter bool
	// WorkerInterval of 0 disables the scheduler worker; due schedules then
	// fire only through the run-due endpoint.
	WorkerInterval time.Duration
}

// New returns a new server configured from cfg.
func New(cfg *Config) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		Config: *cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if server.LogLevel == "" {
		server.LogLevel = defaultLogLevel
	}

	if server.WorkerBatchSize == 0 {
		server.WorkerBatchSize = defaultWorkerBatchSize
	}

	server.LogFormat = strings.ToLower(server.LogFormat)

	router := chi.NewRouter()
	server.mux = router

	// Ensure configuration options are valid/compatible
	err := server.validate()
	if err != nil {
		cancel()
		return nil, err
	}

	// Logging
	logLevel, err := log.ParseLevel(server.LogLevel)
	if err != nil {
		cancel()
		return nil, err
	}

	logHandler := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       getLogFormatter(server.LogFormat),
		Level:           logLevel,
	})
	server.logger = slog.New(logHandler)

	// Database
	db, err := database.New(server.StorageDir, server.MaxMessageBytes)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.Init()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create database tables: %w", err)
	}
	server.store = db

	// Worker
	if server.WorkerInterval > 0 {
		server.Worker = &Worker{
			Store:       db,
			Interval:    server.WorkerInterval,
			BatchSize:   server.WorkerBatchSize,
			DeleteAfter: server.WorkerDeleteAfter,
			Logger:      server.logger,
		}
		go server.Worker.Start(server.ctx)
	}

	// Features
	if server.Metrics {
		router.Handle("/metrics", promhttp.Handler())
		server.middlewares = append(server.middlewares, middleware.Prometheus)
	}

	// Default middlewares
	server.mux = middleware.Logging(server.logger, server.mux)
	server.middlewares = append(server.middlewares, middleware.SecurityHeaders)

	// Add middlewares via http.Handler chaining
	for _, mw := range server.middlewares {
		server.mux = mw(server.mux)
	}

	// Health check
	healthHandler := &handlers.Health{
		Store: db,
	}
	router.Get("/health", healthHandler.GetHandleFunc)

	v := validator.New()

	// Queues
	queueHandler := &handlers.Queue{
		Store:     db,
		Validator: v,
		Logger:    server.logger,
	}
	router.Post("/queue/{queue}/message", queueHandler.SendHandleFunc)
	router.Post("/queue/{queue}/messages", queueHandler.SendBatchHandleFunc)
	router.Post("/queue/{queue}/receive", queueHandler.ReceiveHandleFunc)
	router.Get("/queue/{queue}/attributes", queueHandler.AttributesHandleFunc)
	router.Delete("/queue/{queue}", queueHandler.PurgeQueueHandleFunc)
	router.Get("/queues", queueHandler.ListHandleFunc)
	router.Delete("/queues", queueHandler.PurgeAllHandleFunc)
	router.Post("/message/delete", queueHandler.DeleteHandleFunc)
	router.Post("/message/delete-batch", queueHandler.DeleteBatchHandleFunc)
	router.Post("/message/visibility", queueHandler.ChangeVisibilityHandleFunc)

	// Schedules
	scheduleHandler := &handlers.Schedule{
		Store:     db,
		Validator: v,
		Logger:    server.logger,
	}
	router.Post("/schedule", scheduleHandler.CreateHandleFunc)
	router.Get("/schedule/{id}", scheduleHandler.GetByIDHandleFunc)
	router.Put("/schedule/{id}", scheduleHandler.PutByIDHandleFunc)
	router.Delete("/schedule/{id}", scheduleHandler.DeleteHandleFunc)
	router.Get("/schedules", scheduleHandler.ListHandleFunc)
	router.Post("/schedules/run-due", scheduleHandler.RunDueHandleFunc)

	return server, nil
}

// Start starts the listener of the server.
func (s *Server) Start() error {
	log := s.logger.With("component", "server")

	// Auto TLS will create listeners on port 80 and 443
	if s.AutoTLS {
		s.printBanner(":80, :443")
		log.Info("Starting server on :80 and :443")
		certmagic.DefaultACME.Agreed = true
		certmagic.DefaultACME.Email = "user@oss.com"
		return certmagic.HTTPS(s.Domains, s.mux)
	}

	// If no auto TLS, use specified server port
	// :{port}
	addr := fmt.Sprintf(":%d", s.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       5 * time.Second,
	}

	s.printBanner(addr)
	log.Info("Starting server on " + addr)

	// If custom cert and key provided, listen on specified server port via https
	if s.TLSCert != "" && s.TLSKey != "" {
		return httpServer.ListenAndServeTLS(s.TLSCert, s.TLSKey)
	}

	// No TLS requirements specified, listen on specified server port via http
	return httpServer.ListenAndServe()
}

// Stop stops the server and closes the store.
func (s *Server) Stop() {
	s.logger.Info("shutting down server")
	s.cancel()

	if s.store != nil {
		_ = s.store.Close()
	}
}

// validate validates the server configuration and checks for conflicting parameters.
func (s *Server) validate() error {
	if !s.Validation {
		return nil
	}

	if s.AutoTLS && (s.TLSCert != "" || s.TLSKey != "") {
		return errors.New("AutoTLS cannot be set along with TLS cert or TLS key")
	}

	if s.AutoTLS && len(s.Domains) == 0 {
		return errors.New("AutoTLS requires a domain to also be configured")
	}

	if s.TLSCert != "" && s.TLSKey == "" {
		return errors.New("TLS certificate is missing TLS key")
	}

	if s.TLSCert == "" && s.TLSKey != "" {
		return errors.New("TLS key is missing TLS certificate")
	}

	validLogFormats := []string{"json", "text", ""}
	if !slices.Contains(validLogFormats, s.LogFormat) {
		return fmt.Errorf("invalid log format. Valid log formats are: %v", validLogFormats)
	}

	if s.LogLevel != "" {
		_, err := log.ParseLevel(s.LogLevel)
		if err != nil {
			return err
		}
	}

	return nil
}

// getLogFormatter converts a log format string to usable log formatter
func getLogFormatter(logformat string) log.Formatter {
	switch logformat {
	case "json":
		return log.JSONFormatter
	}
	return log.TextFormatter
}

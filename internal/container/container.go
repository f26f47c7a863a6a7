package container

import (
	"fmt"
	"net/http"

	"leafscan/internal/config"
	"leafscan/internal/export"
	"leafscan/internal/logger"
	"leafscan/internal/observer"
	"leafscan/internal/service"
	"leafscan/internal/session"
	"leafscan/internal/storage"
	"leafscan/internal/transport"
	"leafscan/internal/vision"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	imageSource storage.ImageSource
	analyzer    vision.Analyzer
	sessions    *session.Store
	exporter    *export.Exporter
	events      *observer.Subject
	counters    *observer.CounterObserver
	service     service.DiagnosisService
	handler     http.Handler
}

// NewContainer builds the dependency graph
func NewContainer(cfg *config.Config) (*Container, error) {
	httpSource := storage.NewHTTPImageSource(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)
	var blobSource storage.ImageSource
	if cfg.AzureConfigured() {
		azure, err := storage.NewAzureImageSource(cfg.AzureStorageAccount, cfg.AzureStorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize azure image source: %w", err)
		}
		blobSource = azure
	}
	imageSource := storage.NewRoutingSource(httpSource, blobSource)

	analyzer := vision.NewClientFromConfig(cfg)
	sessions := session.NewStore(cfg.SessionTTL)
	exporter := export.NewExporter()

	events := observer.NewSubject()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	counters := observer.NewCounterObserver()
	events.Subscribe(counters)

	svc := service.NewDiagnosisService(analyzer, imageSource, sessions, exporter, events)
	handler := transport.NewHandler(svc, cfg)

	return &Container{
		config:      cfg,
		imageSource: imageSource,
		analyzer:    analyzer,
		sessions:    sessions,
		exporter:    exporter,
		events:      events,
		counters:    counters,
		service:     svc,
		handler:     handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Counters exposes the workflow counters
func (c *Container) Counters() *observer.CounterObserver {
	return c.counters
}

// Close releases background resources
func (c *Container) Close() {
	c.sessions.Close()
}

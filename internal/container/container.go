// Package container wires the service's dependency graph.
package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/ai-image-inspector-go/internal/analyzer"
	"github.com/anime-shed/ai-image-inspector-go/internal/config"
	"github.com/anime-shed/ai-image-inspector-go/internal/factory"
	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/internal/observer"
	"github.com/anime-shed/ai-image-inspector-go/internal/repository"
	"github.com/anime-shed/ai-image-inspector-go/internal/service"
	"github.com/anime-shed/ai-image-inspector-go/internal/storage"
	"github.com/anime-shed/ai-image-inspector-go/internal/transport"
	"github.com/anime-shed/ai-image-inspector-go/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Container holds all application dependencies
type Container struct {
	config               *config.Config
	imageFetcher         storage.ImageFetcher
	imageAnalyzer        analyzer.ImageAnalyzer
	imageRepository      repository.ImageRepository
	imageAnalysisService service.ImageAnalysisService
	workerPool           *analyzer.WorkerPool
	events               *observer.EventPublisher
	metrics              *observer.MetricsObserver
	handler              http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	gin.SetMode(cfg.GinMode)
	logger.SetLevel(cfg.LogLevel)

	// Build dependency graph
	components := factory.NewComponentFactory(cfg)
	imageFetcher, err := components.StorageFactory.CreateFetcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}
	imageAnalyzer := factory.NewAnalyzer(cfg)

	validator := validation.NewURLValidatorWithOptions(nil, cfg.AllowedURLHosts)
	imageRepository := repository.NewRemoteImageRepository(imageFetcher, validator)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	workerPool := analyzer.NewWorkerPool(cfg.MaxConcurrentAnalyses)
	imageAnalysisService := service.NewImageAnalysisService(imageRepository, imageAnalyzer, workerPool, events, cfg.AnalysisTimeout)
	handler := transport.NewHandler(imageAnalysisService, metrics, cfg)

	return &Container{
		config:               cfg,
		imageFetcher:         imageFetcher,
		imageAnalyzer:        imageAnalyzer,
		imageRepository:      imageRepository,
		imageAnalysisService: imageAnalysisService,
		workerPool:           workerPool,
		events:               events,
		metrics:              metrics,
		handler:              handler,
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

// Service returns the analysis service
func (c *Container) Service() service.ImageAnalysisService {
	return c.imageAnalysisService
}

// Shutdown waits for analyses that are still running.
func (c *Container) Shutdown() {
	c.workerPool.Wait()
}

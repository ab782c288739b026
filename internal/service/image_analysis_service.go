// Package service turns uploads and URLs into analysis verdicts, bounding
// concurrency and publishing lifecycle events.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/ai-image-inspector-go/internal/errors"
	"github.com/anime-shed/ai-image-inspector-go/internal/loader"
	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/internal/observer"
	"github.com/anime-shed/ai-image-inspector-go/internal/repository"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
)

// ImageAnalysisService analyzes images supplied as bytes or by URL. Every
// error it returns is an *apperrors.AppError whose Message is client-facing.
type ImageAnalysisService interface {
	AnalyzeBytes(ctx context.Context, data []byte) (*models.AnalysisResult, error)
	AnalyzeURL(ctx context.Context, imageURL string) (*models.AnalysisResult, error)
}

// imageAnalysisService implements ImageAnalysisService
type imageAnalysisService struct {
	imageRepo       repository.ImageRepository
	analyzer        analyzer.ImageAnalyzer
	pool            *analyzer.WorkerPool
	events          observer.Subject
	analysisTimeout time.Duration
}

// NewImageAnalysisService creates a new image analysis service. A zero
// analysisTimeout leaves only the caller's context in charge.
func NewImageAnalysisService(
	imageRepository repository.ImageRepository,
	imageAnalyzer analyzer.ImageAnalyzer,
	pool *analyzer.WorkerPool,
	events observer.Subject,
	analysisTimeout time.Duration,
) ImageAnalysisService {
	return &imageAnalysisService{
		imageRepo:       imageRepository,
		analyzer:        imageAnalyzer,
		pool:            pool,
		events:          events,
		analysisTimeout: analysisTimeout,
	}
}

// AnalyzeBytes scores an uploaded image
func (s *imageAnalysisService) AnalyzeBytes(ctx context.Context, data []byte) (*models.AnalysisResult, error) {
	return s.analyze(ctx, data, observer.SourceUpload, "Invalid image")
}

// AnalyzeURL fetches imageURL and scores it
func (s *imageAnalysisService) AnalyzeURL(ctx context.Context, imageURL string) (*models.AnalysisResult, error) {
	start := time.Now()
	data, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         imageURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, apperrors.NewFetchError("Failed to fetch URL: "+describe(err), err)
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		Source:         imageURL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Bytes:          len(data),
	})
	return s.analyze(ctx, data, imageURL, "Invalid image from URL")
}

func (s *imageAnalysisService) analyze(ctx context.Context, data []byte, source, invalidPrefix string) (*models.AnalysisResult, error) {
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, Source: source, Bytes: len(data)})

	if s.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analysisTimeout)
		defer cancel()
	}

	var (
		result     *models.AnalysisResult
		analyzeErr error
	)
	if err := s.pool.Do(ctx, func() {
		result, analyzeErr = s.analyzer.Analyze(data)
	}); err != nil {
		s.fail(ctx, source, start, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("Analysis timed out", err)
		}
		return nil, apperrors.NewTimeoutError("Analysis cancelled", err)
	}

	if analyzeErr != nil {
		s.fail(ctx, source, start, analyzeErr)
		var invalid *loader.InvalidImageError
		if errors.As(analyzeErr, &invalid) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s: %v", invalidPrefix, invalid), analyzeErr)
		}
		return nil, apperrors.NewInternalError("Analysis failed", analyzeErr)
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Label:          result.Label,
		Score:          result.Score,
		Bytes:          len(data),
	})
	return result, nil
}

func (s *imageAnalysisService) fail(ctx context.Context, source string, start time.Time, err error) {
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		Source:         source,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

func (s *imageAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	event.RequestID = logger.RequestID(ctx)
	s.events.NotifyObservers(ctx, event)
}

// describe prefers the short client-facing message of an AppError.
func describe(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

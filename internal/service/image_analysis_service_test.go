package service

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/ai-image-inspector-go/internal/errors"
	"github.com/anime-shed/ai-image-inspector-go/internal/fixtures"
	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/internal/observer"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
)

type stubRepository struct {
	data []byte
	err  error
}

func (r *stubRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	return r.data, r.err
}

func (r *stubRepository) ValidateImageURL(imageURL string) error {
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []observer.AnalysisEvent
}

func (o *recordingObserver) OnEvent(ctx context.Context, event observer.AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) GetObserverName() string { return "recording_observer" }

func (o *recordingObserver) types() []observer.EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]observer.EventType, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.EventType)
	}
	return out
}

type testEnv struct {
	service  ImageAnalysisService
	pool     *analyzer.WorkerPool
	metrics  *observer.MetricsObserver
	recorder *recordingObserver
}

func newTestEnv(repo *stubRepository, workers int, timeout time.Duration) *testEnv {
	env := &testEnv{
		pool:     analyzer.NewWorkerPool(workers),
		metrics:  observer.NewMetricsObserver(),
		recorder: &recordingObserver{},
	}
	events := observer.NewEventPublisher()
	events.Subscribe(env.metrics)
	events.Subscribe(env.recorder)
	env.service = NewImageAnalysisService(repo, analyzer.NewImageAnalyzer(analyzer.DefaultOptions()), env.pool, events, timeout)
	return env
}

func flatPNG() []byte {
	return fixtures.PNG(fixtures.Solid(32, 32, color.NRGBA{R: 90, G: 90, B: 90, A: 255}))
}

func TestAnalyzeBytes_Success(t *testing.T) {
	env := newTestEnv(&stubRepository{}, 2, time.Second)
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")

	result, err := env.service.AnalyzeBytes(ctx, flatPNG())
	if err != nil {
		t.Fatalf("AnalyzeBytes failed: %v", err)
	}
	if result.Label != models.LabelLikelyHuman {
		t.Errorf("Expected %q, got %q", models.LabelLikelyHuman, result.Label)
	}

	stats := env.metrics.Stats()
	if stats.TotalAnalyses != 1 || stats.SuccessfulAnalyses != 1 || stats.Labels[models.LabelLikelyHuman] != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	for _, e := range env.recorder.events {
		if e.RequestID != "req-42" || e.Source != observer.SourceUpload {
			t.Errorf("Expected request ID and upload source on %s, got %+v", e.EventType, e)
		}
	}
}

func TestAnalyzeBytes_InvalidImage(t *testing.T) {
	env := newTestEnv(&stubRepository{}, 1, time.Second)

	_, err := env.service.AnalyzeBytes(context.Background(), []byte("definitely not an image"))

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Type != apperrors.ErrorTypeValidation || !strings.HasPrefix(appErr.Message, "Invalid image: ") {
		t.Errorf("Unexpected error %+v", appErr)
	}
	want := []observer.EventType{observer.AnalysisStarted, observer.AnalysisFailed}
	if got := env.recorder.types(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected events %v, got %v", want, got)
	}
	if env.metrics.Stats().FailedAnalyses != 1 {
		t.Error("Expected one failed analysis")
	}
}

func TestAnalyzeURL(t *testing.T) {
	testCases := []struct {
		name       string
		repo       *stubRepository
		wantType   apperrors.ErrorType
		wantPrefix string
		wantEvents []observer.EventType
	}{
		{
			name:       "fetch failure",
			repo:       &stubRepository{err: errors.New("client error: status code 404")},
			wantType:   apperrors.ErrorTypeFetch,
			wantPrefix: "Failed to fetch URL: client error: status code 404",
			wantEvents: []observer.EventType{observer.ImageFetchFailed},
		},
		{
			name:       "validation failure keeps short message",
			repo:       &stubRepository{err: apperrors.NewValidationError("URL host not allowed", nil)},
			wantType:   apperrors.ErrorTypeFetch,
			wantPrefix: "Failed to fetch URL: URL host not allowed",
			wantEvents: []observer.EventType{observer.ImageFetchFailed},
		},
		{
			name:       "undecodable body",
			repo:       &stubRepository{data: []byte("<html></html>")},
			wantType:   apperrors.ErrorTypeValidation,
			wantPrefix: "Invalid image from URL: ",
			wantEvents: []observer.EventType{observer.ImageFetched, observer.AnalysisStarted, observer.AnalysisFailed},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(tc.repo, 1, time.Second)
			_, err := env.service.AnalyzeURL(context.Background(), "https://example.com/x.png")

			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Expected AppError, got %v", err)
			}
			if appErr.Type != tc.wantType || !strings.HasPrefix(appErr.Message, tc.wantPrefix) {
				t.Errorf("Unexpected error %+v", appErr)
			}
			if appErr.StatusCode != 400 {
				t.Errorf("Expected 400, got %d", appErr.StatusCode)
			}

			got := env.recorder.types()
			if len(got) != len(tc.wantEvents) {
				t.Fatalf("Expected events %v, got %v", tc.wantEvents, got)
			}
			for i := range got {
				if got[i] != tc.wantEvents[i] {
					t.Errorf("Expected events %v, got %v", tc.wantEvents, got)
				}
			}
		})
	}
}

func TestAnalyzeURL_Success(t *testing.T) {
	env := newTestEnv(&stubRepository{data: flatPNG()}, 1, time.Second)

	result, err := env.service.AnalyzeURL(context.Background(), "https://example.com/x.png")
	if err != nil {
		t.Fatalf("AnalyzeURL failed: %v", err)
	}
	if result.Score < 0 || result.Score > 1 {
		t.Errorf("Score out of range: %v", result.Score)
	}
	if stats := env.metrics.Stats(); stats.ImagesFetched != 1 || stats.SuccessfulAnalyses != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestAnalyzeBytes_TimesOutWaitingForWorker(t *testing.T) {
	env := newTestEnv(&stubRepository{}, 1, 50*time.Millisecond)

	release := make(chan struct{})
	if _, err := env.pool.Go(context.Background(), func() { <-release }); err != nil {
		t.Fatalf("failed to occupy worker: %v", err)
	}
	defer func() {
		close(release)
		env.pool.Wait()
	}()

	_, err := env.service.AnalyzeBytes(context.Background(), flatPNG())
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Fatalf("Expected timeout error, got %v", err)
	}
	if env.pool.GetStats().RejectedJobs != 1 {
		t.Errorf("Expected one rejected job, got %+v", env.pool.GetStats())
	}
}

package models

// AnalyzeURLRequest is the body of the analyze-url endpoints.
type AnalyzeURLRequest struct {
	URL string `json:"url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by the liveness endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse reports analysis counters since process start.
type StatsResponse struct {
	TotalAnalyses      int64            `json:"total_analyses"`
	SuccessfulAnalyses int64            `json:"successful_analyses"`
	FailedAnalyses     int64            `json:"failed_analyses"`
	ImagesFetched      int64            `json:"images_fetched"`
	FetchFailures      int64            `json:"fetch_failures"`
	Labels             map[string]int64 `json:"labels"`
	AverageDurationMs  float64          `json:"average_duration_ms"`
}

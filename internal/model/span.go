package model

// Span is the JSON form of a finished span as posted by the span exporter
// and served by the span store.
type Span struct {
	TraceID       string            `json:"traceId"`
	ID            string            `json:"id"`
	ParentID      string            `json:"parentId,omitempty"`
	Name          string            `json:"name"`
	Timestamp     int64             `json:"timestamp"`
	Duration      int64             `json:"duration"`
	Tags          map[string]string `json:"tags,omitempty"`
	LocalEndpoint map[string]string `json:"localEndpoint,omitempty"`
}

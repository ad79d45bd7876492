package model

import "time"

// ProcessedAtLayout is the ISO-8601 layout used for ProcessedRecord.ProcessedAt.
// It keeps millisecond precision, so a formatted time may read up to 1ms
// before the instant it was taken at.
const ProcessedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type Record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ProcessedRecord struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Processed   bool   `json:"processed"`
	ProcessedAt string `json:"processedAt"`
}

// Process returns a copy of r tagged as processed at t.
func (r Record) Process(t time.Time) ProcessedRecord {
	return ProcessedRecord{
		ID:          r.ID,
		Name:        r.Name,
		Processed:   true,
		ProcessedAt: t.UTC().Format(ProcessedAtLayout),
	}
}

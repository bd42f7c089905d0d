package models

import "time"

// Chunk is a contiguous run of non-blank source lines joined with "\n".
type Chunk struct {
	Index int
	Text  string
}

// IndexRecord is the unit persisted in the vector index. Text is stored as
// metadata so it can be handed to the model as context at query time.
type IndexRecord struct {
	ID     string
	Vector []float32
	Text   string
}

// SimilarityMatch is one nearest-neighbor hit returned by the vector index.
type SimilarityMatch struct {
	RecordID string
	Score    float32
	Text     string
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Source   string
	Chunks   int
	Records  []string
	Duration time.Duration
}

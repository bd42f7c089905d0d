package services

import (
	"context"
	"sort"
	"sync"

	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// fakeEmbedder maps text to a deterministic 3-dimensional vector.
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	batches [][]string
	err     error
	failOn  string
}

func (f *fakeEmbedder) vector(text string) []float32 {
	return []float32{float32(len(text)), 1, 0}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.failOn != "" && t == f.failOn {
			return nil, context.DeadlineExceeded
		}
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }
func (f *fakeEmbedder) Model() string  { return "fake-embedding" }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeIndex is an in-memory namespace. Query returns the canned matches if
// set, otherwise every stored record in id order.
type fakeIndex struct {
	mu          sync.Mutex
	records     map[string]models.IndexRecord
	upsertCalls [][]models.IndexRecord
	matches     []models.SimilarityMatch
	queryErr    error
	upsertErr   error
	queries     int
	lastTopK    int
	resets      int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: map[string]models.IndexRecord{}}
}

func (f *fakeIndex) Upsert(_ context.Context, records []models.IndexRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertCalls = append(f.upsertCalls, records)
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]models.SimilarityMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	f.lastTopK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.matches != nil {
		return f.matches, nil
	}
	var out []models.SimilarityMatch
	for _, id := range f.idsLocked() {
		out = append(out, models.SimilarityMatch{RecordID: id, Score: 1, Text: f.records[id].Text})
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (f *fakeIndex) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records), nil
}

func (f *fakeIndex) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.records = map[string]models.IndexRecord{}
	return nil
}

func (f *fakeIndex) Namespace() string { return "redux" }
func (f *fakeIndex) Close() error      { return nil }

func (f *fakeIndex) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idsLocked()
}

func (f *fakeIndex) idsLocked() []string {
	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeIndex) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upsertCalls)
}

// fakeGenerator records the prompt it was given.
type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	system string
	user   string
	answer string
	err    error
}

func (f *fakeGenerator) Complete(_ context.Context, systemPrompt, userMessage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.system, f.user = systemPrompt, userMessage
	return f.answer, f.err
}

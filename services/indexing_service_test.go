package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceLines(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "line %d\n", i)
		if i%7 == 0 {
			b.WriteString("\n   \n")
		}
	}
	return b.String()
}

func newTestIndexer(t *testing.T, emb Embedder, idx VectorIndex, opts IndexingOptions) *IndexingService {
	t.Helper()
	chunker, err := NewLineChunker(50)
	require.NoError(t, err)
	return NewIndexingService(chunker, emb, idx, opts, zerolog.Nop())
}

func TestIngestOneRecordPerChunk(t *testing.T) {
	emb := &fakeEmbedder{}
	idx := newFakeIndex()
	svc := newTestIndexer(t, emb, idx, IndexingOptions{EmbedBatchSize: 16})

	text := sourceLines(120)
	report, err := svc.Ingest(context.Background(), "redux-data.txt", text)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, []string{"vec_0", "vec_1", "vec_2"}, report.Records)
	assert.Equal(t, []string{"vec_0", "vec_1", "vec_2"}, idx.ids())

	chunks := svc.chunker.Split(text)
	for _, c := range chunks {
		rec := idx.records[RecordID(c.Index)]
		assert.Equal(t, c.Text, rec.Text)
		assert.Equal(t, emb.vector(c.Text), rec.Vector)
	}
	assert.Len(t, strings.Split(idx.records["vec_2"].Text, "\n"), 20)
	assert.Equal(t, 1, emb.callCount())
}

func TestIngestIsIdempotent(t *testing.T) {
	idx := newFakeIndex()
	svc := newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{})

	text := sourceLines(120)
	_, err := svc.Ingest(context.Background(), "src", text)
	require.NoError(t, err)
	first := idx.ids()

	_, err = svc.Ingest(context.Background(), "src", text)
	require.NoError(t, err)
	assert.Equal(t, first, idx.ids())
}

func TestIngestEmbedBatching(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		calls     int
	}{
		{name: "chunk by chunk", batchSize: 1, calls: 3},
		{name: "two per request", batchSize: 2, calls: 2},
		{name: "all at once", batchSize: 16, calls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &fakeEmbedder{}
			svc := newTestIndexer(t, emb, newFakeIndex(), IndexingOptions{EmbedBatchSize: tt.batchSize})

			_, err := svc.Ingest(context.Background(), "src", sourceLines(120))
			require.NoError(t, err)
			assert.Equal(t, tt.calls, emb.callCount())
			for _, b := range emb.batches {
				assert.LessOrEqual(t, len(b), tt.batchSize)
			}
		})
	}
}

func TestIngestUpsertBatching(t *testing.T) {
	idx := newFakeIndex()
	svc := newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{UpsertBatchSize: 2})

	report, err := svc.Ingest(context.Background(), "src", sourceLines(120))
	require.NoError(t, err)
	assert.Len(t, report.Records, 3)
	assert.Equal(t, 2, idx.upsertCount())
	assert.Len(t, idx.upsertCalls[0], 2)
	assert.Len(t, idx.upsertCalls[1], 1)
}

func TestIngestEmbedFailureLeavesIndexUntouched(t *testing.T) {
	text := sourceLines(120)
	chunker, err := NewLineChunker(50)
	require.NoError(t, err)
	last := chunker.Split(text)[2].Text

	idx := newFakeIndex()
	emb := &fakeEmbedder{failOn: last}
	svc := newTestIndexer(t, emb, idx, IndexingOptions{EmbedBatchSize: 1, Reset: true})

	_, err = svc.Ingest(context.Background(), "src", text)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, idx.upsertCount())
	assert.Zero(t, idx.resets)
}

func TestIngestUpsertFailure(t *testing.T) {
	idx := newFakeIndex()
	idx.upsertErr = errors.New("quota exceeded")
	svc := newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{})

	_, err := svc.Ingest(context.Background(), "src", sourceLines(10))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestIngestReset(t *testing.T) {
	idx := newFakeIndex()
	svc := newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{})
	_, err := svc.Ingest(context.Background(), "src", sourceLines(120))
	require.NoError(t, err)

	// Without reset, records from the longer run survive.
	_, err = svc.Ingest(context.Background(), "src", sourceLines(10))
	require.NoError(t, err)
	assert.Len(t, idx.ids(), 3)

	svc = newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{Reset: true})
	_, err = svc.Ingest(context.Background(), "src", sourceLines(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"vec_0"}, idx.ids())
	assert.Equal(t, 1, idx.resets)
}

func TestIngestEmptySource(t *testing.T) {
	emb := &fakeEmbedder{}
	idx := newFakeIndex()
	svc := newTestIndexer(t, emb, idx, IndexingOptions{})

	_, err := svc.Ingest(context.Background(), "empty.txt", "\n  \n\r\n")
	assert.ErrorIs(t, err, ErrEmptySource)
	assert.Zero(t, emb.callCount())
	assert.Zero(t, idx.upsertCount())
}

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redux-data.txt")
	require.NoError(t, os.WriteFile(path, []byte(sourceLines(60)), 0o644))

	idx := newFakeIndex()
	svc := newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{})
	report, err := svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Source)
	assert.Equal(t, []string{"vec_0", "vec_1"}, idx.ids())

	_, err = svc.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchReindexesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redux-data.txt")
	require.NoError(t, os.WriteFile(path, []byte("Redux\n"), 0o644))

	idx := newFakeIndex()
	svc := newTestIndexer(t, &fakeEmbedder{}, idx, IndexingOptions{Debounce: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx, path) }()

	// The watcher registers asynchronously, so keep writing until a
	// re-index is observed.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(sourceLines(60)), 0o644)
		return len(idx.ids()) == 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "vec_0", RecordID(0))
	assert.Equal(t, "vec_41", RecordID(41))
}

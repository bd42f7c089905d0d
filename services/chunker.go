package services

import (
	"iter"
	"slices"
	"strings"

	"github.com/AYushgupta4387/airtribe-hackathon/models"
)

// LineChunker splits text into fixed-size, non-overlapping runs of non-blank
// lines.
type LineChunker struct {
	size int
}

// NewLineChunker returns a chunker producing chunks of at most size lines.
func NewLineChunker(size int) (*LineChunker, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	return &LineChunker{size: size}, nil
}

// Size is the configured number of lines per chunk.
func (c *LineChunker) Size() int { return c.size }

// Chunks lazily yields the chunks of text in order. Blank lines are skipped;
// every chunk but the last holds exactly Size lines.
func (c *LineChunker) Chunks(text string) iter.Seq[models.Chunk] {
	return func(yield func(models.Chunk) bool) {
		batch := make([]string, 0, c.size)
		index := 0
		for line := range strings.SplitSeq(text, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			batch = append(batch, line)
			if len(batch) < c.size {
				continue
			}
			if !yield(models.Chunk{Index: index, Text: strings.Join(batch, "\n")}) {
				return
			}
			index++
			batch = batch[:0]
		}
		if len(batch) > 0 {
			yield(models.Chunk{Index: index, Text: strings.Join(batch, "\n")})
		}
	}
}

// Split collects Chunks into a slice.
func (c *LineChunker) Split(text string) []models.Chunk {
	return slices.Collect(c.Chunks(text))
}

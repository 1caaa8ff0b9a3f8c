package ingest

import (
	"context"
	"crypto/sha256"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dodam/internal/chunker"
	"dodam/internal/domain"
	"dodam/internal/vectorstore/memory"
)

// fakeEmbedder maps text to a deterministic 4-dim vector.
type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.fail {
		return nil, assert.AnError
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		sum := sha256.Sum256([]byte(t))
		out[i] = []float64{float64(sum[0]), float64(sum[1]), float64(sum[2]), float64(sum[3])}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 4 }
func (f *fakeEmbedder) Model() string  { return "fake" }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeKB(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestIngestDirStoresChunksWithMetadata(t *testing.T) {
	dir := writeKB(t, map[string]string{
		"fraud_coping.txt": strings.Repeat("a", 1300),
	})
	store := memory.NewStorage()
	ix := NewIndexer(mustChunker(t, 600, 120), &fakeEmbedder{}, store, discard())

	report, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.Equal(t, "fraud", report.Files[0].Category)
	assert.Equal(t, "coping", report.Files[0].Section)
	assert.Equal(t, 3, report.Files[0].Chunks)
	assert.Equal(t, 3, report.ChunksUpserted)
	assert.Equal(t, 3, store.Len())

	hits, err := store.Search(context.Background(), []float64{1, 1, 1, 1}, 5, domain.Filter{Category: "fraud"})
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestIngestDirIsIdempotent(t *testing.T) {
	dir := writeKB(t, map[string]string{
		"fraud_coping.txt": strings.Repeat("b", 1300),
	})
	store := memory.NewStorage()

	ix := NewIndexer(mustChunker(t, 600, 120), &fakeEmbedder{}, store, discard())
	_, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	// A fresh indexer over the unchanged directory must produce the same
	// ids and therefore the same entry count.
	ix2 := NewIndexer(mustChunker(t, 600, 120), &fakeEmbedder{}, store, discard())
	_, err = ix2.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, store.Len(), "re-ingestion must not duplicate entries")
}

func TestIngestDirSkipsBadFilesAndContinues(t *testing.T) {
	dir := writeKB(t, map[string]string{
		"_nocategory.txt": "some text",
		"empty_file.txt":  "   \n ",
		"사기_예방.txt":       "모르는 링크를 누르지 마세요. 의심스러우면 끊으세요.",
		"notes.md":        "ignored extension",
	})
	store := memory.NewStorage()
	ix := NewIndexer(mustChunker(t, 600, 120), &fakeEmbedder{}, store, discard())

	report, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, report.Files, 3, ".md file is not considered")
	assert.Equal(t, 2, report.Skipped())
	assert.Equal(t, 1, report.ChunksUpserted)
	assert.Equal(t, 1, store.Len())
}

func TestIngestDirEmbeddingFailureDoesNotAbortBatch(t *testing.T) {
	dir := writeKB(t, map[string]string{
		"사기_예방.txt": "본문",
	})
	store := memory.NewStorage()
	ix := NewIndexer(mustChunker(t, 600, 120), &fakeEmbedder{fail: true}, store, discard())

	report, err := ix.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped())
	assert.Equal(t, 0, store.Len())
}

func TestIngestDirEmptyDirectory(t *testing.T) {
	ix := NewIndexer(mustChunker(t, 600, 120), &fakeEmbedder{}, memory.NewStorage(), discard())
	_, err := ix.IngestDir(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestMetadataFromFilename(t *testing.T) {
	cases := []struct {
		name     string
		category string
		section  string
	}{
		{"보이스피싱_대처방안.txt", "보이스피싱", "대처방안"},
		{"스미싱.txt", "스미싱", domain.SectionOther},
		{"사기_신고처_추가.txt", "사기", "신고처"},
		{"_대처방안.txt", "", "대처방안"},
	}
	for _, tc := range cases {
		category, section := MetadataFromFilename(tc.name)
		assert.Equal(t, tc.category, category, tc.name)
		assert.Equal(t, tc.section, section, tc.name)
	}
}

func TestChunkIDIsStable(t *testing.T) {
	a := ChunkID("사기_예방.txt", 0, "본문")
	b := ChunkID("사기_예방.txt", 0, "본문")
	c := ChunkID("사기_예방.txt", 1, "본문")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func mustChunker(t *testing.T, size, overlap int) *chunker.WindowChunker {
	t.Helper()
	ch, err := chunker.NewWindowChunker(size, overlap)
	require.NoError(t, err)
	return ch
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"dodam/internal/chunker"
	"dodam/internal/domain"
)

// chunkNamespace seeds the deterministic chunk ids. Fixed so that
// re-running ingestion over unchanged content produces the same id set.
var chunkNamespace = uuid.MustParse("a7f1c0de-4b2a-4f5e-9d3c-1e8b6a2f0c47")

// FileResult records the outcome of ingesting one knowledge-base file.
type FileResult struct {
	Name     string
	Category string
	Section  string
	Chunks   int
	Skipped  bool
	Reason   string
}

// Report summarizes one ingestion run.
type Report struct {
	Files          []FileResult
	ChunksUpserted int
}

// Skipped counts the files that were not indexed.
func (r *Report) Skipped() int {
	n := 0
	for _, f := range r.Files {
		if f.Skipped {
			n++
		}
	}
	return n
}

// Indexer reads knowledge-base files, chunks them, embeds the chunks in
// batches and upserts them into the vector store. Intended to run as an
// offline batch job, not concurrently with query traffic.
type Indexer struct {
	chunker  *chunker.WindowChunker
	embedder domain.Embedder
	store    domain.VectorStore
	log      *slog.Logger

	initialized bool
}

func NewIndexer(ch *chunker.WindowChunker, embedder domain.Embedder, store domain.VectorStore, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{chunker: ch, embedder: embedder, store: store, log: log}
}

// IngestDir ingests every .txt file in dir. A single unreadable or
// malformed file is skipped with a warning; the rest of the batch
// continues. Re-ingesting unchanged files upserts the same ids.
func (ix *Indexer) IngestDir(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base dir: %w", err)
	}
	report := &Report{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		res := ix.ingestFile(ctx, filepath.Join(dir, entry.Name()))
		report.Files = append(report.Files, res)
		report.ChunksUpserted += res.Chunks
	}
	if len(report.Files) == 0 {
		return nil, fmt.Errorf("no .txt documents found in %s", dir)
	}
	return report, nil
}

func (ix *Indexer) ingestFile(ctx context.Context, path string) FileResult {
	name := filepath.Base(path)
	category, section := MetadataFromFilename(name)
	res := FileResult{Name: name, Category: category, Section: section}

	if category == "" {
		ix.log.Warn("skipping file without category token", "file", name)
		res.Skipped, res.Reason = true, "no category in filename"
		return res
	}
	data, err := os.ReadFile(path)
	if err != nil {
		ix.log.Warn("skipping unreadable file", "file", name, "err", err)
		res.Skipped, res.Reason = true, "unreadable"
		return res
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		ix.log.Warn("skipping empty file", "file", name)
		res.Skipped, res.Reason = true, "empty"
		return res
	}

	texts := ix.chunker.Chunk(content)
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:       ChunkID(name, i, text),
			Source:   name,
			Category: category,
			Section:  section,
			Index:    i,
			Text:     text,
		}
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		ix.log.Warn("skipping file after embedding failure", "file", name, "err", err)
		res.Skipped, res.Reason = true, "embedding failed"
		return res
	}
	if !ix.initialized {
		if err := ix.store.Init(ctx, len(vectors[0])); err != nil {
			ix.log.Warn("skipping file after store init failure", "file", name, "err", err)
			res.Skipped, res.Reason = true, "store init failed"
			return res
		}
		ix.initialized = true
	}
	if err := ix.store.Upsert(ctx, chunks, vectors); err != nil {
		ix.log.Warn("skipping file after upsert failure", "file", name, "err", err)
		res.Skipped, res.Reason = true, "upsert failed"
		return res
	}

	res.Chunks = len(chunks)
	ix.log.Info("indexed file", "file", name, "category", category, "section", section, "chunks", len(chunks))
	return res
}

// MetadataFromFilename derives (category, section) from a knowledge-base
// file name like "보이스피싱_대처방안.txt". The category is the first
// "_"-delimited token; the section is the second, defaulting to the
// sentinel when absent.
func MetadataFromFilename(name string) (string, string) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	category := strings.TrimSpace(parts[0])
	section := domain.SectionOther
	if len(parts) >= 2 {
		if s := strings.TrimSpace(parts[1]); s != "" {
			section = s
		}
	}
	return category, section
}

// ChunkID derives the stable identifier for a chunk from its source
// file name, position and text.
func ChunkID(source string, index int, text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s::%d::%s", source, index, text))).String()
}

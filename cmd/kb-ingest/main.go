package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dodam/internal/chunker"
	"dodam/internal/config"
	"dodam/internal/domain"
	embopenai "dodam/internal/embedding/openai"
	"dodam/internal/ingest"
	"dodam/internal/vectorstore/memory"
	"dodam/internal/vectorstore/qdrant"
)

var (
	configPath string
	ingestDir  string
)

var rootCmd = &cobra.Command{
	Use:   "kb-ingest",
	Short: "Chunk, embed and index knowledge-base files",
	Long: `kb-ingest walks a directory of .txt knowledge-base files, splits each
into overlapping chunks, embeds them and upserts the vectors into the
configured vector store. Re-running over unchanged files is idempotent.`,
	RunE: runIngest,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.Flags().StringVarP(&ingestDir, "dir", "d", "kb", "directory of knowledge-base .txt files")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ch, err := chunker.NewWindowChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return err
	}

	embedder, err := embopenai.NewClient(embopenai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	store, err := buildVectorStore(cfg)
	if err != nil {
		return err
	}
	if cfg.VectorStore.Type == "memory" {
		log.Warn("memory vector store does not outlive this process; configure qdrant for real ingestion")
	}

	indexer := ingest.NewIndexer(ch, embedder, store, log)
	report, err := indexer.IngestDir(cmd.Context(), ingestDir)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func buildVectorStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, errors.New("vector_store.qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.VectorStore.Type)
	}
}

func printReport(report *ingest.Report) {
	rows := [][]string{}
	for _, f := range report.Files {
		status := "indexed"
		if f.Skipped {
			status = "skipped: " + f.Reason
		}
		rows = append(rows, []string{
			f.Name, f.Category, f.Section, fmt.Sprintf("%d", f.Chunks), status,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("File", "Category", "Section", "Chunks", "Status").
		Rows(rows...)

	fmt.Println(t)
	fmt.Printf("files: %d  skipped: %d  chunks upserted: %d\n",
		len(report.Files), report.Skipped(), report.ChunksUpserted)
}

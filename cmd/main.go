package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pizza-rag/internal/chromemdb"
	"pizza-rag/internal/config"
	"pizza-rag/internal/embedding"
	"pizza-rag/internal/helper"
	"pizza-rag/internal/indexer"
	"pizza-rag/internal/llmservice"
	"pizza-rag/internal/models"
	"pizza-rag/internal/parser"
	"pizza-rag/internal/rag"
	"pizza-rag/internal/server"
	"pizza-rag/internal/vectorstore"
)

const defaultConfigFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigFilePath, "Path to the YAML config file")
	query := flag.String("query", "", "Answer a single question and exit")
	dryRun := flag.Bool("dry-run", false, "Load and chunk the documents, print them and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setupLogger(cfg.Debug)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	splitter := parser.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	files := []indexer.SourceFile{
		{Path: cfg.Documents.MenuPath(), Source: models.SourceMenu},
		{Path: cfg.Documents.AllergensPath(), Source: models.SourceAllergens},
	}

	if *dryRun {
		chunks, err := indexer.NewIndexer(nil, nil, splitter, files...).LoadChunks()
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing documents")
		}
		helper.PrettyPrint(chunks)
		return
	}

	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database")
	}
	defer store.Close()

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	llm, err := llmservice.New(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing language model")
	}

	// the index is complete before any question is served
	if _, err := indexer.NewIndexer(store, embedder, splitter, files...).Build(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error building index")
	}
	exportSnapshot(ctx, store, &cfg.VectorStore)

	assistant := rag.NewRAG(rag.NewRetriever(store, embedder, cfg.RAG.TopK), llm)

	if *query != "" {
		answerOnce(ctx, assistant, *query)
		return
	}

	srv, err := server.NewServer(assistant, store, &cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating server")
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping server")
		}
	}()
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupLogger(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

// exportSnapshot writes the chromem collection to a file when configured.
func exportSnapshot(ctx context.Context, store vectorstore.Store, cfg *config.VectorStoreConfig) {
	if cfg.ExportPath == "" {
		return
	}
	m, ok := store.(*chromemdb.VectorDBManager)
	if !ok {
		log.Warn().Str("type", cfg.Type).Msg("Snapshot export is only supported for chromem")
		return
	}
	if err := m.Export(ctx, cfg.ExportPath); err != nil {
		log.Fatal().Err(err).Msg("Error exporting collection")
	}
}

func answerOnce(ctx context.Context, assistant *rag.RAG, query string) {
	response, err := assistant.Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%v\n\n", response.Sources)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

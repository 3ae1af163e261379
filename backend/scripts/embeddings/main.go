package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mindweave/backend/internal/graph"
	"mindweave/backend/internal/store"
	"mindweave/backend/pkg/config"
	"mindweave/backend/pkg/logger"
)

func main() {
	concurrency := flag.Int("concurrency", 4, "Parallel embedding requests")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting embedding backfill...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required for embedding generation")
	}

	contentStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open content store", zap.Error(err))
	}
	defer contentStore.Close()

	ctx := context.Background()
	items, err := contentStore.ListMissingEmbeddings(ctx)
	if err != nil {
		log.Fatal("Failed to list content missing embeddings", zap.Error(err))
	}
	if len(items) == 0 {
		log.Info("All content already has embeddings")
		return
	}
	log.Info("Generating embeddings", zap.Int("items", len(items)))

	client := openai.NewClient(cfg.OpenAIAPIKey)

	var repo *graph.Repository
	if cfg.GraphConfigured() {
		var driver neo4j.DriverWithContext
		driver, err = graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal("Failed to connect to Neo4j", zap.Error(err))
		}
		defer driver.Close(ctx)
		repo = graph.NewRepository(driver, contentStore, graph.Options{
			MinSimilarity: cfg.MinSimilarity,
			NeighborLimit: cfg.NeighborLimit,
			MaxEdges:      cfg.MaxGraphEdges,
		})
	} else {
		log.Warn("NEO4J_URI not set, skipping similarity sync")
		repo = graph.NewRepository(nil, contentStore, graph.DefaultOptions())
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(*concurrency)

	for _, item := range items {
		item := item
		group.Go(func() error {
			input := item.Title
			if tags := item.AllTags(); len(tags) > 0 {
				input += "\nTags: " + strings.Join(tags, ", ")
			}

			resp, err := client.CreateEmbeddings(groupCtx, openai.EmbeddingRequest{
				Input: []string{input},
				Model: openai.EmbeddingModel(cfg.EmbeddingModel),
			})
			if err != nil {
				return fmt.Errorf("embedding request failed for %s: %w", item.ID, err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("empty embedding response for %s", item.ID)
			}

			if err := contentStore.UpsertEmbedding(groupCtx, item.ID, resp.Data[0].Embedding); err != nil {
				return err
			}

			// Derived-state maintenance is best effort; log and continue
			if err := repo.SyncSimilarityEdges(groupCtx, item.ID, item.UserID); err != nil {
				log.Error("Similarity sync failed",
					zap.String("content_id", item.ID),
					zap.Error(err),
				)
			}

			log.Debug("Embedded", zap.String("content_id", item.ID), zap.String("title", item.Title))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Fatal("Embedding backfill failed", zap.Error(err))
	}
	log.Info("Embedding backfill complete", zap.Int("items", len(items)))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"mindweave/backend/internal/graph"
	"mindweave/backend/internal/store"
	"mindweave/backend/pkg/config"
	"mindweave/backend/pkg/logger"
)

const embeddingDims = 64

type sample struct {
	title    string
	kind     string
	tags     []string
	autoTags []string
}

var samples = []sample{
	{"TypeScript generics deep dive", store.TypeNote, []string{"ts", "types"}, []string{"programming"}},
	{"React server components", store.TypeLink, []string{"react"}, []string{"frontend", "programming"}},
	{"Go context patterns", store.TypeNote, []string{"go", "concurrency"}, []string{"programming"}},
	{"Neo4j Cypher cheat sheet", store.TypeFile, []string{"neo4j", "cypher"}, []string{"databases"}},
	{"pgvector similarity search", store.TypeLink, []string{"postgres", "embeddings"}, []string{"databases"}},
	{"React state management notes", store.TypeNote, []string{"react", "state"}, []string{"frontend"}},
	{"Force-directed layouts explained", store.TypeLink, []string{"visualization", "graphs"}, nil},
	{"Community detection survey", store.TypeFile, []string{"graphs", "clustering"}, nil},
}

func main() {
	userID := flag.String("user-id", "demo-user", "User to seed content for")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	contentStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open content store", zap.Error(err))
	}
	defer contentStore.Close()

	ctx := context.Background()
	for _, s := range samples {
		item := &store.Content{
			ID:       uuid.NewString(),
			UserID:   *userID,
			Title:    s.title,
			Type:     s.kind,
			Tags:     s.tags,
			AutoTags: s.autoTags,
		}
		if err := contentStore.UpsertContent(ctx, item); err != nil {
			log.Fatal("Failed to seed content", zap.String("title", s.title), zap.Error(err))
		}
		if err := contentStore.UpsertEmbedding(ctx, item.ID, fakeEmbedding(s)); err != nil {
			log.Fatal("Failed to seed embedding", zap.String("title", s.title), zap.Error(err))
		}
	}
	log.Info("Seeded content", zap.Int("items", len(samples)), zap.String("user_id", *userID))

	if !cfg.GraphConfigured() {
		log.Warn("NEO4J_URI not set, skipping graph sync")
		return
	}

	var driver neo4j.DriverWithContext
	driver, err = graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	defer driver.Close(ctx)

	repo := graph.NewRepository(driver, contentStore, graph.Options{
		MinSimilarity: cfg.MinSimilarity,
		NeighborLimit: cfg.NeighborLimit,
		MaxEdges:      cfg.MaxGraphEdges,
	})

	result, err := repo.FullSync(ctx, *userID)
	if err != nil {
		log.Fatal("Full sync failed", zap.Error(err))
	}
	log.Info("Graph seeded",
		zap.Int("nodes_created", result.NodesCreated),
		zap.Int("edges_created", result.EdgesCreated),
	)
}

// fakeEmbedding builds a deterministic vector from the sample's words and
// tags, so related samples land near each other without an embedding
// service.
func fakeEmbedding(s sample) []float32 {
	v := make([]float32, embeddingDims)
	var tokens []string
	tokens = append(tokens, strings.Fields(strings.ToLower(s.title))...)
	tokens = append(tokens, s.tags...)
	tokens = append(tokens, s.autoTags...)

	for _, token := range tokens {
		h := fnv.New32a()
		h.Write([]byte(token))
		v[h.Sum32()%embeddingDims] += 1
	}

	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

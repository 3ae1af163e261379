package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mindweave/backend/internal/graph"
	"mindweave/backend/internal/graphview"
	"mindweave/backend/internal/store"
	"mindweave/backend/pkg/config"
	"mindweave/backend/pkg/logger"
)

const syncTimeout = 30 * time.Second

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Open the content store
	contentStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open content store", zap.Error(err))
	}
	defer contentStore.Close()

	// Initialize Neo4j driver; absence of configuration puts the graph
	// mirror in no-op mode without degrading anything else
	ctx := context.Background()
	var driver neo4j.DriverWithContext
	if cfg.GraphConfigured() {
		driver, err = graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal("Failed to connect to Neo4j", zap.Error(err))
		}
		defer driver.Close(ctx)
	} else {
		log.Warn("NEO4J_URI not set, graph features disabled")
	}

	graphRepo := graph.NewRepository(driver, contentStore, graph.Options{
		MinSimilarity: cfg.MinSimilarity,
		NeighborLimit: cfg.NeighborLimit,
		MaxEdges:      cfg.MaxGraphEdges,
	})

	// Coalesces concurrent full resyncs per user; running two for the same
	// user concurrently is unsafe
	var resyncGroup singleflight.Group

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "graph": graphRepo.Available()})
	})

	// API routes
	api := router.Group("/api")
	{
		// Create or update content. The graph mirror is derived state:
		// a sync failure is logged, never surfaced to the content write.
		api.POST("/content", func(c *gin.Context) {
			var req struct {
				ID       string   `json:"id"`
				UserID   string   `json:"user_id" binding:"required"`
				Title    string   `json:"title" binding:"required"`
				Type     string   `json:"type" binding:"required"`
				Tags     []string `json:"tags"`
				AutoTags []string `json:"auto_tags"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.ID == "" {
				req.ID = uuid.NewString()
			}

			item := &store.Content{
				ID:       req.ID,
				UserID:   req.UserID,
				Title:    req.Title,
				Type:     req.Type,
				Tags:     req.Tags,
				AutoTags: req.AutoTags,
			}
			if err := contentStore.UpsertContent(c.Request.Context(), item); err != nil {
				log.Error("Failed to upsert content", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save content"})
				return
			}

			go func(contentID string) {
				ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
				defer cancel()
				if err := graphRepo.UpsertContent(ctx, contentID); err != nil {
					log.Error("Graph sync failed", zap.String("content_id", contentID), zap.Error(err))
				}
			}(item.ID)

			c.JSON(http.StatusOK, item)
		})

		// Delete content from the store and the mirror
		api.DELETE("/content/:id", func(c *gin.Context) {
			contentID := c.Param("id")

			if err := contentStore.DeleteContent(c.Request.Context(), contentID); err != nil {
				log.Error("Failed to delete content", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete content"})
				return
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
				defer cancel()
				if err := graphRepo.DeleteContent(ctx, contentID); err != nil {
					log.Error("Graph delete failed", zap.String("content_id", contentID), zap.Error(err))
				}
			}()

			c.JSON(http.StatusOK, gin.H{"status": "deleted"})
		})

		// Store an embedding, then recompute the node's similarity edges
		api.PUT("/content/:id/embedding", func(c *gin.Context) {
			contentID := c.Param("id")
			var req struct {
				UserID string    `json:"user_id" binding:"required"`
				Vector []float32 `json:"vector" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if err := contentStore.UpsertEmbedding(c.Request.Context(), contentID, req.Vector); err != nil {
				log.Error("Failed to store embedding", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store embedding"})
				return
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
				defer cancel()
				if err := graphRepo.SyncSimilarityEdges(ctx, contentID, req.UserID); err != nil {
					log.Error("Similarity sync failed", zap.String("content_id", contentID), zap.Error(err))
				}
			}()

			c.JSON(http.StatusOK, gin.H{"status": "stored"})
		})

		// Full resync: clear and rebuild one user's subgraph. The one sync
		// operation whose failure the caller can react to.
		api.POST("/graph/sync", func(c *gin.Context) {
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}

			result, err, shared := resyncGroup.Do(userID, func() (interface{}, error) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				return graphRepo.FullSync(ctx, userID)
			})
			if err != nil {
				log.Error("Full resync failed", zap.String("user_id", userID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Full resync failed"})
				return
			}

			counts := result.(*graph.SyncResult)
			c.JSON(http.StatusOK, gin.H{
				"nodes_created": counts.NodesCreated,
				"edges_created": counts.EdgesCreated,
				"coalesced":     shared,
			})
		})

		// Full graph above a similarity threshold
		api.GET("/graph", func(c *gin.Context) {
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}
			minSimilarity := queryFloat(c, "min_similarity", 0.5)
			limit := queryInt(c, "limit", 100)

			data, err := graphRepo.GetFullGraph(c.Request.Context(), userID, minSimilarity, limit)
			if err != nil {
				log.Error("Graph query failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Graph query failed"})
				return
			}
			if data == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store not configured"})
				return
			}
			c.JSON(http.StatusOK, data)
		})

		// Rendering-ready graph: communities, centrality sizing, layout
		api.GET("/graph/view", func(c *gin.Context) {
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}
			minSimilarity := queryFloat(c, "min_similarity", 0.5)
			limit := queryInt(c, "limit", 100)

			data, err := graphRepo.GetFullGraph(c.Request.Context(), userID, minSimilarity, limit)
			if err != nil {
				log.Error("Graph query failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Graph query failed"})
				return
			}
			if data == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store not configured"})
				return
			}

			opts := graphview.DefaultLayoutOptions()
			opts.Seed = time.Now().UnixNano()
			c.JSON(http.StatusOK, graphview.Enrich(data, opts))
		})

		// K-hop neighborhood of one node
		api.GET("/graph/neighborhood/:id", func(c *gin.Context) {
			nodeID := c.Param("id")
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}
			hops := queryInt(c, "hops", 2)

			data, err := graphRepo.GetNodeNeighborhood(c.Request.Context(), nodeID, userID, hops)
			if err != nil {
				log.Error("Neighborhood query failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Neighborhood query failed"})
				return
			}
			if data == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store not configured"})
				return
			}
			c.JSON(http.StatusOK, data)
		})

		// Shortest path between two nodes
		api.GET("/graph/path", func(c *gin.Context) {
			userID := c.Query("user_id")
			sourceID := c.Query("source")
			targetID := c.Query("target")
			if userID == "" || sourceID == "" || targetID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, source and target are required"})
				return
			}

			data, err := graphRepo.GetShortestPath(c.Request.Context(), sourceID, targetID, userID)
			if err != nil {
				log.Error("Path query failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Path query failed"})
				return
			}
			if data == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store not configured"})
				return
			}
			c.JSON(http.StatusOK, data)
		})

		// Tag clusters
		api.GET("/graph/clusters", func(c *gin.Context) {
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}
			minCount := queryInt(c, "min_count", 2)

			clusters, err := graphRepo.GetTagClusters(c.Request.Context(), userID, minCount)
			if err != nil {
				log.Error("Cluster query failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Cluster query failed"})
				return
			}
			if clusters == nil && !graphRepo.Available() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store not configured"})
				return
			}
			if clusters == nil {
				clusters = []graph.TagCluster{}
			}
			c.JSON(http.StatusOK, gin.H{"clusters": clusters})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port), zap.Bool("graph_enabled", graphRepo.Available()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// queryFloat reads a float query parameter with a default
func queryFloat(c *gin.Context, key string, defaultValue float64) float64 {
	if raw := c.Query(key); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

// queryInt reads an int query parameter with a default
func queryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return defaultValue
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

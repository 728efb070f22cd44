package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"word-weaver-service/internal/app"
	"word-weaver-service/internal/auth"
	"word-weaver-service/internal/config"
	"word-weaver-service/internal/infra/memory"
	pgstore "word-weaver-service/internal/infra/postgres"
	rediscache "word-weaver-service/internal/infra/redis"
	"word-weaver-service/internal/store"
	transport "word-weaver-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the word weaver server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var st store.DocumentStore = memory.NewDocumentStore()
	if pool != nil {
		st = pgstore.NewDocumentStore(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Catalog.CacheTTL, 5*time.Minute)
	loader := app.NewCatalogLoader(st)
	var cache app.CatalogCache
	if redisClient != nil {
		cache = rediscache.NewCatalogCache(redisClient, loader, cacheTTL)
	} else {
		cache = memory.NewCatalogCache(loader, cacheTTL)
	}

	hasher := auth.NewHasher()
	tokens := auth.NewTokenService(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	snapshots := app.NewSnapshotService(st, cache)
	catalog := app.NewCatalogService(st, cache)
	enrollment := app.NewEnrollmentService(st)
	users := app.NewUserService(st, hasher, tokens, enrollment)
	enrollment.AttachDirectory(users)
	feed := app.NewLeaderboardFeed()
	progress := app.NewProgressService(st, users, feed)

	// Snapshot the existing catalog before anything else touches it, then
	// seed only if the catalog is truly empty.
	snapshots.Startup(ctx)

	api := transport.NewAPI(users, catalog, snapshots, enrollment, progress, feed, tokens)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting word weaver service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"home-trivia-service/internal/app"
	"home-trivia-service/internal/config"
	"home-trivia-service/internal/domain"
	"home-trivia-service/internal/infra/file"
	"home-trivia-service/internal/infra/identity"
	"home-trivia-service/internal/infra/memory"
	pgloader "home-trivia-service/internal/infra/postgres"
	redisinfra "home-trivia-service/internal/infra/redis"
	transport "home-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia game server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.CatalogLoader = file.NewStaticCatalog(sampleCatalog())
	if pool != nil {
		loader = pgloader.NewCatalogLoader(pool)
	} else if cfg.Catalog.Path != "" {
		loader = file.NewCatalog(cfg.Catalog.Path)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if redisClient != nil {
		loader = redisinfra.NewCatalogCache(redisClient, loader, catalogTTL)
	}
	bank := memory.NewQuestionBank(loader, catalogTTL)

	var persister app.Persister
	if redisClient != nil {
		persister = redisinfra.NewStateStore(redisClient)
	}

	// Load before the service is built: constructing it publishes defaults,
	// which would overwrite the persisted state.
	var restored map[string]domain.EntityState
	if persister != nil {
		restored, err = persister.Load(ctx)
		if err != nil {
			log.Printf("load persisted state: %v", err)
		}
	}

	board := app.NewBoard(persister)

	var users app.IdentityDirectory
	if cfg.Identity.BaseURL != "" {
		timeout := config.TTLDuration(cfg.Identity.Timeout, 5*time.Second)
		users = identity.NewDirectory(cfg.Identity.BaseURL, timeout)
	}

	difficulty, _ := domain.ParseDifficulty(cfg.Game.Difficulty)
	game := app.NewGameService(app.Deps{
		Board: board,
		Bank:  bank,
		Users: users,
		Defaults: app.Defaults{
			TeamCount:   cfg.Game.TeamCount,
			Difficulty:  difficulty,
			TimerLength: cfg.Game.TimerLength,
		},
	})
	defer game.Close()

	if len(restored) > 0 {
		game.Restore(restored)
		log.Printf("restored %d entities from previous run", len(restored))
	}

	wsHandler := transport.NewWSHandler(game, board)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
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

// sampleCatalog provides a tiny built-in question set so the server is
// playable without a database or catalog file.
func sampleCatalog() []domain.Question {
	return []domain.Question{
		{
			ID:              1,
			Category:        "Science",
			Question:        "What planet is known as the Red Planet?",
			AnswerA:         "Venus",
			AnswerB:         "Mars",
			AnswerC:         "Jupiter",
			CorrectAnswer:   "B",
			FunFact:         "Iron oxide dust gives Mars its reddish color.",
			DifficultyLevel: domain.DifficultyEasy,
		},
		{
			ID:              2,
			Category:        "Geography",
			Question:        "Which is the longest river in the world?",
			AnswerA:         "The Nile",
			AnswerB:         "The Amazon",
			AnswerC:         "The Yangtze",
			CorrectAnswer:   "A",
			FunFact:         "The Nile flows through eleven countries.",
			DifficultyLevel: domain.DifficultyEasy,
		},
		{
			ID:              3,
			Category:        "Animals",
			Question:        "How many hearts does an octopus have?",
			AnswerA:         "One",
			AnswerB:         "Two",
			AnswerC:         "Three",
			CorrectAnswer:   "C",
			FunFact:         "Two pump blood to the gills, one to the rest of the body.",
			DifficultyLevel: domain.DifficultyMedium,
		},
		{
			ID:              4,
			Category:        "Music",
			Question:        "How many strings does a standard violin have?",
			AnswerA:         "Four",
			AnswerB:         "Five",
			AnswerC:         "Six",
			CorrectAnswer:   "A",
			FunFact:         "Violin strings were once made from sheep gut.",
			DifficultyLevel: domain.DifficultyKids,
		},
	}
}

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

	"pylearn-quiz-service/internal/app"
	"pylearn-quiz-service/internal/config"
	"pylearn-quiz-service/internal/domain"
	"pylearn-quiz-service/internal/grading"
	"pylearn-quiz-service/internal/infra/memory"
	pgloader "pylearn-quiz-service/internal/infra/postgres"
	redisinfra "pylearn-quiz-service/internal/infra/redis"
	"pylearn-quiz-service/internal/infra/sandbox"
	transport "pylearn-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz engine server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	var progress app.ProgressSync = memory.NewProgressStore()
	if redisClient != nil {
		progress = redisinfra.NewProgressStore(redisClient)
	}

	var balances app.BalanceStore = memory.NewBalanceStore(0)
	if redisClient != nil {
		// The shared wallet key keeps parity with the single-user demo setup;
		// multi-tenant hosts construct per-user stores instead.
		balances = redisinfra.NewBalanceStore(redisClient, "default")
	}

	var runner grading.CodeRunner
	if cfg.Sandbox.URL != "" {
		runner = sandbox.NewHTTPRunner(cfg.Sandbox.URL, config.TTLDuration(cfg.Sandbox.Timeout, 10*time.Second))
	}

	service := app.NewQuizService(store, quizRepo, app.NewProcessor(runner), progress, balances)
	wsHandler := transport.NewWSHandler(service, cfg.RetakeCostOrDefault())

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
		log.Printf("starting quiz engine on :%s", finalPort)
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

// sampleQuizzes seeds a demo quiz covering every question type; production
// deployments load content from Postgres instead.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"py-basics": {
			ID:               "py-basics",
			Title:            "Python Basics",
			TimeLimitSeconds: 600,
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.TypeMultipleChoice,
					Prompt:        "Which keyword defines a function in Python?",
					CorrectAnswer: 1,
					Points:        1,
				},
				{
					ID:            "q2",
					Type:          domain.TypeFillInBlank,
					Prompt:        "Name Python's immutable sequence type.",
					CorrectAnswer: []any{"tuple"},
					Points:        1,
				},
				{
					ID:     "q3",
					Type:   domain.TypeDragAndDrop,
					Prompt: "Match each type to its mutability.",
					CorrectAnswer: map[string]any{
						"list":  "mutable",
						"tuple": "immutable",
						"dict":  "mutable",
					},
					Points: 3,
				},
				{
					ID:            "q4",
					Type:          domain.TypeCode,
					Prompt:        "What does print(2 + 2) output?",
					CorrectAnswer: "4",
					Points:        1,
				},
				{
					ID:     "q5",
					Type:   domain.TypeDebug,
					Prompt: "Fix add() so the tests pass.",
					TestCases: []domain.TestCase{
						{Input: "1 2", Expected: "3"},
					},
					Points: 2,
				},
			},
		},
	}
}

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

	"lms-assessment-service/internal/app"
	"lms-assessment-service/internal/config"
	"lms-assessment-service/internal/domain"
	"lms-assessment-service/internal/infra/memory"
	pgstore "lms-assessment-service/internal/infra/postgres"
	redisstore "lms-assessment-service/internal/infra/redis"
	transport "lms-assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
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
	}

	var quizStore app.QuizStore = memory.NewQuizStore(sampleQuizzes())
	var attemptStore app.AttemptStore = memory.NewAttemptStore()
	if pool != nil {
		quizStore = pgstore.NewQuizStore(pool)
		attemptStore = pgstore.NewAttemptStore(pool)
	}

	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var progress app.ProgressStore
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, quizStore, cacheTTL)
		progress = redisstore.NewProgressStore(redisClient)
	} else {
		quizRepo = memory.NewQuizRepository(quizStore, cacheTTL)
		progress = memory.NewProgressStore()
	}

	feed := transport.NewResultFeed()
	grace := config.Duration(cfg.Quiz.Grace, 5*time.Minute)
	service := app.NewAssessmentService(quizRepo, quizStore, attemptStore, progress, feed, app.WithGrace(grace))
	handler := transport.NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws/results", feed.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting assessment service on :%s", finalPort)
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

// sampleQuizzes seeds the in-memory store for local runs without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:                  "quiz-1",
			CourseID:            "course-1",
			SectionID:           "section-1",
			Title:               "Arithmetic basics",
			OwnerID:             "teacher-1",
			PassingScorePercent: 70,
			ShowCorrectAnswers:  true,
			Published:           true,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Type: domain.MultipleChoice,
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
					Points: 1,
				},
				{
					ID:       "q2",
					Text:     "The capital of France is ____.",
					Type:     domain.FillBlank,
					Accepted: []string{"paris"},
					Points:   1,
				},
			},
		},
	}
}

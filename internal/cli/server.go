package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"codequest-service/internal/app"
	"codequest-service/internal/cert"
	"codequest-service/internal/config"
	"codequest-service/internal/infra/gcs"
	"codequest-service/internal/infra/judge0"
	"codequest-service/internal/infra/memory"
	infrapg "codequest-service/internal/infra/postgres"
	infraredis "codequest-service/internal/infra/redis"
	"codequest-service/internal/logging"
	"codequest-service/internal/notify"
	transport "codequest-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the submission service",
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

	log, err := logging.New(cfg.Server.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
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

	var (
		questions app.QuestionStore
		progress  app.ProgressStore
		users     app.UserStore
		daily     app.DailyPickStore
	)
	if pool != nil {
		questions = infrapg.NewQuestionStore(pool)
		progress = infrapg.NewProgressStore(pool)
		users = infrapg.NewUserStore(pool)
		daily = infrapg.NewDailyStore(pool)
	} else {
		log.Warn("postgres not configured, using in-memory stores with sample data")
		questions = memory.NewQuestionStore(sampleLanguages(), sampleQuestions())
		progress = memory.NewProgressStore()
		users = memory.NewUserStore(sampleUsers()...)
		daily = memory.NewDailyStore()
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
		questions = infraredis.NewQuestionCache(redisClient, questions, questionTTL)
	}

	executor := judge0.NewClient(cfg.Judge.BaseURL, cfg.Judge.APIKey, log,
		judgeOptions(cfg)...)

	var artifacts cert.ArtifactStore
	if cfg.Storage.Bucket != "" {
		store, err := gcs.NewArtifactStore(ctx, cfg.Storage.Bucket, cfg.Storage.CDNDomain)
		if err != nil {
			return err
		}
		defer store.Close()
		artifacts = store
	} else {
		log.Warn("object storage not configured, certificates kept in memory")
		artifacts = memory.NewArtifactStore()
	}
	issuer := cert.NewIssuer(artifacts, log)

	var notifier app.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewMailer(notify.SMTPConfig{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			From:        cfg.SMTP.From,
			FrontendURL: cfg.SMTP.FrontendURL,
		})
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	feed := app.NewFeed()

	service := app.NewSubmissionService(app.Options{
		Questions: questions,
		Progress:  progress,
		Users:     users,
		Daily:     daily,
		Executor:  executor,
		Certs:     issuer,
		Notifier:  notifier,
		Feed:      feed,
		Ladder:    ladderFromConfig(cfg),
		Log:       log,
	})

	handler := transport.NewHandler(service, log)
	wsHandler := transport.NewWSHandler(feed, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("GET /ws/achievements", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.RequestID(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // submissions poll the sandbox
	}

	go func() {
		log.Info("starting submission service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func judgeOptions(cfg config.Config) []judge0.Option {
	var opts []judge0.Option
	if cfg.Judge.PollInterval != "" {
		opts = append(opts, judge0.WithPollInterval(config.TTLDuration(cfg.Judge.PollInterval, time.Second)))
	}
	if cfg.Judge.MaxPolls > 0 {
		opts = append(opts, judge0.WithMaxPolls(cfg.Judge.MaxPolls))
	}
	return opts
}

func ladderFromConfig(cfg config.Config) []app.LadderEntry {
	entries := make([]app.LadderEntry, 0, len(cfg.Achievements.Ladder))
	for _, e := range cfg.Achievements.Ladder {
		entries = append(entries, app.LadderEntry{Percent: e.Percent, Level: e.Level})
	}
	return entries
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/featureflow/agent"
	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/config"
	"github.com/randalmurphal/featureflow/metrics"
	"github.com/randalmurphal/featureflow/notify"
	"github.com/randalmurphal/featureflow/pr"
	"github.com/randalmurphal/featureflow/prompt"
	"github.com/randalmurphal/featureflow/runner"
	"github.com/randalmurphal/featureflow/session"
	"github.com/randalmurphal/featureflow/store"
	"github.com/randalmurphal/featureflow/transcript"
	"github.com/randalmurphal/featureflow/workflow"
)

const (
	userCacheSize   = 512
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bot and the pull request monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, settings, logger)
		},
	}
}

func serve(ctx context.Context, settings *config.Settings, logger *slog.Logger) error {
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	db, err := store.Open(ctx, settings.DBPath, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := session.NewRepository(db,
		session.WithLogger(logger),
		session.WithActiveGauge(rec.SetActiveSessions),
		session.WithFailureHook(func(error) { rec.PersistenceError() }),
	)
	recovered, err := sessions.ReloadActive(ctx)
	if err != nil {
		return err
	}

	transcripts, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: settings.TranscriptDir})
	if err != nil {
		return err
	}
	ag := agent.New(settings.AgentCommand, runner.NewExecRunner(runner.WithLogger(logger)),
		agent.WithPrompts(prompt.NewLoader(prompt.WithDir(settings.PromptDir))),
		agent.WithRecorder(transcripts),
		agent.WithLogger(logger),
		agent.WithObserver(func(kind agent.Kind, exitCode int, err error, d time.Duration) {
			rec.Invocation(string(kind), invocationOutcome(exitCode, err), d)
		}),
	)

	if settings.SlackBotToken == "" {
		logger.Warn("slack bot token not set; replies will fail")
	}
	slack := chat.NewSlackClient(settings.SlackAPIURL, settings.SlackBotToken, logger)
	users, err := chat.NewCachedUsers(slack, userCacheSize)
	if err != nil {
		return err
	}

	notifier := notify.NewMultiNotifier(
		notify.NewLogNotifier(logger),
		notify.ForURL(settings.OperatorWebhookURL),
	)

	machine := workflow.New(sessions, settings.Repos, ag, slack,
		workflow.WithUsers(users),
		workflow.WithNotifier(notifier),
		workflow.WithMetrics(rec),
		workflow.WithLogger(logger),
	)
	machine.NotifyRecovered(ctx, recovered)

	checker, err := statusChecker(settings, logger)
	if err != nil {
		return err
	}
	monitor := pr.NewMonitor(sessions, checker, slack,
		pr.WithInterval(settings.PollInterval),
		pr.WithNotifier(notifier),
		pr.WithMetrics(rec),
		pr.WithLogger(logger),
	)
	if err := monitor.Start(ctx); err != nil {
		return err
	}
	defer monitor.Stop()

	events, err := chat.NewEventsHandler(settings.SlackSigningSecret, machine.Submit,
		chat.WithEventsLogger(logger))
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           newRouter(events, sessions, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		machine.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("featureflow listening", "addr", settings.ListenAddr,
			"repos", settings.Repos.Len(), "active_sessions", sessions.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if runErr == nil {
		<-loopDone
	}
	return runErr
}

// statusChecker prefers the GitHub API when a token is configured.
func statusChecker(settings *config.Settings, logger *slog.Logger) (pr.StatusChecker, error) {
	if settings.GitHubToken != "" {
		checker, err := pr.NewGitHubChecker(settings.GitHubToken, "")
		if err != nil {
			return nil, err
		}
		logger.Info("checking pull requests through the GitHub API")
		return checker, nil
	}
	logger.Info("checking pull requests through the gh CLI", "command", settings.GHCommand)
	return pr.NewCLIChecker(settings.GHCommand, runner.NewExecRunner(runner.WithLogger(logger))), nil
}

func invocationOutcome(exitCode int, err error) string {
	switch {
	case err != nil:
		return "dispatch_error"
	case exitCode != 0:
		return "nonzero_exit"
	default:
		return "ok"
	}
}

func newRouter(events *chat.EventsHandler, sessions *session.Repository, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	events.Register(r)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active_sessions": sessions.Len()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return r
}

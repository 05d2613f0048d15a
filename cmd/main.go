package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsbrief/internal/article"
	"newsbrief/internal/bot"
	"newsbrief/internal/chunker"
	"newsbrief/internal/config"
	"newsbrief/internal/mcp"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/runner"
	"newsbrief/internal/service"
	"newsbrief/internal/summarizer"
	"newsbrief/internal/tokenizer"
	"newsbrief/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to load .env",
			"error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config",
			"error", err)

		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	if err = run(cfg, log); err != nil {
		log.Error("Exiting with error",
			"error", err)

		os.Exit(1)
	}
}

// run serves until a shutdown signal or a server failure. Deferred cleanup
// always runs before it returns.
func run(cfg config.Config, log *slog.Logger) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, queue, err := initService(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer queue.Stop()

	webServer, err := web.NewServer(svc, log)
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}

	servers := []*http.Server{web.NewHTTPServer(cfg.HTTPAddr, webServer.Router())}

	if cfg.MCPAddr != "" {
		mcpServer := mcp.NewServer(svc, log)
		servers = append(servers, web.NewHTTPServer(cfg.MCPAddr, mcp.NewHTTPHandler(mcpServer)))
	}

	if cfg.Token != "" {
		botInst, err := bot.New(cfg.Token, svc, cfg.AllowedUsers, log)
		if err != nil {
			return fmt.Errorf("init bot: %w", err)
		}
		log.InfoContext(ctx, "Bot is initialized",
			"allowedUsersCount", len(cfg.AllowedUsers))

		go botInst.Start(ctx)
	} else {
		log.InfoContext(ctx, "TOKEN is empty so bot is disabled",
			"envVar", "TOKEN")
	}

	serveErrs := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			log.InfoContext(ctx, "HTTP server is starting",
				"addr", srv.Addr)

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErrs <- fmt.Errorf("serve %s: %w", srv.Addr, err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.InfoContext(ctx, "Shutdown signal is received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make([]error, 0, len(servers))
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shut down %s: %w", srv.Addr, err))
		}
	}

	close(serveErrs)
	for err := range serveErrs {
		errs = append(errs, err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return errors.Join(errs...)
}

func initService(ctx context.Context, cfg config.Config, log *slog.Logger) (*service.Service, *runner.Runner, error) {
	tk, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return nil, nil, err
	}

	// Artifacts load in the background so the first request does not pay for it.
	go func() {
		if err := tk.Warm(); err != nil {
			log.WarnContext(ctx, "Failed to warm tokenizer",
				"error", err,
				"tokenizer", tk.Name())

			return
		}

		log.InfoContext(ctx, "Tokenizer is loaded",
			"tokenizer", tk.Name())
	}()

	ch, err := chunker.New(tk, cfg.Chunk.Strategy)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{Timeout: cfg.Fetch.Timeout}

	s, err := summarizer.New(cfg.Summarizer, &http.Client{})
	if err != nil {
		return nil, nil, err
	}
	log.InfoContext(ctx, "Summarizer is initialized",
		"backend", cfg.Summarizer.Backend)

	p := pipeline.New(log, ch, s, pipeline.Options{
		MaxTokens:      cfg.Chunk.MaxTokens,
		MaxLength:      cfg.Summarizer.MaxLength,
		MinLength:      cfg.Summarizer.MinLength,
		AdaptiveBounds: cfg.Summarizer.AdaptiveBounds,
		Workers:        cfg.Pipeline.Workers,
	})

	queue := runner.New(log, cfg.Runner.QueueSize, cfg.Runner.MinInterval)
	fetcher := article.NewFetcher(client, cfg.Fetch.UserAgent, log)

	return service.New(fetcher, p, queue, log), queue, nil
}

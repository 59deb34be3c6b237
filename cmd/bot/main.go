package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glitchbyte/streambot/internal/ai"
	"github.com/glitchbyte/streambot/internal/bot"
	"github.com/glitchbyte/streambot/internal/chat"
	"github.com/glitchbyte/streambot/internal/command"
	"github.com/glitchbyte/streambot/internal/config"
	"github.com/glitchbyte/streambot/internal/db"
	"github.com/glitchbyte/streambot/internal/handlers"
	"github.com/glitchbyte/streambot/internal/httpapi"
	httphandlers "github.com/glitchbyte/streambot/internal/httpapi/handlers"
	"github.com/glitchbyte/streambot/internal/routing"
	"github.com/glitchbyte/streambot/internal/store/rabbitmq"
	"github.com/glitchbyte/streambot/internal/store/redisstore"
	"github.com/glitchbyte/streambot/internal/twitch"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 4
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 4
	}
	if n > 50 {
		return 50
	}
	return n
}

// queueSender stands in for the live socket on the queue transport: replay
// runs have no chat connection, so replies go to the log.
type queueSender struct {
	logger *slog.Logger
}

func (s queueSender) Send(ctx context.Context, channel, text string) error {
	s.logger.Info("outbound reply", "channel", channel, "text", text)
	return nil
}

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, slog.LevelInfo)
	defer func() { _ = cleanup() }()

	gdb, err := db.Connect(cfg.DBDSN, logger)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}

	repo := chat.NewRepo(gdb)
	ledger := chat.NewLedger(repo)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()
	registry := routing.NewRegistry(rds, logger, cfg.DefaultRole, cfg.OpenAIModel, cfg.ReplyLimit)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.AlertQueue)
	if err != nil {
		logger.Error("rabbit connect failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	providers := ai.NewRegistry()
	providers.Register("responses", func() ai.Provider {
		return ai.NewResponsesClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIOrg, cfg.OpenAIProject)
	})
	providers.Register("chat", func() ai.Provider {
		return ai.NewChatCompletionsClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIOrg, cfg.OpenAIProject)
	})

	var client *twitch.Client
	var sender bot.Sender
	if cfg.Transport == "amqp" {
		sender = queueSender{logger: logger}
	} else {
		client = twitch.NewClient(cfg.TwitchWSURL, cfg.BotNick, cfg.BotToken, cfg.BotChannel, logger)
		sender = client
	}

	cmdHandlers := &handlers.Set{
		Registry:  registry,
		Holiday:   handlers.NewHolidayService(cfg.HolidayAPIURL, cfg.HolidayCountry),
		Translate: handlers.NewTranslateService(cfg.TranslateAPIURL),
		Viewers:   handlers.NewViewerStatsService(cfg.ViewersAPIURL, repo),
		Alerts:    publisher,
		Logger:    logger,
	}

	classifier := command.NewClassifier(routing.PersonaNames())

	pipeline := bot.NewPipeline(
		repo, ledger, classifier, registry, providers,
		cmdHandlers, sender, logger,
		cfg.OpenAIAPIShape, cfg.MaxTokens,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// dashboard API
	api := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httphandlers.NewHandler(
			cfg, repo, ledger, registry, pipeline, logger,
		)),
	}
	go func() {
		logger.Info("http api listening", "addr", cfg.HTTPAddr)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http api failed", "error", err)
		}
	}()

	concurrency := workerConcurrency()
	if cfg.Transport == "amqp" {
		runQueueTransport(ctx, cfg, pipeline, logger, concurrency)
	} else {
		runSocketTransport(ctx, cfg, client, pipeline, logger, concurrency)
	}

	logger.Info("bot shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = api.Shutdown(shutdownCtx)
}

// runSocketTransport reads the live IRC socket, reconnecting with backoff.
func runSocketTransport(ctx context.Context, cfg config.Config, client *twitch.Client, pipeline *bot.Pipeline, logger *slog.Logger, concurrency int) {
	if err := client.Connect(ctx); err != nil {
		logger.Error("twitch connect failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("bot started", "transport", "ws", "channel", cfg.BotChannel, "concurrency", concurrency)

	// worker pool: one logical worker per inbound chat event
	events := make(chan twitch.Event, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for ev := range events {
				start := time.Now()
				reply, err := pipeline.Handle(ctx, ev)
				switch {
				case err != nil:
					logger.Error("event failed",
						"worker", workerID, "user", ev.Handle,
						"cost", time.Since(start), "error", err)
				case reply != "":
					logger.Info("event replied",
						"worker", workerID, "user", ev.Handle,
						"cost", time.Since(start))
				}
			}
		}(i)
	}

	for {
		err := client.ReadLoop(ctx, func(ev twitch.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if ctx.Err() != nil {
			break
		}
		logger.Warn("twitch connection lost, reconnecting", "error", err)
		time.Sleep(2 * time.Second)
		if err := client.Connect(ctx); err != nil {
			logger.Error("twitch reconnect failed", "error", err)
			time.Sleep(5 * time.Second)
		}
	}

	close(events)
	wg.Wait()
}

// runQueueTransport consumes queued chat events (replay/testing): same
// worker pool, acks after handling, rejects dead-letter.
func runQueueTransport(ctx context.Context, cfg config.Config, pipeline *bot.Pipeline, logger *slog.Logger, concurrency int) {
	consumer, err := rabbitmq.NewEventConsumer(cfg.RabbitURL, cfg.EventQueue)
	if err != nil {
		logger.Error("event consumer setup failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries(concurrency)
	if err != nil {
		logger.Error("consume failed", "error", err)
		os.Exit(1)
	}

	logger.Info("bot started", "transport", "amqp", "queue", cfg.EventQueue, "concurrency", concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				ev, err := rabbitmq.DecodeEvent(d.Body)
				if err != nil {
					logger.Error("bad queued event", "worker", workerID, "error", err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if _, err := pipeline.Handle(ctx, ev); err != nil {
					logger.Error("event failed",
						"worker", workerID, "user", ev.Handle,
						"cost", time.Since(start), "error", err)
					_ = d.Nack(false, false)
					continue
				}
				if err := d.Ack(false); err != nil {
					logger.Error("ack failed", "worker", workerID, "error", err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

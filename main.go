package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	t "github.com/mymmrac/telego"
	"github.com/robfig/cron/v3"

	"telegram-group-guard-bot/ai"
	"telegram-group-guard-bot/bot"
	"telegram-group-guard-bot/storage"
)

func main() {
	// Parse command-line flags
	verbose := flag.Bool("v", false, "Enable verbose logging (LevelInfo)")
	veryVerbose := flag.Bool("vv", false, "Enable very verbose logging (LevelDebug)")
	flag.Parse()

	// Set up logging
	setLogLevel(*verbose, *veryVerbose)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Warn("main: Failed to load .env file", "error", err)
	}

	// Get configuration from environment
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		slog.Error("main: TELEGRAM_BOT_TOKEN environment variable is required")
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "data.sqlite"
		slog.Debug("main: Using default database", "dsn", dsn)
	}

	cfg := bot.Config{
		OwnerID:      envInt64("OWNER_ID"),
		SudoUsers:    envInt64List("SUDO_USERS"),
		LogChannelID: envInt64("LOG_CHANNEL_ID"),
	}
	if cfg.OwnerID == 0 {
		slog.Warn("main: OWNER_ID is not set, owner-only commands are disabled")
	}

	// Initialize storage
	slog.Debug("main: Initializing storage", "dsn", dsn)
	store, err := storage.New(dsn)
	if err != nil {
		slog.Error("main: Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize the optional AI backend
	var aiClient ai.Client
	if apiKey := os.Getenv("AI_API_KEY"); apiKey != "" {
		aiClient = ai.New(ai.Config{
			BaseURL: os.Getenv("AI_BASE_URL"),
			APIKey:  apiKey,
			Model:   os.Getenv("AI_MODEL"),
		})
		slog.Debug("main: AI backend configured")
	} else {
		slog.Debug("main: AI_API_KEY is not set, AI features are disabled")
	}

	// Initialize the Telegram client
	tg, err := t.NewBot(token, t.WithDefaultLogger(false, true))
	if err != nil {
		slog.Error("main: Failed to create Telegram client", "error", err)
		os.Exit(1)
	}

	updates, err := tg.UpdatesViaLongPolling(nil)
	if err != nil {
		slog.Error("main: Failed to start long polling", "error", err)
		os.Exit(1)
	}
	defer tg.StopLongPolling()

	b := bot.New(tg, store, aiClient, cfg)

	// Deliver due reminders once a minute
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("* * * * *", b.DeliverDueReminders); err != nil {
		slog.Error("main: Failed to schedule reminder delivery", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	slog.Info("main: Starting bot...")
	if err := b.Run(updates); err != nil {
		slog.Error("main: Bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func envInt64(name string) int64 {
	value := os.Getenv(name)
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		slog.Warn("main: Ignoring malformed environment variable", "name", name, "value", value)
		return 0
	}
	return n
}

func envInt64List(name string) []int64 {
	value := os.Getenv(name)
	if value == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			slog.Warn("main: Ignoring malformed ID in list", "name", name, "value", part)
			continue
		}
		ids = append(ids, n)
	}
	return ids
}

// setLogLevel configures the logging level based on the provided flags
func setLogLevel(verbose, veryVerbose bool) {
	logLevel := slog.LevelWarn // Default level
	if veryVerbose {
		logLevel = slog.LevelDebug
	} else if verbose {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"skoll/internal/config"
	"skoll/internal/engine"
	"skoll/internal/feed"
	skollnet "skoll/internal/net"
	"skoll/internal/report"
)

func main() {
	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Setup the book, the fill observers, the gateway and the feed.
	book := engine.NewBook()
	feedSrv := feed.NewServer(cfg.Feed.Address, cfg.Feed.Depth, book)

	reporters := report.Multi{report.Log{}, feedSrv}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaReporter := report.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaReporter.Close(); err != nil {
				log.Error().Err(err).Msg("closing kafka reporter")
			}
		}()
		reporters = append(reporters, kafkaReporter)
	}
	book.SetReporter(reporters)

	srv := skollnet.New(cfg.Gateway.Address, cfg.Gateway.Port, book)

	go srv.Run(ctx)
	go feedSrv.Run(ctx)

	// Block until signalled.
	<-ctx.Done()
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writer io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

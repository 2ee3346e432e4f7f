package main

// root.go wires configuration, the feed transport and the listener loop.

import (
	"context"
	"io"
	"time"

	"feed-listener/config"
	"feed-listener/internal/admin"
	"feed-listener/internal/listener"
	"feed-listener/internal/logger"
	"feed-listener/internal/models"
	"feed-listener/internal/transport"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type flags struct {
	transport     string
	pubsub        bool
	skipMalformed bool
	logLevel      string
	logFormat     string
	adminPort     string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "listener [flags] [--] [FILTERED_TYPE...]",
		Short: "listener - print events from a pub/sub feed",
		Long: `listener attaches to an event feed, prints every decoded event to stdout
followed by a comma, answers PING with PONG and exits on SHUTDOWN.

Event types given as arguments are suppressed from output. PING is still
answered and SHUTDOWN still stops the listener when they are suppressed.
Put "--" before the types when one of them starts with a dash:

  listener --pubsub -- -DEBUG NOISY`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			applyFlags(cmd, &f, cfg)
			return run(cmd.Context(), cfg, args, stdout, stderr)
		},
	}

	cmd.Flags().StringVarP(&f.transport, "transport", "t", "", "feed transport: websocket, pubsub, redis or kafka (default from LISTENER_TRANSPORT, else websocket)")
	cmd.Flags().BoolVar(&f.pubsub, "pubsub", false, "shortcut for --transport pubsub (ZeroMQ SUB on "+config.DefaultPubSubEndpoint+")")
	cmd.Flags().BoolVar(&f.skipMalformed, "skip-malformed", false, "log and skip messages that are not JSON objects instead of exiting")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (default from LOG_LEVEL)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "log format: console or json (default from LOG_FORMAT)")
	cmd.Flags().StringVar(&f.adminPort, "admin-port", "", "serve /health, /ready and /metrics on this port")
	cmd.MarkFlagsMutuallyExclusive("transport", "pubsub")

	return cmd
}

func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	if cmd.Flags().Changed("transport") {
		cfg.Transport = f.transport
	}
	if f.pubsub {
		cfg.Transport = string(transport.ModePubSub)
	}
	if f.skipMalformed {
		cfg.OnDecodeError = "skip"
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if f.adminPort != "" {
		cfg.AdminPort = f.adminPort
	}
}

func run(ctx context.Context, cfg *config.Config, filtered []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Configure(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  stderr,
		Session: uuid.NewString(),
	})
	log := logger.WithComponent("main")
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("No .env file, using environment variables directly")
	}
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	mode, err := transport.ParseMode(cfg.Transport)
	if err != nil {
		return err
	}
	policy, err := listener.ParseDecodePolicy(cfg.OnDecodeError)
	if err != nil {
		return err
	}

	conn, err := transport.Connect(ctx, transport.Options{
		Mode:           mode,
		WebSocketURL:   cfg.WebSocketURL,
		PubSubEndpoint: cfg.PubSubEndpoint,
		Redis: transport.RedisOptions{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPass,
			Channel:      cfg.RedisChannel,
			ReplyChannel: cfg.RedisReplyChannel,
		},
		Kafka: transport.KafkaOptions{
			Brokers:    cfg.KafkaBrokers,
			Topic:      cfg.KafkaTopic,
			GroupID:    cfg.KafkaGroupID,
			ReplyTopic: cfg.KafkaReplyTopic,
		},
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to feed")
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing feed connection")
		}
	}()

	l := listener.New(conn, models.NewFilterSet(filtered...), stdout,
		listener.WithDecodePolicy(policy),
		listener.WithMetrics(config.GetMetrics()),
	)

	if cfg.AdminPort != "" {
		srv := admin.NewServer(cfg.AdminPort, func() bool { return l.State() == listener.Running })
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Admin server shutdown error")
			}
		}()
	}

	if err := l.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Listener stopped")
		return err
	}
	return nil
}

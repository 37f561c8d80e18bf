package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/postgres"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/simulated"
	"github.com/YelzhanWeb/kitchen-display/internal/app/board"
	"github.com/YelzhanWeb/kitchen-display/internal/app/display"
	"github.com/YelzhanWeb/kitchen-display/internal/app/feed"
	"github.com/YelzhanWeb/kitchen-display/internal/app/store"
	"github.com/YelzhanWeb/kitchen-display/internal/config"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	"github.com/YelzhanWeb/kitchen-display/internal/realtime"

	amqpAdapter "github.com/YelzhanWeb/kitchen-display/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/kitchen-display/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: display, feed, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides http.port)")
	ordersFile := flag.String("orders-file", "", "YAML orders for feed mode (overrides feed.orders_file)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if *ordersFile != "" {
		cfg.Feed.OrdersFile = *ordersFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lgr := logger.NewWithWriter(*mode, cfg.Log.Level, os.Stdout)

	switch *mode {
	case "display":
		err = runDisplay(ctx, cfg, lgr)
	case "feed":
		err = runFeed(ctx, cfg, lgr)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil {
		lgr.Error("service_failed", "Service stopped with error", "runtime", nil, err)
		os.Exit(1)
	}
}

func runDisplay(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	var (
		ledger  interfaces.LedgerRepository
		initial []domain.Order
	)
	if cfg.Database.Enabled {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		ledger = postgres.NewOrderRepository(db)

		initial, err = ledger.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load order ledger: %w", err)
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host":   cfg.Database.Host,
			"db":     cfg.Database.Database,
			"orders": len(initial),
		})
	}

	st, err := store.New(lgr, initial...)
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	var (
		dialer    realtime.Dialer
		publisher interfaces.MessagePublisher
	)
	switch cfg.Channel.Transport {
	case config.TransportRabbitMQ:
		events := rabbitmq.NewEventDialer(cfg.Channel.Endpoint, cfg.RabbitMQ.Prefetch, lgr)
		defer events.Close()
		dialer = events

		// status updates are best-effort; the board works without them
		mqConn, err := rabbitmq.Dial(cfg.RabbitMQ.URL())
		if err != nil {
			lgr.Error("rabbitmq_unavailable", "Status updates disabled", "startup", map[string]interface{}{
				"host": cfg.RabbitMQ.Host,
			}, err)
		} else {
			defer mqConn.Close()
			publisher = rabbitmq.NewPublisher(mqConn)
		}
	default:
		dialer = simulated.NewDialer(simulated.Options{
			ConnectDelay: cfg.Channel.ConnectDelay,
			FailFirst:    cfg.Channel.FailFirst,
		})
	}

	svc := display.NewService(st, publisher, ledger, lgr, display.Options{Station: cfg.Display.Station})

	channel := realtime.NewChannel(dialer, svc.HandleEvent, lgr, realtime.Options{
		RetryDelay: cfg.Channel.RetryDelay,
		MaxDelay:   cfg.Channel.MaxDelay,
		Backoff:    realtime.Backoff(cfg.Channel.Backoff),
	})
	channel.OnStateChange(func(s realtime.Status) {
		details := map[string]interface{}{
			"state":    string(s.State),
			"attempts": s.Attempts,
		}
		if s.LastError != nil {
			details["last_error"] = *s.LastError
		}
		lgr.Info("connection_state", "Connection state changed", "", details)
	})
	defer channel.Close()
	svc.Attach(channel)

	brd := board.NewService(st, channel)
	defer brd.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      httpAdapter.NewHandler(svc, brd, lgr).Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Kitchen display started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port":      cfg.HTTP.Port,
		"transport": cfg.Channel.Transport,
		"endpoint":  endpointOf(cfg),
		"station":   cfg.Display.Station,
		"ledger":    ledger != nil,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Run(gctx)
	})

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down kitchen display", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func endpointOf(cfg *config.Config) string {
	if cfg.Channel.Transport == config.TransportSimulated {
		return simulated.Endpoint
	}
	return cfg.Channel.Endpoint
}

func runFeed(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	orders := simulated.DemoOrders(time.Now())
	if cfg.Feed.OrdersFile != "" {
		var err error
		orders, err = feed.LoadOrders(cfg.Feed.OrdersFile, time.Now())
		if err != nil {
			return err
		}
	}

	mqConn, err := rabbitmq.Dial(cfg.RabbitMQ.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host":   cfg.RabbitMQ.Host,
		"orders": len(orders),
	})

	_, err = feed.NewService(rabbitmq.NewPublisher(mqConn), lgr).Publish(ctx, orders)
	return err
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	mqConn, err := rabbitmq.Dial(cfg.RabbitMQ.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, lgr, cfg.Channel.RetryDelay)
	handler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	err = consumer.ConsumeNotifications(ctx, handler.HandleNotification)
	if errors.Is(err, context.Canceled) {
		lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
		return nil
	}
	return err
}

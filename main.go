package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/admin"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/config"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/dispatcher"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/events"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/executor"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/gate"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/kafka"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/maintenance"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/metrics"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/nonce"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/proxy"
	store "github.com/cryptoKingdom88/memeCoinBackend/tradingService/redis"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/solana"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/stream"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/websocket"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/worker"
)

const shutdownTimeout = 10 * time.Second

var errStreamDisconnected = errors.New("event stream disconnected")

func main() {
	configManager := config.NewConfigManager()
	cfg, err := configManager.LoadConfig()
	if err != nil {
		logging.NewLogger("trading-service", "main").Fatal("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger := logging.NewLogger("trading-service", "main")
	categorizer := logging.NewErrorCategorizer(logger)
	logger.SystemEvent("startup", map[string]interface{}{
		"bot_address": cfg.BotAddress,
		"stream":      cfg.StreamEndpoint(),
		"use_nonce":   cfg.UseNonce,
		"max_workers": cfg.MaxWorkers,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serviceMetrics := metrics.New()

	// Redis
	redisManager, err := store.NewManager(cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		logger.Fatal("Failed to create Redis manager", map[string]interface{}{"error": err.Error()})
	}
	redisManager.SetMetrics(serviceMetrics)
	if err := redisManager.Connect(ctx); err != nil {
		categorizer.Report(err, "redis", "connect", map[string]interface{}{"url": cfg.RedisURL})
		logger.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}

	// Execution proxy
	proxyClient := proxy.NewClient(cfg.HTTPAPIURL, cfg.RequestTimeout)
	if health, err := proxyClient.Health(ctx); err != nil {
		logger.Warn("Execution proxy health check failed, continuing", map[string]interface{}{
			"url":   cfg.HTTPAPIURL,
			"error": err.Error(),
		})
	} else {
		logger.Info("Execution proxy reachable", map[string]interface{}{"status": health.Status})
	}

	// Chain
	chain := solana.NewClient(cfg.RPCURL)
	lookupTables := solana.NewLookupTableProvider()
	if err := lookupTables.Initialize(ctx, chain, cfg.LookupTableAccounts); err != nil {
		logger.Warn("Failed to load lookup table, trading without one", map[string]interface{}{"error": err.Error()})
	}
	blockhashes := solana.NewBlockhashProvider(redisManager, chain)

	nonceCache := nonce.NewCache(chain, cfg.NoncePubkey, cfg.UseNonce)
	if nonceCache.Enabled() {
		if err := nonceCache.Initialize(ctx); err != nil {
			logger.Fatal("Failed to load durable nonce", map[string]interface{}{"error": err.Error()})
		}
	}

	// Event sinks
	hub := websocket.NewHub()
	go hub.Run()

	var producer *kafka.Producer
	sinks := []interfaces.EventPublisher{hub}
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer()
		if err := producer.Initialize(cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			logger.Fatal("Failed to initialize Kafka producer", map[string]interface{}{"error": err.Error()})
		}
		sinks = append(sinks, producer)
	}
	publisher := events.NewFanout(sinks...)

	// Trading
	pool := worker.NewPool()
	if err := pool.Initialize(cfg.MaxWorkers); err != nil {
		logger.Fatal("Failed to initialize worker pool", map[string]interface{}{"error": err.Error()})
	}

	buyGate := gate.New(redisManager, cfg.BuyInterval, cfg.BuyGateFailOpen)
	params := executor.NewParamBuilder(executor.Settings{
		BuyAmountSOL: cfg.BuyAmountSOL,
		SlippageBps:  cfg.SlippageBps,
		BotAddress:   cfg.BotAddress,
		GasFee:       cfg.GasFeeStrategy(),
	}, nonceCache, blockhashes, lookupTables)

	coordinator := executor.NewCoordinator(executor.Dependencies{
		Store:     redisManager,
		Gate:      buyGate,
		Proxy:     proxyClient,
		Nonce:     nonceCache,
		Params:    params,
		Pool:      pool,
		Publisher: publisher,
		Metrics:   serviceMetrics,
	}, cfg.BotAddress)

	eventDispatcher := dispatcher.New(serviceMetrics)
	eventDispatcher.Subscribe(coordinator)

	streamClient, err := stream.NewClient(stream.DefaultConfig(cfg.StreamEndpoint()), eventDispatcher, serviceMetrics)
	if err != nil {
		logger.Fatal("Failed to create stream client", map[string]interface{}{"error": err.Error()})
	}

	// Sweeps
	tasks := []maintenance.Task{
		maintenance.NewSellTimer(redisManager, coordinator, pool, serviceMetrics, cfg.SellDelay),
		maintenance.NewReconciler(redisManager, chain, cfg.BotAddress, publisher),
	}
	intervals := []time.Duration{maintenance.SellTimerInterval, maintenance.ReconcileInterval}
	if !nonceCache.Enabled() {
		tasks = append(tasks, maintenance.NewBlockhashSweep(blockhashes))
		intervals = append(intervals, maintenance.BlockhashRefreshInterval)
	}

	var sweeps []*maintenance.Service
	for i, task := range tasks {
		service, err := maintenance.NewService(task, intervals[i])
		if err != nil {
			logger.Fatal("Failed to create sweep", map[string]interface{}{"task": task.Name(), "error": err.Error()})
		}
		if err := service.Start(ctx); err != nil {
			logger.Fatal("Failed to start sweep", map[string]interface{}{"task": task.Name(), "error": err.Error()})
		}
		sweeps = append(sweeps, service)
	}

	// Admin API
	var adminServer *admin.Server
	if cfg.AdminEnabled {
		adminServer, err = admin.NewServer(admin.Options{
			Port:      cfg.AdminPort,
			Orders:    redisManager,
			Seller:    coordinator,
			Metrics:   serviceMetrics.Handler(),
			WebSocket: websocket.NewHandler(hub).HandleWebSocket,
			Checks: map[string]admin.HealthCheck{
				"redis":  redisManager.Ping,
				"stream": func(ctx context.Context) error {
					if !streamClient.Connected() {
						return errStreamDisconnected
					}
					return nil
				},
			},
		})
		if err == nil {
			err = adminServer.Start()
		}
		if err != nil {
			logger.Fatal("Failed to start admin server", map[string]interface{}{"error": err.Error()})
		}
	}

	streamDone := make(chan error, 1)
	go func() { streamDone <- streamClient.Run(ctx) }()

	logger.SystemEvent("started", map[string]interface{}{"sweeps": len(sweeps)})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.SystemEvent("shutdown_signal", map[string]interface{}{"signal": sig.String()})
	case err := <-streamDone:
		if err != nil {
			logger.Error("Stream client stopped", map[string]interface{}{"error": err.Error()})
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// stream, sweeps, workers, nonce, admin, Kafka, Redis
	cancel()
	streamClient.Close()

	for _, sweep := range sweeps {
		if err := sweep.Stop(); err != nil {
			logger.Warn("Failed to stop sweep", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Worker pool did not drain", map[string]interface{}{"error": err.Error()})
	}

	nonceCache.Close()

	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Admin server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
	hub.Shutdown()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("Kafka producer close failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := redisManager.Close(); err != nil {
		logger.Warn("Redis close failed", map[string]interface{}{"error": err.Error()})
	}

	logger.SystemEvent("stopped", nil)
}

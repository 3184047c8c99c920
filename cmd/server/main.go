package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant_order/internal/alert"
	"restaurant_order/internal/audit"
	"restaurant_order/internal/config"
	"restaurant_order/internal/dashboard"
	"restaurant_order/internal/logging"
	"restaurant_order/internal/order"
	"restaurant_order/internal/queue"
	"restaurant_order/internal/realtime"
	"restaurant_order/internal/router"
	"restaurant_order/internal/store"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional config file (yaml/json/toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(err)
	}

	os.Exit(exitCode(log, run(cfg, log)))
}

// exitCode 记录退出原因并刷出日志。os.Exit 不执行 defer，所以 Sync 必须在这里做。
func exitCode(log *zap.Logger, err error) int {
	code := 0
	if err != nil {
		log.Error("server exited", zap.Error(err))
		code = 1
	} else {
		log.Info("server stopped")
	}
	_ = log.Sync()
	return code
}

func run(cfg config.AppConfig, log *zap.Logger) error {
	// 1. 数据库：建表，按需写入演示菜单
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(db) }()
	if err := store.Migrate(db); err != nil {
		return err
	}
	if cfg.SeedDemoData {
		if _, err := store.SeedDemo(db, log); err != nil {
			return err
		}
	}

	// 2. Redis：限流与提醒 outbox。只有 stream 模式必须可用
	rdb := connectRedis(cfg, log)
	if rdb == nil && cfg.AlertSink == config.AlertSinkStream {
		return errors.New("redis is required when ALERT_SINK=stream")
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// 3. 订单核心与提交后的事件处理
	registry := realtime.NewRegistry(cfg.SubscriberBuffer, log)
	notifier := dashboard.NewNotifier(db, registry, log, dashboard.WithTimeout(cfg.DBQueryTimeout))

	policy := order.PolicyPermissive
	if cfg.StrictTransitions {
		policy = order.PolicyStrict
	}
	orders := order.NewService(db, order.WithPolicy(policy), order.WithQueryTimeout(cfg.DBQueryTimeout))

	var sink alert.Sink = alert.NewLogSink(log)
	if cfg.AlertSink == config.AlertSinkStream {
		sink = alert.NewStreamSink(rdb, cfg.AlertStream)
	}
	dispatcher := order.NewDispatcher(log, notifier, alert.NewHandler(sink, log))

	if cfg.MongoURI != "" {
		auditStore, err := audit.Open(context.Background(), cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return err
		}
		recorder := audit.NewRecorder(auditStore, log)
		dispatcher.Register(recorder)
		defer func() {
			recorder.Wait()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = auditStore.Close(ctx)
		}()
	}

	// 4. HTTP
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Setup(r, router.Deps{
		DB:         db,
		Orders:     orders,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		Redis:      rdb,
		Config:     cfg,
		Log:        log,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("db_driver", cfg.DBDriver),
			zap.String("alert_sink", cfg.AlertSink),
			zap.Stringer("transition_policy", policy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 看板推送：订单变更后在这里合并重算
	g.Go(func() error {
		notifier.Run(gctx)
		return nil
	})

	// 5. stream 模式：Redis Stream → Kafka
	if cfg.AlertSink == config.AlertSinkStream {
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = producer.Close() }()
		relay := queue.NewRelay(rdb, producer, log, cfg.AlertStream, cfg.AlertGroup, cfg.AlertConsumer)
		g.Go(func() error { return relay.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// 先断开推送长连接，否则 Shutdown 会一直等它们
		registry.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// connectRedis 连不上时返回 nil，下单限流随之关闭。
func connectRedis(cfg config.AppConfig, log *zap.Logger) *rd.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, order rate limiting disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// alerter 消费 Kafka 中的新订单提醒并投递给店员，与下单服务分开部署。
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant_order/internal/config"
	"restaurant_order/internal/logging"
	"restaurant_order/internal/queue"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional config file (yaml/json/toml)")
	dedup := flag.Bool("dedup", true, "skip alerts already delivered (needs redis)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	var rdb *rd.Client
	if *dedup {
		rdb = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Error("redis unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, rdb,
		queue.LogDeliver(log.Named("alerter")), log)
	defer func() { _ = consumer.Close() }()

	log.Info("alerter started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.Bool("dedup", *dedup))
	if err := consumer.Run(ctx); err != nil {
		log.Error("consumer stopped", zap.Error(err))
		return
	}
	log.Info("alerter stopped")
}

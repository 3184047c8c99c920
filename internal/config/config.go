package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 聚合运行时配置。来源优先级：环境变量 > 配置文件 > 默认值。
type AppConfig struct {
	HTTPAddr    string
	CORSOrigins []string

	// 存储：sqlite（默认）或 mysql
	DBDriver       string
	DBDSN          string
	DBQueryTimeout time.Duration
	DBMaxOpenConns int
	SeedDemoData   bool

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// 新订单提醒：log 直接打日志；stream 写 Redis Stream，由 Relay 转 Kafka
	AlertSink     string
	AlertStream   string
	AlertGroup    string
	AlertConsumer string

	// 下单接口限流
	OrderRateLimit  int
	OrderRateWindow time.Duration

	// 每个实时订阅的待发送队列长度，满了丢最旧的
	SubscriberBuffer int

	// 是否只允许正向状态流转
	StrictTransitions bool

	// MongoURI 为空时不写审计日志
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	LogLevel    string
	LogEncoding string
}

const (
	AlertSinkLog    = "log"
	AlertSinkStream = "stream"
)

var defaults = map[string]any{
	"http_addr":                ":8080",
	"cors_origins":             "*",
	"db_driver":                "sqlite",
	"db_dsn":                   "restaurant.db",
	"db_query_timeout_ms":      5000,
	"db_max_open_conns":        0,
	"seed_demo_data":           false,
	"redis_addr":               "localhost:6379",
	"redis_db":                 0,
	"kafka_brokers":            "localhost:9092",
	"kafka_topic":              "restaurant-order-alerts",
	"kafka_group_id":           "restaurant-alerter",
	"alert_sink":               AlertSinkLog,
	"alert_stream":             "restaurant:order_alerts",
	"alert_group":              "restaurant-alert-relay-group",
	"alert_consumer":           "restaurant-alert-relay-1",
	"order_rate_limit":         30,
	"order_rate_window_sec":    60,
	"subscriber_buffer":        16,
	"order_strict_transitions": false,
	"mongo_uri":                "",
	"mongo_database":           "restaurant",
	"mongo_collection":         "order_audit",
	"log_level":                "info",
	"log_encoding":             "json",
}

// Load 读取并校验配置。path 为空时只用默认值与环境变量。
func Load(path string) (AppConfig, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := AppConfig{
		HTTPAddr:          strings.TrimSpace(v.GetString("http_addr")),
		CORSOrigins:       getList(v, "cors_origins"),
		DBDriver:          strings.ToLower(strings.TrimSpace(v.GetString("db_driver"))),
		DBDSN:             strings.TrimSpace(v.GetString("db_dsn")),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		SeedDemoData:      v.GetBool("seed_demo_data"),
		RedisAddr:         strings.TrimSpace(v.GetString("redis_addr")),
		RedisDB:           v.GetInt("redis_db"),
		KafkaBrokers:      getList(v, "kafka_brokers"),
		KafkaTopic:        strings.TrimSpace(v.GetString("kafka_topic")),
		KafkaGroupID:      strings.TrimSpace(v.GetString("kafka_group_id")),
		AlertSink:         strings.ToLower(strings.TrimSpace(v.GetString("alert_sink"))),
		AlertStream:       strings.TrimSpace(v.GetString("alert_stream")),
		AlertGroup:        strings.TrimSpace(v.GetString("alert_group")),
		AlertConsumer:     strings.TrimSpace(v.GetString("alert_consumer")),
		OrderRateLimit:    v.GetInt("order_rate_limit"),
		SubscriberBuffer:  v.GetInt("subscriber_buffer"),
		StrictTransitions: v.GetBool("order_strict_transitions"),
		MongoURI:          strings.TrimSpace(v.GetString("mongo_uri")),
		MongoDatabase:     strings.TrimSpace(v.GetString("mongo_database")),
		MongoCollection:   strings.TrimSpace(v.GetString("mongo_collection")),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogEncoding:       strings.ToLower(strings.TrimSpace(v.GetString("log_encoding"))),
	}

	timeoutMS := v.GetInt("db_query_timeout_ms")
	if timeoutMS <= 0 {
		return AppConfig{}, fmt.Errorf("DB_QUERY_TIMEOUT_MS must be > 0")
	}
	cfg.DBQueryTimeout = time.Duration(timeoutMS) * time.Millisecond

	windowSec := v.GetInt("order_rate_window_sec")
	if windowSec <= 0 {
		return AppConfig{}, fmt.Errorf("ORDER_RATE_WINDOW_SEC must be > 0")
	}
	cfg.OrderRateWindow = time.Duration(windowSec) * time.Second

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must not be empty")
	}
	switch c.DBDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	if c.DBMaxOpenConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be >= 0")
	}
	if c.OrderRateLimit <= 0 {
		return fmt.Errorf("ORDER_RATE_LIMIT must be > 0")
	}
	if c.SubscriberBuffer <= 0 {
		return fmt.Errorf("SUBSCRIBER_BUFFER must be > 0")
	}
	switch c.AlertSink {
	case AlertSinkLog:
	case AlertSinkStream:
		if c.AlertStream == "" || c.AlertGroup == "" || c.AlertConsumer == "" {
			return fmt.Errorf("ALERT_STREAM, ALERT_GROUP and ALERT_CONSUMER must not be empty")
		}
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS must not be empty")
		}
		if c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_TOPIC must not be empty")
		}
	default:
		return fmt.Errorf("ALERT_SINK must be log or stream, got %q", c.AlertSink)
	}
	if c.MongoURI != "" && (c.MongoDatabase == "" || c.MongoCollection == "") {
		return fmt.Errorf("MONGO_DATABASE and MONGO_COLLECTION must not be empty when MONGO_URI is set")
	}
	switch c.LogEncoding {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_ENCODING must be json or console, got %q", c.LogEncoding)
	}
	return nil
}

// getList 兼容环境变量里的逗号分隔字符串与配置文件里的数组。
func getList(v *viper.Viper, key string) []string {
	out := make([]string, 0)
	for _, raw := range v.GetStringSlice(key) {
		out = append(out, splitCSV(raw)...)
	}
	return out
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultWebSocketURL   = "ws://localhost:6767/watch/"
	DefaultPubSubEndpoint = "tcp://127.0.0.1:9950"
)

type Config struct {
	Transport         string
	WebSocketURL      string
	PubSubEndpoint    string
	RedisAddr         string
	RedisPass         string
	RedisChannel      string
	RedisReplyChannel string
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaGroupID      string
	KafkaReplyTopic   string
	DialTimeout       time.Duration
	OnDecodeError     string
	LogLevel          string
	LogFormat         string
	AdminPort         string

	// EnvFileLoaded and Warnings describe how the config was loaded. They are
	// reported by the caller once logging is configured.
	EnvFileLoaded bool
	Warnings      []string
}

func LoadConfig() *Config {
	envLoaded := godotenv.Load(".env") == nil

	var warnings []string
	dialTimeout, err := time.ParseDuration(getEnv("DIAL_TIMEOUT", "5s"))
	if err != nil {
		warnings = append(warnings, "invalid DIAL_TIMEOUT, using 5s: "+err.Error())
		dialTimeout = 5 * time.Second
	}

	return &Config{
		Transport:         getEnv("LISTENER_TRANSPORT", "websocket"),
		WebSocketURL:      getEnv("WS_URL", DefaultWebSocketURL),
		PubSubEndpoint:    getEnv("ZMQ_ENDPOINT", DefaultPubSubEndpoint),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         getEnv("REDIS_PASS", ""),
		RedisChannel:      getEnv("REDIS_CHANNEL", "feed"),
		RedisReplyChannel: getEnv("REDIS_REPLY_CHANNEL", ""),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "feed"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", ""),
		KafkaReplyTopic:   getEnv("KAFKA_REPLY_TOPIC", ""),
		DialTimeout:       dialTimeout,
		OnDecodeError:     getEnv("ON_DECODE_ERROR", "fail"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		AdminPort:         getEnv("ADMIN_PORT", ""),
		EnvFileLoaded:     envLoaded,
		Warnings:          warnings,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string
	MysqlDSN   string
	JWTSecret  string
	LogLevel   string

	// AuthGrace is how long an unauthenticated websocket connection may
	// stay open before it is closed.
	AuthGrace time.Duration

	// RecallWindow bounds how long after sending a user may recall their
	// own message. Group admins are not bound by it.
	RecallWindow time.Duration

	// SendBuffer is the per-connection outbound queue size; a connection
	// that overflows it is forcibly disconnected.
	SendBuffer int
}

var Cfg *Config

func Load() {
	Cfg = &Config{
		ServerAddr:   ":" + getEnv("PORT", "8080"),
		MysqlDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/safechat?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:    getEnv("JWT_SECRET", "safechat-secret-key-change-in-production"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		AuthGrace:    time.Duration(getEnvInt("AUTH_GRACE_SECONDS", 30)) * time.Second,
		RecallWindow: time.Duration(getEnvInt("RECALL_WINDOW_SECONDS", 120)) * time.Second,
		SendBuffer:   getEnvInt("SEND_BUFFER", 256),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

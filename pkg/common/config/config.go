package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers          []string
	KafkaGroupID          string
	ExtractedReportsTopic string
	AnalyzedReportsTopic  string
	DeadLetterTopic       string

	// Interpretation
	ReferenceTablePath string
	RiskRulesPath      string
	BorderlineMargin   float64

	// Reports
	ReportCacheTTL       time.Duration
	ReportCachePrefix    string
	ReportAllowedSources []string
	MaxParameters        int
	BatchConcurrency     int
	BatchMaxReports      int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "bloodwork"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "bloodwork"),
		PostgresDB:       getEnv("POSTGRES_DB", "bloodwork"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:          getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "bloodwork-analysis"),
		ExtractedReportsTopic: getEnv("KAFKA_EXTRACTED_TOPIC", "extracted-reports"),
		AnalyzedReportsTopic:  getEnv("KAFKA_ANALYZED_TOPIC", "analyzed-reports"),
		DeadLetterTopic:       getEnv("KAFKA_DLQ_TOPIC", ""),

		ReferenceTablePath: getEnv("REFERENCE_TABLE_PATH", ""),
		RiskRulesPath:      getEnv("RISK_RULES_PATH", ""),
		BorderlineMargin:   getFloatEnv("BORDERLINE_MARGIN", 0.05),

		ReportCacheTTL:       getDuration("REPORT_CACHE_TTL", 15*time.Minute),
		ReportCachePrefix:    getEnv("REPORT_CACHE_PREFIX", "report:"),
		ReportAllowedSources: getStringSliceEnv("REPORT_ALLOWED_SOURCES", []string{"json", "pdf", "image", "ocr", "manual"}),
		MaxParameters:        getIntEnv("REPORT_MAX_PARAMETERS", 200),
		BatchConcurrency:     getIntEnv("BATCH_CONCURRENCY", 4),
		BatchMaxReports:      getIntEnv("BATCH_MAX_REPORTS", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

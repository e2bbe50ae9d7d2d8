package config

import (
	"os"
	"strconv"
	"time"
)

type BankConfig struct {
	CardPrefix           string
	AllocationMaxRetries int
	TransferTimeout      time.Duration
	DeadlockRetries      int
	HistoryDefaultLimit  int
	HistoryMaxLimit      int
}

func LoadBankConfig() *BankConfig {
	return &BankConfig{
		CardPrefix:           getEnv("BANK_CARD_PREFIX", "58598311"),
		AllocationMaxRetries: getEnvAsInt("BANK_ALLOCATION_MAX_RETRIES", 20),
		TransferTimeout:      getEnvAsDuration("BANK_TRANSFER_TIMEOUT", 5*time.Second),
		DeadlockRetries:      getEnvAsInt("BANK_DEADLOCK_RETRIES", 1),
		HistoryDefaultLimit:  getEnvAsInt("BANK_HISTORY_DEFAULT_LIMIT", 200),
		HistoryMaxLimit:      getEnvAsInt("BANK_HISTORY_MAX_LIMIT", 500),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

package env

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file. A missing file is not fatal, the process
// environment is used as is.
func LoadEnv(filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
}

func GetString(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	valAsInt, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return valAsInt
}

func GetFloat(key string, fallback float64) float64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	valAsFloat, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return fallback
	}
	return valAsFloat
}

func GetBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	boolVal, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return boolVal
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return d
}

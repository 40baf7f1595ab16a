package env

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"manus-dashboard/internal/application/port/output"

	"github.com/joho/godotenv"
)

var _ output.ConfigPort = (*EnvService)(nil)

type EnvService struct{}

// NewEnvService loads .env and then .env.$APP_ENV on top of it.
func NewEnvService() *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Info: no .env file found, using process environment")
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load %s: %v", envFile, err)
	}

	return &EnvService{}
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

func (e *EnvService) MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("ENV %s is missing", key)
	}
	return val
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetStrings splits a comma separated value, dropping empty entries.
func (e *EnvService) GetStrings(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

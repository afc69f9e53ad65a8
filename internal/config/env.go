package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env is the process configuration read at startup.
type Env struct {
	BackendURL  string
	AnonKey     string
	Addr        string
	AuthURL     string
	Timeout     time.Duration
	SentryDSN   string
	KafkaBroker string
	KafkaTopic  string
	LogFile     string
	AppEnv      string
}

// MissingEnvError lists required variables that were not set.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return "missing required env: " + strings.Join(e.Keys, ", ")
}

// LoadEnv reads .env files (if present) and then the process environment.
// Variables already set in the environment win over .env values.
func LoadEnv(files ...string) (Env, error) {
	_ = godotenv.Load(files...)
	return envFrom(os.Getenv)
}

func envFrom(getenv func(string) string) (Env, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}
	var missing []string
	must := func(k string) string {
		v := get(k, "")
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	env := Env{
		BackendURL:  must("FNA_BACKEND_URL"),
		AnonKey:     must("FNA_ANON_KEY"),
		Addr:        get("FNA_ADDR", ":8080"),
		AuthURL:     get("FNA_AUTH_URL", "/auth"),
		SentryDSN:   get("SENTRY_DSN", ""),
		KafkaBroker: get("FNA_KAFKA_BROKER", ""),
		KafkaTopic:  get("FNA_KAFKA_TOPIC", "fna_events"),
		LogFile:     get("FNA_LOG_FILE", ""),
		AppEnv:      get("APP_ENV", "development"),
	}
	if len(missing) > 0 {
		return Env{}, &MissingEnvError{Keys: missing}
	}

	timeout, err := time.ParseDuration(get("FNA_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return Env{}, fmt.Errorf("invalid FNA_TIMEOUT %q", getenv("FNA_TIMEOUT"))
	}
	env.Timeout = timeout
	return env, nil
}

// Production reports whether APP_ENV is production.
func (e Env) Production() bool {
	return strings.EqualFold(e.AppEnv, "production")
}

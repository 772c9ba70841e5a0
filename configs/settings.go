package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
)

// Settings is the process configuration, read once at startup and handed to
// the components that need it.
type Settings struct {
	CardPort string
	FeedPort string

	DatabaseURL string
	DBMaxConns  int32

	JWTSecret   []byte
	TokenTTL    time.Duration
	TokenLeeway time.Duration

	OperatorAllowList         []string
	OperatorAllowListRequired bool

	RateLimit   int
	CORSOrigins []string

	NatsURL   string
	NatsToken string
}

// Load reads Settings for the card service. Missing store or signing
// configuration is an error; everything else has a default.
func Load() (Settings, error) {
	const op = "config.Load"

	s, err := read(op)
	if err != nil {
		return Settings{}, err
	}

	if s.DatabaseURL == "" {
		return Settings{}, apperr.Configuration(op, "POSTGRES_URL or DATABASE_URL not set")
	}
	if len(s.JWTSecret) == 0 {
		return Settings{}, apperr.Configuration(op, "JWT_SECRET not set")
	}
	if s.OperatorAllowListRequired && len(s.OperatorAllowList) == 0 {
		return Settings{}, apperr.Configuration(op, "ADMIN_ALLOWED_EMAIL is empty but OPERATOR_ALLOWLIST_REQUIRED is set")
	}
	return s, nil
}

// LoadFeed reads Settings for the feed service and the verify-only CLI path.
// They need the signing secret but not the store.
func LoadFeed() (Settings, error) {
	const op = "config.LoadFeed"

	s, err := read(op)
	if err != nil {
		return Settings{}, err
	}
	if len(s.JWTSecret) == 0 {
		return Settings{}, apperr.Configuration(op, "JWT_SECRET not set")
	}
	return s, nil
}

func read(op string) (Settings, error) {
	s := Settings{
		CardPort:          envString("CARD_SERVICE_PORT", "8080"),
		FeedPort:          envString("FEED_SERVICE_PORT", "8081"),
		DatabaseURL:       envString("POSTGRES_URL", envString("DATABASE_URL", "")),
		JWTSecret:         []byte(os.Getenv("JWT_SECRET")),
		OperatorAllowList: splitList(os.Getenv("ADMIN_ALLOWED_EMAIL")),
		CORSOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		NatsURL:           envString("NATS_URL", ""),
		NatsToken:         envString("NATS_TOKEN", ""),
	}

	maxConns, err := envInt("DB_MAX_CONNS", 5)
	if err != nil || maxConns <= 0 {
		return Settings{}, apperr.Configuration(op, "DB_MAX_CONNS must be a positive integer")
	}
	s.DBMaxConns = int32(maxConns)

	ttl, err := envInt("TOKEN_TTL_SECONDS", 120)
	if err != nil || ttl <= 0 {
		return Settings{}, apperr.Configuration(op, "TOKEN_TTL_SECONDS must be a positive integer")
	}
	s.TokenTTL = time.Duration(ttl) * time.Second

	leeway, err := envInt("TOKEN_LEEWAY_SECONDS", 0)
	if err != nil || leeway < 0 {
		return Settings{}, apperr.Configuration(op, "TOKEN_LEEWAY_SECONDS must be zero or positive")
	}
	s.TokenLeeway = time.Duration(leeway) * time.Second

	s.RateLimit, err = envInt("RATE_LIMIT", 100)
	if err != nil || s.RateLimit <= 0 {
		return Settings{}, apperr.Configuration(op, "RATE_LIMIT must be a positive integer")
	}

	if raw := strings.TrimSpace(os.Getenv("OPERATOR_ALLOWLIST_REQUIRED")); raw != "" {
		s.OperatorAllowListRequired, err = strconv.ParseBool(raw)
		if err != nil {
			return Settings{}, apperr.Configuration(op, "OPERATOR_ALLOWLIST_REQUIRED must be a boolean")
		}
	}

	return s, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

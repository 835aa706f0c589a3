package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MikeMC777/storefront/internal/log"
)

// Client configures the storefront client and the CLI.
type Client struct {
	APIURL            string
	TokenFile         string
	HTTPTimeout       time.Duration // 0 means no client-side timeout
	StrictTransitions bool
	LogLevel          string
}

// Server configures the reference backend.
type Server struct {
	Addr           string
	GRPCHealthAddr string
	PostgresDSN    string // empty selects the in-memory store
	JWTSecret      string
	TokenTTL       time.Duration
	SeedEmail      string
	SeedPassword   string
	SeedName       string
	LogLevel       string

	CORSOrigins       []string // empty allows any origin
	AuthRatePerMinute int
	AuthBurst         int
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getlist(k string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(k), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront-token"
	}
	return filepath.Join(dir, "storefront", "token")
}

// LoadClient reads the client configuration from the environment, loading
// .env first if it exists.
func LoadClient() Client {
	_ = godotenv.Load()
	cfg := Client{
		APIURL:            getenv("STOREFRONT_API_URL", "http://localhost:5001/api"),
		TokenFile:         getenv("STOREFRONT_TOKEN_FILE", defaultTokenFile()),
		HTTPTimeout:       getduration("STOREFRONT_HTTP_TIMEOUT", 0),
		StrictTransitions: getbool("STOREFRONT_STRICT_TRANSITIONS", true),
		LogLevel:          getenv("LOG_LEVEL", "warn"),
	}
	l := log.WithComponent("config")
	l.Debug().
		Str("api_url", cfg.APIURL).
		Str("token_file", cfg.TokenFile).
		Dur("http_timeout", cfg.HTTPTimeout).
		Bool("strict_transitions", cfg.StrictTransitions).
		Msg("client config loaded")
	return cfg
}

// LoadServer reads the reference backend configuration.
func LoadServer() Server {
	_ = godotenv.Load()
	cfg := Server{
		Addr:           getenv("SERVER_ADDR", ":5001"),
		GRPCHealthAddr: getenv("GRPC_HEALTH_ADDR", ""),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:       getduration("TOKEN_TTL", 24*time.Hour),
		SeedEmail:      getenv("SEED_SUPERADMIN_EMAIL", ""),
		SeedPassword:   getenv("SEED_SUPERADMIN_PASSWORD", ""),
		SeedName:       getenv("SEED_SUPERADMIN_NAME", "Super Admin"),
		LogLevel:       getenv("LOG_LEVEL", "info"),

		CORSOrigins:       getlist("CORS_ORIGINS"),
		AuthRatePerMinute: getint("AUTH_RATE_PER_MINUTE", 60),
		AuthBurst:         getint("AUTH_BURST", 10),
	}
	return cfg
}

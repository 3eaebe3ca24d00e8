package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AdminCredential is one entry of the environment admin allowlist.
type AdminCredential struct {
	Email    string
	Password string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether object storage was configured.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type Config struct {
	Port     string
	LogMode  string
	Serve    string
	Shape    string
	CORS     string
	MongoURI string
	MongoDB  string

	Admins    []AdminCredential
	JWTSecret string
	JWTTTL    time.Duration

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	StructuredOutput  bool
	LLMTimeout        time.Duration
	PDFContextLimit   int

	Minio    MinioConfig
	RedisURL string
	CacheTTL time.Duration
}

// Load reads a .env file if present and builds the configuration from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, using environment variables")
	}

	cfg := &Config{
		Port:     getenv("PORT", "8080"),
		LogMode:  getenv("LOG_MODE", "dev"),
		Serve:    strings.ToLower(getenv("SERVE", "all")),
		Shape:    strings.ToLower(getenv("RESPONSE_SHAPE", "supabase")),
		CORS:     getenv("CORS_ORIGINS", "*"),
		MongoURI: firstEnv("mongodb://localhost:27017", "MONGODB_URI", "MONGO_URL", "MONGO_URI"),
		MongoDB:  getenv("MONGODB_DB", "tutorhub"),

		Admins:    ParseAdmins(firstEnv("", "ADMIN_EMAILS", "ADMIN_EMAIL"), firstEnv("", "ADMIN_PASSWORDS", "ADMIN_PASSWORD")),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    duration("JWT_TTL", 4*time.Hour),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   getenv("OPENROUTER_MODEL", "deepseek/deepseek-r1:free"),
		StructuredOutput:  boolean("OPENROUTER_STRUCTURED_OUTPUT", true),
		LLMTimeout:        duration("LLM_TIMEOUT", 90*time.Second),
		PDFContextLimit:   integer("PDF_CONTEXT_LIMIT", 18000),

		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: getenv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getenv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getenv("MINIO_BUCKET", "tutor-materials"),
			UseSSL:    boolean("MINIO_USE_SSL", false),
		},
		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: duration("CACHE_TTL", 5*time.Minute),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		log.Println("JWT_SECRET not set, generated a per-process secret")
	}
	return cfg
}

// ServesAPI reports whether the CRUD routes should be mounted.
func (c *Config) ServesAPI() bool {
	return c.Serve == "" || c.Serve == "all" || c.Serve == "api"
}

// ServesAI reports whether the AI proxy routes should be mounted.
func (c *Config) ServesAI() bool {
	return c.Serve == "" || c.Serve == "all" || c.Serve == "ai"
}

// ParseAdmins pairs comma separated emails with comma separated passwords.
// A single password applies to every email; otherwise they pair by position.
func ParseAdmins(emails, passwords string) []AdminCredential {
	es := splitList(emails)
	ps := splitList(passwords)
	if len(es) == 0 || len(ps) == 0 {
		return nil
	}

	out := make([]AdminCredential, 0, len(es))
	for i, e := range es {
		var p string
		switch {
		case len(ps) == 1:
			p = ps[0]
		case i < len(ps):
			p = ps[i]
		default:
			continue
		}
		out = append(out, AdminCredential{Email: strings.ToLower(e), Password: p})
	}
	return out
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

func getenv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func firstEnv(def string, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return def
}

func integer(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func boolean(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// duration accepts Go duration strings or a plain number of seconds.
func duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "tutorhub-dev-secret"
	}
	return hex.EncodeToString(b)
}

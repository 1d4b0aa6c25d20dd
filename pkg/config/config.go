package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	JWTSecret string
	Port      string

	// database: MySQLDSN wins when set, otherwise sqlite at SQLitePath
	MySQLDSN   string
	SQLitePath string

	// WAHA gateway
	WahaBaseURL      string
	WahaAPIKey       string
	WahaSession      string
	WebhookPublicURL string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	SyncChatConcurrency    int
	SyncMessagesKnown      int
	SyncMessagesNew        int
	StatusCacheTTLSeconds  int
	CacheMaxItems          int
)

// loadAppEnv loads .env only outside production; production reads host env.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		// missing .env is fine in dev and in tests; host env still applies
		log.Printf("[config] no .env loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	MySQLDSN = os.Getenv("MYSQL_DSN")
	SQLitePath = os.Getenv("SQLITE_PATH")
	if SQLitePath == "" {
		SQLitePath = "crm.db"
	}

	WahaBaseURL = os.Getenv("WAHA_BASE_URL")
	if WahaBaseURL == "" {
		WahaBaseURL = "http://localhost:3000"
	}
	// empty key means the gateway runs without auth; the client then skips
	// the X-Api-Key header entirely
	WahaAPIKey = os.Getenv("WAHA_API_KEY")
	WahaSession = os.Getenv("WAHA_SESSION")
	if WahaSession == "" {
		WahaSession = "default"
	}
	WebhookPublicURL = os.Getenv("WEBHOOK_PUBLIC_URL")

	// Tunables with defaults
	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	SyncChatConcurrency = atoiOr(os.Getenv("SYNC_CHAT_CONCURRENCY"), 4)
	SyncMessagesKnown = atoiOr(os.Getenv("SYNC_MESSAGES_KNOWN"), 20)
	SyncMessagesNew = atoiOr(os.Getenv("SYNC_MESSAGES_NEW"), 100)
	StatusCacheTTLSeconds = atoiOr(os.Getenv("STATUS_CACHE_TTL_SECONDS"), 5)
	CacheMaxItems = atoiOr(os.Getenv("CACHE_MAX_ITEMS"), 500)

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] WahaBaseURL=%s session=%s apiKeyPresent=%v webhookURL=%q",
		WahaBaseURL, WahaSession, WahaAPIKey != "", WebhookPublicURL)
	log.Printf("[config] Sync chatConc=%d msgsKnown=%d msgsNew=%d statusTTL=%ds",
		SyncChatConcurrency, SyncMessagesKnown, SyncMessagesNew, StatusCacheTTLSeconds)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

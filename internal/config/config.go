package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load lit le fichier .env s'il existe. Les variables déjà présentes dans
// l'environnement restent prioritaires.
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	} else {
		log.Println("✅ .env file loaded")
	}
}

type Config struct {
	Env  string
	Port string

	// scylla | mongo | memory
	StoreBackend string

	ScyllaHosts         []string
	ScyllaKeyspace      string
	ScyllaUsername      string
	ScyllaPassword      string
	ScyllaTimeout       time.Duration
	ScyllaNumConns      int
	ScyllaCreateSchema  bool
	MongoURI            string
	MongoDatabase       string
	RedisHost           string
	RedisPassword       string
	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string
	SigningSecret       string
	Currency            string
	StagingTTL          time.Duration
	CheckoutRateLimit   int
	KafkaBrokers        string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	MailFrom            string
	CORSOrigins         []string
}

// FromEnv construit la configuration à partir des variables d'environnement.
func FromEnv() Config {
	return Config{
		Env:                 getEnv("ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", "scylla")),
		ScyllaHosts:         splitCSV(getEnv("SCYLLA_HOSTS", "127.0.0.1")),
		ScyllaKeyspace:      getEnv("SCYLLA_KEYSPACE", "ks_pharmacy"),
		ScyllaUsername:      os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword:      os.Getenv("SCYLLA_PASSWORD"),
		ScyllaTimeout:       getDuration("SCYLLA_TIMEOUT", 5*time.Second),
		ScyllaNumConns:      getInt("SCYLLA_NUM_CONNS", 20),
		ScyllaCreateSchema:  getBool("SCYLLA_CREATE_SCHEMA", false),
		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "pharmacy"),
		RedisHost:           getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SigningSecret:       os.Getenv("PAYMENT_SIGNING_SECRET"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "inr")),
		StagingTTL:          getDuration("STAGING_TTL", 48*time.Hour),
		CheckoutRateLimit:   getInt("CHECKOUT_RATE_LIMIT", 10),
		KafkaBrokers:        os.Getenv("KAFKA_BROKERS"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getInt("SMTP_PORT", 587),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		MailFrom:            getEnv("MAIL_FROM", "noreply@medicart.local"),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

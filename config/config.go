package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"memorial-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	Port    string
	DB      DB
	Payment Payment
	JWT     JWT
	Redis   Redis
	Kafka   Kafka
	Cleanup Cleanup
}

type DB struct {
	database.Config
}

type Payment struct {
	SecretKey      string
	WebhookSecret  string
	Currency       string
	GatewayTimeout time.Duration
}

type JWT struct {
	Secret   string
	Issuer   string
	Audience string
}

type Redis struct {
	Enabled         bool
	Addr            string
	Password        string
	DB              int
	TTLSeconds      int
	RateLimitWindow time.Duration
}

type Kafka struct {
	Brokers     []string
	TopicEmail  string
	TopicOrders string
}

type Cleanup struct {
	StaleOrderAfter time.Duration
	GuestCartTTL    time.Duration
	WebhookEventTTL time.Duration
}

type Notifier struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	TMPLDir string

	KafkaBrokers []string
	KafkaGroupID string
	KafkaTopic   string
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnv("APP_PORT", log),
		DB:   loadDB(log),
		Payment: Payment{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", log),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", log),
			Currency:       strings.ToLower(envDefault("PAYMENT_CURRENCY", "usd")),
			GatewayTimeout: durationDefault(os.Getenv("GATEWAY_TIMEOUT"), 15*time.Second),
		},
		JWT: loadJWT(log),
		Redis: Redis{
			Enabled:         getEnv("REDIS_ENABLED", log) == "true",
			Addr:            os.Getenv("REDIS_ADDR"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              atoiDefault(os.Getenv("REDIS_DB"), 0),
			TTLSeconds:      atoiDefault(os.Getenv("CACHE_TTL_SECONDS"), 60),
			RateLimitWindow: durationDefault(os.Getenv("RATE_LIMIT_WINDOW"), 10*time.Second),
		},
		Kafka: Kafka{
			Brokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			TopicEmail:  envDefault("KAFKA_TOPIC_EMAIL", "memorial.email"),
			TopicOrders: envDefault("KAFKA_TOPIC_ORDERS", "memorial.orders"),
		},
		Cleanup: loadCleanup(),
	}
}

// LoadMaintenance — подмножество для миграций и разовых задач: без ключей платёжного шлюза.
func LoadMaintenance(log *zap.Logger) *Config {
	return &Config{
		DB:      loadDB(log),
		JWT:     loadJWT(log),
		Cleanup: loadCleanup(),
	}
}

func LoadNotifier(log *zap.Logger) *Notifier {
	return &Notifier{
		SMTPHost:     getEnv("SMTP_HOST", log),
		SMTPPort:     getEnvInt("SMTP_PORT", log),
		SMTPUser:     getEnv("SMTP_USER", log),
		SMTPPassword: getEnv("SMTP_PASSWORD", log),
		SMTPFrom:     getEnv("SMTP_FROM", log),
		TMPLDir:      getEnv("TMPL_DIR", log),
		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", log),
		KafkaTopic:   envDefault("KAFKA_TOPIC_EMAIL", "memorial.email"),
	}
}

func loadDB(log *zap.Logger) DB {
	return DB{
		Config: database.Config{
			Host:     getEnv("DB_HOST", log),
			Port:     getEnv("DB_PORT", log),
			User:     getEnv("DB_USER", log),
			Password: getEnv("DB_PASSWORD", log),
			Name:     getEnv("DB_NAME", log),
			SSLMode:  getEnv("DB_SSLMODE", log),
		},
	}
}

func loadJWT(log *zap.Logger) JWT {
	return JWT{
		Secret:   getEnv("JWT_SECRET", log),
		Issuer:   getEnv("JWT_ISSUER", log),
		Audience: getEnv("JWT_AUDIENCE", log),
	}
}

func loadCleanup() Cleanup {
	return Cleanup{
		StaleOrderAfter: durationDefault(os.Getenv("STALE_ORDER_AFTER"), 24*time.Hour),
		GuestCartTTL:    durationDefault(os.Getenv("GUEST_CART_TTL"), 7*24*time.Hour),
		WebhookEventTTL: durationDefault(os.Getenv("WEBHOOK_EVENT_TTL"), 30*24*time.Hour),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvInt(key string, log *zap.Logger) int {
	valStr := getEnv(key, log)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Error("Ошибка преобразования переменной окружения в int", zap.String("key", key), zap.Error(err))
		panic("invalid int value for environment variable: " + key)
	}
	return val
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d := parseDurationWithDays(s); d > 0 {
		return d
	}
	return def
}

func parseDurationWithDays(s string) time.Duration {
	if strings.HasSuffix(s, "d") {
		daysStr := strings.TrimSuffix(s, "d")
		days, err := time.ParseDuration(daysStr + "h")
		if err != nil {
			log.Printf("Ошибка парсинга TTL: %v", err)
			return 0
		}
		return time.Duration(24) * days
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return duration
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}

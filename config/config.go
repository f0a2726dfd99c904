// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar; her alt bölüm ayrı bir
// struct'tır ve tek bir concern'ü temsil eder.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Crypto    CryptoConfig
	Chat      ChatConfig
	Assistant AssistantConfig
	Events    EventsConfig
	Metrics   MetricsConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	ConnectLimit   int           // IP başına window içinde izin verilen handshake sayısı
	ConnectWindow  time.Duration
}

// DatabaseConfig, veritabanı ayarları.
//
// Driver "sqlite" (varsayılan, tek dosya) veya "postgres" olabilir.
type DatabaseConfig struct {
	Driver string
	Path   string // sqlite dosya yolu
	URL    string // postgres DSN
}

// JWTConfig, gelen access token'ların doğrulanması için.
// Token üretimi bu servisin işi değildir.
type JWTConfig struct {
	Secret   string
	CacheTTL time.Duration // token → kullanıcı çözümünün bellekte tutulma süresi (0 → cache yok)
}

// CryptoConfig, mesaj gövdesi şifreleme anahtarı.
type CryptoConfig struct {
	Key string // 64 hex karakter veya serbest metin (HKDF ile genişletilir)
}

// ChatConfig, oda motorunun davranış ayarları.
type ChatConfig struct {
	HistoryLimit      int    // bağlanırken gönderilen mesaj sayısı
	MaxHistoryLimit   int    // {"limit": n} ile istenebilecek üst sınır
	SystemUserID      int64  // sistem bildirimleri ve asistan cevapları bu kullanıcı adına
	VoidRoom          string // bağlantı kapanınca user_status'a yazılan oda adı
	BannedWordsPath   string
	AssistantHandle   string
	DeletionGraceDays int
	DefaultLanguage   string
	SendLimit         int           // window içinde izin verilen mesaj sayısı
	SendWindow        time.Duration // rate limit penceresi
	SendCooldown      time.Duration // limit aşılınca bekleme süresi
}

// AssistantConfig, @mention ile tetiklenen asistan ayarları.
// APIKey boşsa asistan devre dışıdır.
type AssistantConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// EventsConfig, lifecycle event export ayarları.
// URL şemasına göre NATS (nats://) veya AMQP (amqp://) seçilir; boşsa noop.
type EventsConfig struct {
	URL      string
	Exchange string
}

// MetricsConfig, Prometheus endpoint ayarı.
type MetricsConfig struct {
	Enabled bool
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler, dosya yoksa sessizce devam eder.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8000)
	if err != nil {
		return nil, err
	}

	historyLimit, err := getEnvInt("CHAT_HISTORY_LIMIT", 20)
	if err != nil {
		return nil, err
	}

	maxHistoryLimit, err := getEnvInt("CHAT_MAX_HISTORY_LIMIT", 500)
	if err != nil {
		return nil, err
	}

	systemUserID, err := getEnvInt("SYSTEM_USER_ID", 2)
	if err != nil {
		return nil, err
	}

	graceDays, err := getEnvInt("ROOM_DELETION_GRACE_DAYS", 30)
	if err != nil {
		return nil, err
	}

	sendLimit, err := getEnvInt("CHAT_SEND_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	sendWindow, err := getEnvDuration("CHAT_SEND_WINDOW", 5*time.Second)
	if err != nil {
		return nil, err
	}

	sendCooldown, err := getEnvDuration("CHAT_SEND_COOLDOWN", 15*time.Second)
	if err != nil {
		return nil, err
	}

	connectLimit, err := getEnvInt("CONNECT_LIMIT", 30)
	if err != nil {
		return nil, err
	}

	connectWindow, err := getEnvDuration("CONNECT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	assistantTimeout, err := getEnvDuration("ASSISTANT_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}

	authCacheTTL, err := getEnvDuration("AUTH_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cryptoKey := getEnv("CRYPTO_KEY", "")
	if cryptoKey == "" {
		return nil, fmt.Errorf("CRYPTO_KEY environment variable is required")
	}

	driver := strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q (want sqlite or postgres)", driver)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			ConnectLimit:   connectLimit,
			ConnectWindow:  connectWindow,
		},
		Database: DatabaseConfig{
			Driver: driver,
			Path:   getEnv("DATABASE_PATH", "./data/chat.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:   jwtSecret,
			CacheTTL: authCacheTTL,
		},
		Crypto: CryptoConfig{
			Key: cryptoKey,
		},
		Chat: ChatConfig{
			HistoryLimit:      historyLimit,
			MaxHistoryLimit:   maxHistoryLimit,
			SystemUserID:      int64(systemUserID),
			VoidRoom:          getEnv("VOID_ROOM", "Hell"),
			BannedWordsPath:   getEnv("BANNED_WORDS_PATH", "./data/banned_words.csv"),
			AssistantHandle:   getEnv("ASSISTANT_HANDLE", "@sayory"),
			DeletionGraceDays: graceDays,
			DefaultLanguage:   getEnv("DEFAULT_LANGUAGE", "en"),
			SendLimit:         sendLimit,
			SendWindow:        sendWindow,
			SendCooldown:      sendCooldown,
		},
		Assistant: AssistantConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
			Timeout: assistantTimeout,
		},
		Events: EventsConfig{
			URL:      getEnv("EVENTS_URL", ""),
			Exchange: getEnv("EVENTS_EXCHANGE", "chat.events"),
		},
		Metrics: MetricsConfig{
			Enabled: metricsEnabled,
		},
	}

	if cfg.Database.Driver == "postgres" && cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:8000").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN, seçili driver için bağlantı string'ini döner.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
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

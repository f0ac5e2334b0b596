package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Scoring   ScoringConfig
	Ranking   RankingConfig
	Expiry    ExpiryConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	WebSocket WebSocketConfig
	Seed      SeedConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MigrationsPath: путь к папке с SQL-миграциями
	MigrationsPath string `mapstructure:"migrations_path"`
	// Пул соединений и уровень логов gorm (silent, error, warn, info)
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// ScoringConfig - таблица начисления очков
type ScoringConfig struct {
	ClientStart        int64 `mapstructure:"client_start"`
	CulpritJoin        int64 `mapstructure:"culprit_join"`
	PoliceAssign       int64 `mapstructure:"police_assign"`
	DetectiveAssign    int64 `mapstructure:"detective_assign"`
	ResolveMultiplier  int64 `mapstructure:"resolve_multiplier"`
	ClientClearedBonus int64 `mapstructure:"client_cleared_bonus"`
}

// RankingConfig содержит настройки рейтингов
type RankingConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ExpiryConfig содержит настройки очистки зависших дел.
// Нулевой TTL отключает истечение для соответствующего статуса.
type ExpiryConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RegisteredTTL time.Duration `mapstructure:"registered_ttl"`
	FabricatedTTL time.Duration `mapstructure:"fabricated_ttl"`
	BatchSize     int           `mapstructure:"batch_size"`
}

// RateLimitConfig содержит настройки ограничения частоты входа
type RateLimitConfig struct {
	LoginLimit  int64         `mapstructure:"login_limit"`
	LoginWindow time.Duration `mapstructure:"login_window"`
}

// WebSocketConfig содержит настройки WebSocket-подсистемы
type WebSocketConfig struct {
	Buffers BuffersConfig
	Limits  LimitsConfig
	Cluster ClusterConfig
}

// BuffersConfig содержит настройки буферов
type BuffersConfig struct {
	ClientSendBuffer int `mapstructure:"client_send_buffer"`
	BroadcastBuffer  int `mapstructure:"broadcast_buffer"`
}

// LimitsConfig содержит настройки ограничений
type LimitsConfig struct {
	MaxMessageSize int `mapstructure:"max_message_size"`
	WriteWait      int `mapstructure:"write_wait"` // секунды
	PongWait       int `mapstructure:"pong_wait"`  // секунды
}

// ClusterConfig содержит настройки кластеризации
type ClusterConfig struct {
	Enabled          bool
	InstanceID       string `mapstructure:"instance_id"`
	BroadcastChannel string `mapstructure:"broadcast_channel"`
}

// SeedConfig содержит путь к файлу с шаблонами дел
type SeedConfig struct {
	CasesFile string `mapstructure:"cases_file"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "migrations")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.conn_max_lifetime", "1h")
	vip.SetDefault("database.log_level", "warn")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("jwt.expirationHrs", 24)

	vip.SetDefault("scoring.client_start", 1)
	vip.SetDefault("scoring.culprit_join", 1)
	vip.SetDefault("scoring.police_assign", 2)
	vip.SetDefault("scoring.detective_assign", 1)
	vip.SetDefault("scoring.resolve_multiplier", 10)
	vip.SetDefault("scoring.client_cleared_bonus", 5)

	vip.SetDefault("ranking.cache_ttl", "30s")

	vip.SetDefault("expiry.sweep_interval", "1m")
	vip.SetDefault("expiry.registered_ttl", "0s")
	vip.SetDefault("expiry.fabricated_ttl", "0s")
	vip.SetDefault("expiry.batch_size", 100)

	vip.SetDefault("rate_limit.login_limit", 10)
	vip.SetDefault("rate_limit.login_window", "1m")

	vip.SetDefault("websocket.buffers.client_send_buffer", 64)
	vip.SetDefault("websocket.buffers.broadcast_buffer", 256)
	vip.SetDefault("websocket.limits.max_message_size", 4096)
	vip.SetDefault("websocket.limits.write_wait", 10)
	vip.SetDefault("websocket.limits.pong_wait", 60)
	vip.SetDefault("websocket.cluster.broadcast_channel", "detective:ws:broadcast")

	vip.SetDefault("seed.cases_file", "configs/cases.yaml")
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")
	vip.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	vip.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	// Очки и истечение
	vip.BindEnv("scoring.resolve_multiplier", "SCORING_RESOLVE_MULTIPLIER")
	vip.BindEnv("ranking.cache_ttl", "RANKING_CACHE_TTL")
	vip.BindEnv("expiry.registered_ttl", "EXPIRY_REGISTERED_TTL")
	vip.BindEnv("expiry.fabricated_ttl", "EXPIRY_FABRICATED_TTL")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// Привязка для WebSocket Cluster
	vip.BindEnv("websocket.cluster.enabled", "WEBSOCKET_CLUSTER_ENABLED")
	vip.BindEnv("websocket.cluster.instance_id", "WEBSOCKET_CLUSTER_INSTANCE_ID")

	vip.BindEnv("seed.cases_file", "SEED_CASES_FILE")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть, тогда работают переменные окружения и умолчания
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Scoring: %+v", cfg.Scoring)
		log.Printf("Expiry: registered=%s fabricated=%s", cfg.Expiry.RegisteredTTL, cfg.Expiry.FabricatedTTL)
		log.Printf("Websocket Cluster Enabled: %t", cfg.WebSocket.Cluster.Enabled)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Scoring.ResolveMultiplier <= 0 {
		return fmt.Errorf("scoring.resolve_multiplier must be positive, got %d", c.Scoring.ResolveMultiplier)
	}
	if c.Expiry.RegisteredTTL < 0 || c.Expiry.FabricatedTTL < 0 {
		return fmt.Errorf("expiry TTLs must not be negative")
	}
	return nil
}

package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config 全局配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
	AudioProxy AudioProxyConfig `mapstructure:"audio_proxy"`
	Business   BusinessConfig   `mapstructure:"business"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Env            string   `mapstructure:"env"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IsDevelopment 是否为开发环境
func (s ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(s.Env, EnvDevelopment)
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | mysql | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	PoolSize      int    `mapstructure:"pool_size"`      // 0 使用 go-redis 默认值
	TimeoutMillis int    `mapstructure:"timeout_millis"` // 连接和读写超时
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	CreditEvents string `mapstructure:"credit_events"`
	ScriptEvents string `mapstructure:"script_events"`
}

type AuthConfig struct {
	FirebaseProjectID string `mapstructure:"firebase_project_id"`
	CertsURL          string `mapstructure:"certs_url"`
}

type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

type AudioProxyConfig struct {
	TrustedOrigin  string `mapstructure:"trusted_origin"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBytes       int64  `mapstructure:"max_bytes"`
}

type BusinessConfig struct {
	StartingCredits      int64 `mapstructure:"starting_credits"`
	ScriptCost           int64 `mapstructure:"script_cost"`
	ScriptTimeoutMinutes int   `mapstructure:"script_timeout_minutes"`
	MaxRetryCount        int   `mapstructure:"max_retry_count"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", EnvProduction)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout_millis", 500)

	v.SetDefault("kafka.topic.credit_events", "credit.events")
	v.SetDefault("kafka.topic.script_events", "script.events")

	v.SetDefault("auth.certs_url", "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com")

	v.SetDefault("audio_proxy.trusted_origin", "storage.googleapis.com")
	v.SetDefault("audio_proxy.timeout_seconds", 30)
	v.SetDefault("audio_proxy.max_bytes", 50<<20)

	v.SetDefault("business.starting_credits", 10)
	v.SetDefault("business.script_cost", 1)
	v.SetDefault("business.script_timeout_minutes", 30)
	v.SetDefault("business.max_retry_count", 5)
}

// Load 读取配置文件并合并环境变量
// 配置文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	// .env 只在本地开发时存在
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 沿用部署平台上已有的变量名
	_ = v.BindEnv("webhook.secret", "N8N_WEBHOOK_SECRET")
	_ = v.BindEnv("server.env", "APP_ENV")
	_ = v.BindEnv("auth.firebase_project_id", "FIREBASE_PROJECT_ID")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN")
	_ = v.BindEnv("server.port", "PORT")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			log.Printf("[Config] 配置文件 %s 不存在，使用默认值和环境变量", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig 加载配置文件，失败直接退出
func LoadConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}
	return cfg
}

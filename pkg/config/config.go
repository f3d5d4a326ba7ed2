package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix 环境变量前缀，例如 AGRICHAIN_REDIS_ADDR 覆盖 redis.addr
const envPrefix = "AGRICHAIN"

// Config 全局配置（apiserver 与 worker 共用）
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
	Workers  []WorkerConfig `mapstructure:"workers"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	MaxWaitSeconds int    `mapstructure:"max_wait_seconds"` // Smart Wait 上限
	MigrationsDir  string `mapstructure:"migrations_dir"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Namespace     string `mapstructure:"namespace"`
	Token         string `mapstructure:"token"`
	Queue         string `mapstructure:"queue"`          // 推荐计算任务队列
	CallbackQueue string `mapstructure:"callback_queue"` // 回调队列
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name          string           `mapstructure:"name"`
	QueueName     string           `mapstructure:"queue_name"`
	CallbackQueue string           `mapstructure:"callback_queue"` // 回调队列名称
	Subscriber    SubscriberConfig `mapstructure:"subscriber"`
	Processor     ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// UpstreamConfig 外部数据源配置
type UpstreamConfig struct {
	OpenMeteoURL  string        `mapstructure:"open_meteo_url"`
	EnamURL       string        `mapstructure:"enam_url"`
	EnamToken     string        `mapstructure:"enam_token"`
	DataGovURL    string        `mapstructure:"data_gov_url"`
	DataGovAPIKey string        `mapstructure:"data_gov_api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
}

// CacheConfig 缓存 TTL 配置
type CacheConfig struct {
	LongTTL   time.Duration `mapstructure:"long_ttl"`   // 结构性数据（APMC 目录等）
	ShortTTL  time.Duration `mapstructure:"short_ttl"`  // 实时报价、天气
	ResultTTL time.Duration `mapstructure:"result_ttl"` // Smart Wait 结果通知有效期
}

// Load 加载配置文件
// 顺序：.env（可选）→ YAML → 环境变量覆盖
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agrichain")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_wait_seconds", 10)
	v.SetDefault("server.migrations_dir", "migrations")

	v.SetDefault("mysql.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("lmstfy.host", "")
	v.SetDefault("lmstfy.port", 7777)
	v.SetDefault("lmstfy.namespace", "agrichain")
	v.SetDefault("lmstfy.token", "")
	v.SetDefault("lmstfy.queue", "recommendation_compute")
	v.SetDefault("lmstfy.callback_queue", "recommendation_callback")

	v.SetDefault("upstream.open_meteo_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("upstream.enam_url", "https://umang.gov.in/apisetu/dept/enamapi/ws1")
	v.SetDefault("upstream.enam_token", "")
	v.SetDefault("upstream.data_gov_url", "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070")
	v.SetDefault("upstream.data_gov_api_key", "")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.rate_per_second", 5.0)
	v.SetDefault("upstream.max_retries", 2)

	v.SetDefault("cache.long_ttl", 24*time.Hour)
	v.SetDefault("cache.short_ttl", 15*time.Minute)
	v.SetDefault("cache.result_ttl", 15*time.Minute)
}

// Validate 验证 worker 配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	for _, w := range c.Workers {
		if w.QueueName == "" {
			return fmt.Errorf("worker %s: queue_name is required", w.Name)
		}
		if w.Subscriber.Threads <= 0 || w.Processor.Threads <= 0 {
			return fmt.Errorf("worker %s: subscriber/processor threads must be positive", w.Name)
		}
	}
	return nil
}

// ValidateServer 验证 apiserver 配置
func (c *Config) ValidateServer() error {
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql dsn is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy host is required")
	}
	if c.Lmstfy.Token == "" {
		return fmt.Errorf("lmstfy token is required")
	}
	if c.Lmstfy.Queue == "" || c.Lmstfy.CallbackQueue == "" {
		return fmt.Errorf("lmstfy queue and callback_queue are required")
	}
	return nil
}

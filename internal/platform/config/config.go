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

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// StoreConfig 选择主存储的实现
type StoreConfig struct {
	// Driver 为 redis 或 memory
	Driver    string `mapstructure:"driver"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SnapshotConfig 定义了快照数据库。Driver 为空时不做快照。
type SnapshotConfig struct {
	Driver   string        `mapstructure:"driver"`
	DSN      string        `mapstructure:"dsn"`
	Interval time.Duration `mapstructure:"interval"`
}

// AdminConfig 定义了管理后台的会话配置
type AdminConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Password   string        `mapstructure:"password"`
	JWTSecret  string        `mapstructure:"jwtSecret"`
	SessionTTL time.Duration `mapstructure:"sessionTTL"`
}

// RateLimitConfig 定义了领取接口的限流
type RateLimitConfig struct {
	ClaimsPerMinute int `mapstructure:"claimsPerMinute"`
	Burst           int `mapstructure:"burst"`
}

// LoggingConfig 定义了日志输出
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:5173"})

	v.SetDefault("store.driver", "redis")
	v.SetDefault("store.keyPrefix", "rewards:")

	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.snapshot.driver", "sqlite")
	v.SetDefault("database.snapshot.dsn", "rewards.db")
	v.SetDefault("database.snapshot.interval", "10m")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.sessionTTL", "12h")

	v.SetDefault("rateLimit.claimsPerMinute", 6)
	v.SetDefault("rateLimit.burst", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件；文件不存在时只使用默认值和环境变量
func LoadConfig() (*Config, error) {
	// .env 只用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法读取 .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 允许通过环境变量覆盖配置，例如 ADMIN_PASSWORD=secret
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv 只对已知的键生效，没有默认值的键需要显式绑定
	for _, key := range []string{"database.redis.password", "admin.password", "admin.jwtSecret"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("未知的存储驱动: %q", c.Store.Driver)
	}
	switch c.Database.Snapshot.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("未知的快照数据库驱动: %q", c.Database.Snapshot.Driver)
	}
	if c.RateLimit.ClaimsPerMinute <= 0 {
		return errors.New("rateLimit.claimsPerMinute 必须大于0")
	}
	return nil
}

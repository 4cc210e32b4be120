// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Search    SearchConfig    `mapstructure:"search"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 中的 Secret 没有任何内置默认值，必须由配置文件或环境变量提供。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// AuthConfig 存储账号相关的策略配置。
// DefaultPassword 是管理员创建/重置账号时使用的初始密码。
type AuthConfig struct {
	DefaultPassword   string `mapstructure:"default_password"`
	MinPasswordLength int    `mapstructure:"min_password_length"`
}

// UploadConfig 存储上传目录配置，images/ 与 files/ 子目录在该目录下创建。
type UploadConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// AnalyticsConfig 存储外部分析服务（GA4 Data API）配置。
// Enabled 为 false 时使用模拟数据，系统其余部分照常工作。
type AnalyticsConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	PropertyID              string `mapstructure:"property_id"`
	APIKey                  string `mapstructure:"api_key"`
	BaseURL                 string `mapstructure:"base_url"`
	RefreshCron             string `mapstructure:"refresh_cron"`
	TrendingCacheTTLSeconds int    `mapstructure:"trending_cache_ttl_seconds"`
}

// SearchConfig 存储 Elasticsearch 配置，未启用时管理端搜索退回 SQL LIKE。
type SearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	NewsIndex string   `mapstructure:"news_index"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 配置文件并解析导入到 Conf 变量中。
// JWT 密钥缺失视为致命错误：绝不回退到硬编码密钥。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("fatal error unmarshalling config: %w", err))
	}

	applyDefaults(&Conf)

	if Conf.JWT.Secret == "" {
		panic(fmt.Errorf("jwt.secret is required and has no default"))
	}
}

func applyDefaults(c *Config) {
	if c.JWT.AccessTokenExpireHours <= 0 {
		c.JWT.AccessTokenExpireHours = 24
	}
	if c.Auth.DefaultPassword == "" {
		c.Auth.DefaultPassword = "user"
	}
	if c.Auth.MinPasswordLength <= 0 {
		c.Auth.MinPasswordLength = 8
	}
	if c.Upload.BaseDir == "" {
		c.Upload.BaseDir = "uploads"
	}
	if c.Analytics.RefreshCron == "" {
		c.Analytics.RefreshCron = "@hourly"
	}
	if c.Analytics.TrendingCacheTTLSeconds <= 0 {
		c.Analytics.TrendingCacheTTLSeconds = 300
	}
	if c.Search.NewsIndex == "" {
		c.Search.NewsIndex = "news"
	}
}

// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	UI        UIConfig        `mapstructure:"ui"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Router    RouterConfig    `mapstructure:"router"`
}

// ServerConfig 存储前端服务（页面 + 代理网关）的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// UpstreamConfig 是代理网关转发的目标聊天后端。
type UpstreamConfig struct {
	URL string `mapstructure:"url"`
}

// UIConfig 存储聊天页面的配置。
type UIConfig struct {
	// GatewayURL 为空时使用本服务自身的 /api/chat。
	GatewayURL string `mapstructure:"gateway_url"`
	SessionID  string `mapstructure:"session_id"`
}

// BackendConfig 存储参考聊天后端的配置。
type BackendConfig struct {
	Port        string `mapstructure:"port"`
	HistorySize int    `mapstructure:"history_size"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey       string              `mapstructure:"api_key"`
	BaseURL      string              `mapstructure:"base_url"`
	Model        string              `mapstructure:"model"`
	SystemPrompt string              `mapstructure:"system_prompt"`
	Generation   LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置，用于意图路由。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// WeatherConfig 存储 OpenWeatherMap 的配置。
type WeatherConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	DefaultCity string `mapstructure:"default_city"`
}

// RouterConfig 存储意图路由的配置。
type RouterConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("upstream.url", "http://chatbot-api:8000/api/v1/chat")
	v.SetDefault("ui.session_id", "nextjs-demo")
	v.SetDefault("backend.port", "8000")
	v.SetDefault("backend.history_size", 5)
	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.default_city", "London")
	v.SetDefault("router.threshold", 0.45)
}

// envBindings 把密钥与部署地址映射到环境变量，环境变量优先于配置文件。
var envBindings = map[string]string{
	"upstream.url":        "UPSTREAM_URL",
	"database.redis.addr": "REDIS_ADDR",
	"llm.api_key":         "LLM_API_KEY",
	"embedding.api_key":   "EMBEDDING_API_KEY",
	"weather.api_key":     "OPENWEATHER_API_KEY",
}

// Load 从指定路径读取 YAML 文件，未出现的键使用默认值。
func Load(configPath string) (Config, error) {
	// 工作目录下存在 .env 时先加载，不覆盖已有的环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化配置加载，结果写入全局 Conf。失败时 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}

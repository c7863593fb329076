// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Retrieval     RetrievalConfig     `mapstructure:"retrieval"`
	Ticket        TicketConfig        `mapstructure:"ticket"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
// DOCX 与图片 OCR 的文本提取委托给 Tika 服务完成。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置（Ollama）。
type EmbeddingConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig 存储大语言模型相关的配置（Ollama）。
type LLMConfig struct {
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置默认生成参数（可被各调用点覆盖）。
type LLMGenerationConfig struct {
	Temperature   float64 `mapstructure:"temperature"`
	TopP          float64 `mapstructure:"top_p"`
	NumPredict    int     `mapstructure:"num_predict"`
	RepeatPenalty float64 `mapstructure:"repeat_penalty"`
}

// RetrievalConfig 存储检索策略相关的参数。
// 各调用点的阈值/topK 不同：对话检索更宽松，试卷合成更偏向高覆盖。
type RetrievalConfig struct {
	ChatThreshold   float64 `mapstructure:"chat_threshold"`
	ChatTopK        int     `mapstructure:"chat_top_k"`
	PrepThreshold   float64 `mapstructure:"prep_threshold"`
	PrepTopK        int     `mapstructure:"prep_top_k"`
	PaperTopK       int     `mapstructure:"paper_top_k"`
	FallbackLimit   int     `mapstructure:"fallback_limit"`
	PageSize        int     `mapstructure:"page_size"`
	MaxContextChars int     `mapstructure:"max_context_chars"`
	// AllowLatestSubjectFallback 允许在未指定学科时退回“最近创建的学科”。
	// 该兜底会放宽检索范围，多租户部署必须关闭。
	AllowLatestSubjectFallback bool `mapstructure:"allow_latest_subject_fallback"`
}

// TicketConfig 存储 WebSocket 流式票据的签发配置。
type TicketConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// 环境变量可覆盖同名配置项（例如 EMBEDDING_BASE_URL）。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults(&Conf)
}

// applyDefaults 为未配置的检索参数填入与线上行为一致的默认值。
func applyDefaults(c *Config) {
	if c.Retrieval.ChatThreshold == 0 {
		c.Retrieval.ChatThreshold = 0.15
	}
	if c.Retrieval.ChatTopK == 0 {
		c.Retrieval.ChatTopK = 10
	}
	if c.Retrieval.PrepThreshold == 0 {
		c.Retrieval.PrepThreshold = 0.2
	}
	if c.Retrieval.PrepTopK == 0 {
		c.Retrieval.PrepTopK = 10
	}
	if c.Retrieval.PaperTopK == 0 {
		c.Retrieval.PaperTopK = 15
	}
	if c.Retrieval.FallbackLimit == 0 {
		c.Retrieval.FallbackLimit = 15
	}
	if c.Retrieval.PageSize == 0 {
		c.Retrieval.PageSize = 1000
	}
	if c.Retrieval.MaxContextChars == 0 {
		c.Retrieval.MaxContextChars = 15000
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Ticket.ExpireMinutes == 0 {
		c.Ticket.ExpireMinutes = 10
	}
}

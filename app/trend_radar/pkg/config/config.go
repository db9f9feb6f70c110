package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider   = "openai"
	DefaultModel      = "gpt-4o-mini"
	DefaultTimeout    = 90
	DefaultMaxNews    = 50
	DefaultPromptFile = "ai_analysis_prompt.txt"

	// APIKeyEnv 配置文件未设置 api_key 时读取的环境变量
	APIKeyEnv = "AI_API_KEY"
)

// Config 项目配置结构体
type Config struct {
	AI          AIConfig          `yaml:"ai"`
	Report      ReportConfig      `yaml:"report"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// AIConfig AI 分析相关配置
type AIConfig struct {
	APIKey     string `yaml:"api_key"`
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Timeout    int    `yaml:"timeout"`               // 秒
	MaxNews    int    `yaml:"max_news_for_analysis"` // 提交给模型的最大条目数
	IncludeRSS *bool  `yaml:"include_rss"`
	PromptFile string `yaml:"prompt_file"`
}

// RSSEnabled 是否将 RSS 条目提交分析，未配置时默认开启
func (c *AIConfig) RSSEnabled() bool {
	return c.IncludeRSS == nil || *c.IncludeRSS
}

// ReportConfig 报告上下文配置
type ReportConfig struct {
	Mode      string   `yaml:"mode"`
	Type      string   `yaml:"type"`
	Platforms []string `yaml:"platforms"`
	RSSLinks  []string `yaml:"rss_links"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	// 提示词文件的相对路径以配置文件所在目录为基准
	if !filepath.IsAbs(cfg.AI.PromptFile) {
		cfg.AI.PromptFile = filepath.Join(filepath.Dir(path), cfg.AI.PromptFile)
	}

	return &cfg, nil
}

// ApplyDefaults 填充缺省值，并用环境变量补齐 API Key
func (c *Config) ApplyDefaults() {
	ai := &c.AI
	if ai.APIKey == "" {
		ai.APIKey = os.Getenv(APIKeyEnv)
	}
	if ai.Provider == "" {
		ai.Provider = DefaultProvider
	}
	if ai.Model == "" {
		ai.Model = DefaultModel
	}
	if ai.Timeout <= 0 {
		ai.Timeout = DefaultTimeout
	}
	if ai.MaxNews <= 0 {
		ai.MaxNews = DefaultMaxNews
	}
	if ai.PromptFile == "" {
		ai.PromptFile = DefaultPromptFile
	}
	if c.Report.Mode == "" {
		c.Report.Mode = "daily"
	}
	if c.Report.Type == "" {
		c.Report.Type = "当日汇总"
	}
}

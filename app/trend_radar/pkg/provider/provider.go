package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

const (
	OpenAI   = "openai"
	DeepSeek = "deepseek"
	Gemini   = "gemini"

	// 两种请求格式共用的采样参数
	Temperature     = 0.7
	MaxOutputTokens = 2000

	DefaultGeminiModel = "gemini-1.5-flash"
)

// 预设完整端点，{model} 由模型名替换
var defaultEndpoints = map[string]string{
	OpenAI:   "https://api.openai.com/v1/chat/completions",
	DeepSeek: "https://api.deepseek.com/v1/chat/completions",
	Gemini:   "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent",
}

// Request 一次分析调用的请求参数
type Request struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Messages []*schema.Message
	Timeout  time.Duration
}

// Dispatcher 定义模型调用接口，返回模型回复的原始文本
type Dispatcher interface {
	Dispatch(ctx context.Context, req *Request) (string, error)
}

// New 根据 provider 名称选择请求格式，未识别的名称按 OpenAI 兼容接口处理
func New(name string, client *http.Client) Dispatcher {
	if client == nil {
		client = &http.Client{}
	}
	switch strings.ToLower(name) {
	case Gemini:
		return &geminiClient{client: client}
	default:
		return &openAIClient{client: client}
	}
}

// ResolveURL 获取完整 API URL，显式 baseURL 优先
func ResolveURL(name, model, baseURL string) (string, error) {
	if baseURL != "" {
		return baseURL, nil
	}
	url, ok := defaultEndpoints[strings.ToLower(name)]
	if !ok {
		return "", &Error{
			Kind:     KindConfig,
			Provider: name,
			Err:      fmt.Errorf("%s 需要配置 base_url（完整 API 地址）", name),
		}
	}
	if strings.Contains(url, "{model}") {
		if model == "" {
			model = DefaultGeminiModel
		}
		url = strings.ReplaceAll(url, "{model}", model)
	}
	return url, nil
}

// withTimeout 对所有 provider 统一施加超时
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

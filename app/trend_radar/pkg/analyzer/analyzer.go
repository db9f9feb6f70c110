package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/logger"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/metrics"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/prompt"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/provider"
)

const (
	timeLayout = "2006-01-02 15:04:05"

	maxStatusBodyChars = 100
	maxErrorChars      = 150
)

// Options 构造 Analyzer 的可选依赖
type Options struct {
	HTTPClient *http.Client
	Now        func() time.Time
	Limiter    *rate.Limiter    // 为 nil 时不限流
	Template   *prompt.Template // 为 nil 时从 cfg.PromptFile 加载
}

// Input 一次分析的输入数据
type Input struct {
	Stats      []model.TopicGroup `json:"stats"`
	RSSStats   []model.FeedGroup  `json:"rss_stats"`
	ReportMode string             `json:"report_mode"`
	ReportType string             `json:"report_type"`
	Platforms  []string           `json:"platforms"`
	Keywords   []string           `json:"keywords"`
}

// Analyzer AI 热点分析器，构造后不可变，可并发使用
type Analyzer struct {
	cfg        config.AIConfig
	budget     int
	tpl        prompt.Template
	dispatcher provider.Dispatcher
	limiter    *rate.Limiter
	now        func() time.Time
}

// New 创建分析器实例
func New(cfg *config.AIConfig, opts Options) *Analyzer {
	a := &Analyzer{
		cfg:        *cfg,
		budget:     cfg.MaxNews,
		dispatcher: provider.New(cfg.Provider, opts.HTTPClient),
		limiter:    opts.Limiter,
		now:        opts.Now,
	}
	if a.budget <= 0 {
		a.budget = config.DefaultMaxNews
	}
	if a.cfg.Timeout <= 0 {
		a.cfg.Timeout = config.DefaultTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	if opts.Template != nil {
		a.tpl = *opts.Template
	} else {
		a.tpl = prompt.Load(cfg.PromptFile)
	}
	return a
}

// NewLimiter 按 RPM/QPS 创建限流器，RPM 未配置时返回 nil
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	if c.RPM <= 0 {
		return nil
	}
	burst := c.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(c.RPM)/60.0), burst)
}

// Template 当前使用的提示词模板
func (a *Analyzer) Template() prompt.Template {
	return a.tpl
}

// Analyze 执行一次分析，所有失败都体现在返回结果中
func (a *Analyzer) Analyze(ctx context.Context, in Input) *model.AnalysisResult {
	result := a.analyze(ctx, in)
	metrics.ObserveAnalysis(a.cfg.Provider, string(result.Status))
	return result
}

func (a *Analyzer) analyze(ctx context.Context, in Input) *model.AnalysisResult {
	sel := Select(in.Stats, in.RSSStats, a.budget, a.cfg.RSSEnabled())
	metrics.ObserveDigest(sel.Included)

	fail := func(kind model.ErrorKind, msg string) *model.AnalysisResult {
		logger.Log.Warnf("AI 分析未执行: %s", msg)
		r := &model.AnalysisResult{Status: model.StatusFailed, ErrorKind: kind, Error: msg}
		a.attachCounters(r, sel)
		return r
	}

	if a.cfg.APIKey == "" {
		return fail(model.ErrorKindConfig, "未配置 AI API Key，请在 config.yaml 或环境变量 "+config.APIKeyEnv+" 中设置")
	}
	if sel.Content == "" {
		return fail(model.ErrorKindConfig, "没有可分析的新闻内容")
	}
	if a.tpl.Empty() {
		return fail(model.ErrorKindConfig, "提示词模板为空，请检查 "+a.cfg.PromptFile)
	}
	if _, err := provider.ResolveURL(a.cfg.Provider, a.cfg.Model, a.cfg.BaseURL); err != nil {
		return fail(model.ErrorKindConfig, friendlyError(&a.cfg, err))
	}

	keywords := in.Keywords
	if len(keywords) == 0 {
		keywords = groupWords(in.Stats)
	}
	userPrompt := a.tpl.Render(prompt.Vars{
		ReportMode:  in.ReportMode,
		ReportType:  in.ReportType,
		CurrentTime: a.now().Format(timeLayout),
		NewsCount:   sel.HotlistTotal,
		RSSCount:    sel.RSSTotal,
		Platforms:   in.Platforms,
		Keywords:    keywords,
		NewsContent: sel.Content,
	})

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return fail(model.ErrorKindTimeout, fmt.Sprintf("等待限流器失败: %v", err))
		}
	}

	logger.Log.Infof("开始 AI 分析: provider=%s model=%s 条目=%d/%d", a.cfg.Provider, a.cfg.Model, sel.Included, sel.Total())
	start := time.Now()
	reply, err := a.dispatcher.Dispatch(ctx, &provider.Request{
		Provider: a.cfg.Provider,
		Model:    a.cfg.Model,
		APIKey:   a.cfg.APIKey,
		BaseURL:  a.cfg.BaseURL,
		Messages: a.tpl.Messages(userPrompt),
		Timeout:  time.Duration(a.cfg.Timeout) * time.Second,
	})
	metrics.ObserveDispatch(a.cfg.Provider, time.Since(start))
	if err != nil {
		logger.Log.Errorf("AI API 调用失败: %v", err)
		r := &model.AnalysisResult{
			Status:    model.StatusFailed,
			ErrorKind: errorKind(err),
			Error:     friendlyError(&a.cfg, err),
		}
		a.attachCounters(r, sel)
		return r
	}

	result := Decode(reply)
	if result.Status == model.StatusDegraded {
		logger.Log.Warnf("AI 响应解析降级: %s", result.Error)
	}
	a.attachCounters(result, sel)
	return result
}

func (a *Analyzer) attachCounters(r *model.AnalysisResult, sel Selection) {
	r.TotalNews = sel.Total()
	r.HotlistCount = sel.HotlistTotal
	r.RSSCount = sel.RSSTotal
	r.AnalyzedNews = sel.Included
	r.MaxNewsLimit = a.budget
}

func groupWords(groups []model.TopicGroup) []string {
	var words []string
	for _, g := range groups {
		if g.Word != "" {
			words = append(words, g.Word)
		}
	}
	return words
}

func errorKind(err error) model.ErrorKind {
	var pe *provider.Error
	if !errors.As(err, &pe) {
		return model.ErrorKindUnknown
	}
	switch pe.Kind {
	case provider.KindConfig:
		return model.ErrorKindConfig
	case provider.KindTimeout:
		return model.ErrorKindTimeout
	case provider.KindConnection:
		return model.ErrorKindConnection
	case provider.KindHTTPStatus:
		return model.ErrorKindHTTPStatus
	case provider.KindBadResponse:
		return model.ErrorKindBadResponse
	default:
		return model.ErrorKindUnknown
	}
}

// friendlyError 将调用错误转换为面向用户的提示
func friendlyError(cfg *config.AIConfig, err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case provider.KindConfig:
			return unwrapMessage(pe)
		case provider.KindTimeout:
			return fmt.Sprintf("AI API 请求超时（%d秒），请检查网络或增加超时时间", cfg.Timeout)
		case provider.KindConnection:
			target := cfg.BaseURL
			if target == "" {
				target = cfg.Provider
			}
			return fmt.Sprintf("无法连接到 AI API (%s)，请检查网络和 API 地址", target)
		case provider.KindHTTPStatus:
			switch pe.StatusCode {
			case http.StatusUnauthorized:
				return "AI API 认证失败，请检查 API Key 是否正确"
			case http.StatusTooManyRequests:
				return "AI API 请求频率过高，请稍后重试"
			case http.StatusInternalServerError:
				return "AI API 服务器内部错误，请稍后重试"
			default:
				return fmt.Sprintf("AI API 返回错误 (HTTP %d): %s", pe.StatusCode, headRunes(pe.Body, maxStatusBodyChars))
			}
		}
	}

	msg := fmt.Sprintf("AI 分析失败 (%s): %s", cfg.Provider, err.Error())
	if r := []rune(msg); len(r) > maxErrorChars {
		msg = string(r[:maxErrorChars]) + "..."
	}
	return msg
}

func unwrapMessage(pe *provider.Error) string {
	if pe.Err != nil {
		return pe.Err.Error()
	}
	return pe.Error()
}

package model

// TopicEntry 热榜条目
type TopicEntry struct {
	Title      string `json:"title"`
	SourceName string `json:"source_name,omitempty"`
	Source     string `json:"source,omitempty"` // 旧数据源字段，SourceName 为空时使用
	Ranks      []int  `json:"ranks,omitempty"`
	FirstTime  string `json:"first_time,omitempty"`
	LastTime   string `json:"last_time,omitempty"`
	Count      int    `json:"count,omitempty"`
	URL        string `json:"url,omitempty"`
	MobileURL  string `json:"mobile_url,omitempty"`
}

// SourceLabel 返回条目的来源名称
func (e TopicEntry) SourceLabel() string {
	if e.SourceName != "" {
		return e.SourceName
	}
	return e.Source
}

// Occurrences 返回出现次数，未记录时按 1 次计算
func (e TopicEntry) Occurrences() int {
	if e.Count < 1 {
		return 1
	}
	return e.Count
}

// TopicGroup 按关键词聚合的热榜条目
type TopicGroup struct {
	Word   string       `json:"word"`
	Titles []TopicEntry `json:"titles"`
}

// FeedEntry RSS 条目
type FeedEntry struct {
	Title       string `json:"title"`
	SourceName  string `json:"source_name,omitempty"`
	FeedName    string `json:"feed_name,omitempty"`
	TimeDisplay string `json:"time_display,omitempty"`
	URL         string `json:"url,omitempty"`
}

// SourceLabel 返回条目的来源名称
func (e FeedEntry) SourceLabel() string {
	if e.SourceName != "" {
		return e.SourceName
	}
	return e.FeedName
}

// FeedGroup 按关键词聚合的 RSS 条目
type FeedGroup struct {
	Word   string      `json:"word"`
	Titles []FeedEntry `json:"titles"`
}

// Status 分析结果状态
type Status string

const (
	StatusOK       Status = "ok"       // 成功解析出结构化结果
	StatusDegraded Status = "degraded" // 请求成功但响应不是合法 JSON，仅保留原文
	StatusFailed   Status = "failed"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindConfig        ErrorKind = "config"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindConnection    ErrorKind = "connection"
	ErrorKindHTTPStatus    ErrorKind = "http_status"
	ErrorKindBadResponse   ErrorKind = "bad_response"
	ErrorKindEmptyResponse ErrorKind = "empty_response"
	ErrorKindDecode        ErrorKind = "decode"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// AnalysisResult AI 分析结果
type AnalysisResult struct {
	Success bool   `json:"success"`
	Status  Status `json:"status"`

	Summary         string `json:"summary"`          // 热点趋势概述
	KeywordAnalysis string `json:"keyword_analysis"` // 关键词热度分析
	Sentiment       string `json:"sentiment"`        // 情感倾向分析
	CrossPlatform   string `json:"cross_platform"`   // 跨平台关联
	Impact          string `json:"impact"`           // 潜在影响评估
	Signals         string `json:"signals"`          // 值得关注的信号
	Conclusion      string `json:"conclusion"`       // 总结与建议
	RawResponse     string `json:"raw_response,omitempty"`

	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`

	TotalNews    int `json:"total_news"`     // 总新闻数（热榜+RSS）
	AnalyzedNews int `json:"analyzed_news"`  // 实际分析的新闻数
	MaxNewsLimit int `json:"max_news_limit"` // 分析上限配置值
	HotlistCount int `json:"hotlist_count"`
	RSSCount     int `json:"rss_count"`
}

// Sections 按固定顺序返回七个分析段落
func (r *AnalysisResult) Sections() []Section {
	return []Section{
		{Key: "summary", Text: r.Summary},
		{Key: "keyword_analysis", Text: r.KeywordAnalysis},
		{Key: "sentiment", Text: r.Sentiment},
		{Key: "cross_platform", Text: r.CrossPlatform},
		{Key: "impact", Text: r.Impact},
		{Key: "signals", Text: r.Signals},
		{Key: "conclusion", Text: r.Conclusion},
	}
}

// Section 分析段落
type Section struct {
	Key  string
	Text string
}

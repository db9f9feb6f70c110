package prompt

import (
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/logger"
)

const (
	systemMarker = "[system]"
	userMarker   = "[user]"

	// MaxKeywords 写入提示词的关键词上限
	MaxKeywords = 20

	defaultPlatforms = "多平台"
	defaultKeywords  = "无"
)

// Placeholder 用户提示词中可被替换的占位符
type Placeholder string

// 占位符是一个封闭集合，只做字面替换，模板中的 JSON 示例花括号保持原样
const (
	ReportMode  Placeholder = "{report_mode}"
	ReportType  Placeholder = "{report_type}"
	CurrentTime Placeholder = "{current_time}"
	NewsCount   Placeholder = "{news_count}"
	RSSCount    Placeholder = "{rss_count}"
	Platforms   Placeholder = "{platforms}"
	Keywords    Placeholder = "{keywords}"
	NewsContent Placeholder = "{news_content}"
)

// Template 提示词模板（system + user 两段）
type Template struct {
	System string
	User   string
}

// Vars 渲染用户提示词所需的变量
type Vars struct {
	ReportMode  string
	ReportType  string
	CurrentTime string
	NewsCount   int
	RSSCount    int
	Platforms   []string
	Keywords    []string
	NewsContent string
}

// Load 从文件加载模板，文件不存在时返回空模板
func Load(path string) Template {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Log.Warnf("提示词文件不可用: %s (%v)", path, err)
		return Template{}
	}
	return Parse(string(content))
}

// Parse 按 [system] / [user] 标记拆分模板内容
func Parse(content string) Template {
	if !strings.Contains(content, systemMarker) || !strings.Contains(content, userMarker) {
		return Template{User: content}
	}

	before, after, _ := strings.Cut(content, userMarker)
	var tpl Template
	if _, sys, ok := strings.Cut(before, systemMarker); ok {
		tpl.System = strings.TrimSpace(sys)
	}
	tpl.User = strings.TrimSpace(after)
	return tpl
}

// Empty 用户段为空时模板不可用
func (t Template) Empty() bool {
	return strings.TrimSpace(t.User) == ""
}

// Render 对用户段做字面替换
func (t Template) Render(v Vars) string {
	platforms := defaultPlatforms
	if len(v.Platforms) > 0 {
		platforms = strings.Join(v.Platforms, ", ")
	}
	keywords := defaultKeywords
	if len(v.Keywords) > 0 {
		kw := v.Keywords
		if len(kw) > MaxKeywords {
			kw = kw[:MaxKeywords]
		}
		keywords = strings.Join(kw, ", ")
	}

	// Replacer 单遍扫描，替换结果不会被再次解析
	r := strings.NewReplacer(
		string(ReportMode), v.ReportMode,
		string(ReportType), v.ReportType,
		string(CurrentTime), v.CurrentTime,
		string(NewsCount), strconv.Itoa(v.NewsCount),
		string(RSSCount), strconv.Itoa(v.RSSCount),
		string(Platforms), platforms,
		string(Keywords), keywords,
		string(NewsContent), v.NewsContent,
	)
	return r.Replace(t.User)
}

// Messages 组装发送给模型的消息列表
func (t Template) Messages(user string) []*schema.Message {
	var msgs []*schema.Message
	if t.System != "" {
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: t.System})
	}
	msgs = append(msgs, &schema.Message{Role: schema.User, Content: user})
	return msgs
}

package render

import (
	"strings"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

const title = "✨ AI 热点分析"

// 段落标题，按 model.AnalysisResult.Sections 的 Key 索引
var headings = map[string]string{
	"summary":          "趋势概述",
	"keyword_analysis": "热度走势",
	"sentiment":        "情感倾向",
	"cross_platform":   "跨平台关联",
	"impact":           "潜在影响",
	"signals":          "值得关注",
	"conclusion":       "总结建议",
}

// Renderer 将分析结果渲染为某个推送渠道的文本
type Renderer func(r *model.AnalysisResult) string

// textStyle 文本类渠道的标题样式
type textStyle struct {
	title   string
	heading func(string) string
	failure string
}

func (s textStyle) render(r *model.AnalysisResult) string {
	if !r.Success {
		return s.failure + r.Error
	}
	blocks := []string{s.title}
	for _, sec := range r.Sections() {
		if sec.Text == "" {
			continue
		}
		blocks = append(blocks, s.heading(headings[sec.Key])+"\n"+sec.Text)
	}
	return strings.Join(blocks, "\n\n")
}

var (
	markdownStyle = textStyle{
		title:   "**" + title + "**",
		heading: func(h string) string { return "**" + h + "**" },
		failure: "⚠️ AI 分析失败: ",
	}
	dingTalkStyle = textStyle{
		title:   "### " + title,
		heading: func(h string) string { return "#### " + h },
		failure: "⚠️ AI 分析失败: ",
	}
	plainStyle = textStyle{
		title:   "【AI 热点分析】",
		heading: func(h string) string { return "[" + h + "]" },
		failure: "AI 分析失败: ",
	}
)

// Markdown 通用 Markdown（企业微信、Telegram、ntfy、Slack）
func Markdown(r *model.AnalysisResult) string { return markdownStyle.render(r) }

// Feishu 飞书卡片 Markdown
func Feishu(r *model.AnalysisResult) string { return markdownStyle.render(r) }

// DingTalk 钉钉 Markdown
func DingTalk(r *model.AnalysisResult) string { return dingTalkStyle.render(r) }

// Plain 纯文本
func Plain(r *model.AnalysisResult) string { return plainStyle.render(r) }

var channels = map[string]Renderer{
	"feishu":   Feishu,
	"dingtalk": DingTalk,
	"wework":   Markdown,
	"telegram": Markdown,
	"email":    HTML,
	"ntfy":     Markdown,
	"bark":     Plain,
	"slack":    Markdown,
}

// ForChannel 根据渠道名获取渲染函数，未知渠道使用 Markdown
func ForChannel(name string) Renderer {
	if r, ok := channels[strings.ToLower(name)]; ok {
		return r
	}
	return Markdown
}

package render

import (
	"html/template"
	"strings"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/logger"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

const htmlTpl = `{{if not .Success}}<div class="ai-error">⚠️ AI 分析失败: {{.Error}}</div>{{else}}<div class="ai-analysis">
<h3>{{.Title}}</h3>
{{- range .Sections}}
<div class="ai-section{{if .Conclusion}} ai-conclusion{{end}}">
<h4>{{.Heading}}</h4>
<p>{{.Text}}</p>
</div>
{{- end}}
</div>{{end}}`

var emailTemplate = template.Must(template.New("ai-analysis").Parse(htmlTpl))

// htmlData 用于模板渲染的数据
type htmlData struct {
	Success  bool
	Error    string
	Title    string
	Sections []htmlSection
}

type htmlSection struct {
	Heading    string
	Text       string
	Conclusion bool
}

// HTML 邮件 HTML 片段，内容经过转义
func HTML(r *model.AnalysisResult) string {
	data := htmlData{Success: r.Success, Error: r.Error, Title: title}
	for _, sec := range r.Sections() {
		if sec.Text == "" {
			continue
		}
		data.Sections = append(data.Sections, htmlSection{
			Heading:    headings[sec.Key],
			Text:       sec.Text,
			Conclusion: sec.Key == "conclusion",
		})
	}

	var sb strings.Builder
	if err := emailTemplate.Execute(&sb, data); err != nil {
		logger.Log.Errorf("渲染 HTML 失败: %v", err)
		return ""
	}
	return sb.String()
}

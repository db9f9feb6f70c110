package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

const (
	fence     = "```"
	jsonFence = "```json"

	// MaxFallbackChars 解析失败时作为概述保留的原文长度（字符）
	MaxFallbackChars = 1000
	snippetRadius    = 30
)

// extractor 从模型回复中截取候选 JSON 文本，未命中时返回 false
type extractor func(reply string) (string, bool)

// 按优先级依次尝试，解析失败时继续下一项，最后一项总会命中
var extractors = []extractor{
	extractJSONFence,
	extractJSONFenceToLast,
	extractAnyFence,
	extractWhole,
}

// extractJSONFence 截取 ```json 代码块内容，缺少结束标记时取剩余全部内容
func extractJSONFence(reply string) (string, bool) {
	_, rest, ok := strings.Cut(reply, jsonFence)
	if !ok {
		return "", false
	}
	if body, _, closed := strings.Cut(rest, fence); closed {
		return body, true
	}
	return rest, true
}

// extractJSONFenceToLast 截取到最后一个 ``` 为止，字段值中含有 ``` 时使用
func extractJSONFenceToLast(reply string) (string, bool) {
	_, rest, ok := strings.Cut(reply, jsonFence)
	if !ok {
		return "", false
	}
	i := strings.LastIndex(rest, fence)
	if i < 0 {
		return "", false
	}
	return rest[:i], true
}

// extractAnyFence 截取第一个 ``` 代码块内容
func extractAnyFence(reply string) (string, bool) {
	_, rest, ok := strings.Cut(reply, fence)
	if !ok {
		return "", false
	}
	body, _, _ := strings.Cut(rest, fence)
	return dropInfoString(body), true
}

// dropInfoString 去掉开头一行的语言标记，例如 ```javascript
func dropInfoString(body string) string {
	first, rest, ok := strings.Cut(body, "\n")
	if !ok || first == "" {
		return body
	}
	for _, r := range first {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return body
		}
	}
	return rest
}

func extractWhole(reply string) (string, bool) {
	return reply, true
}

// jsonFields 结果中七个段落对应的 JSON 字段
var jsonFields = []struct {
	key string
	set func(r *model.AnalysisResult, v string)
}{
	{"summary", func(r *model.AnalysisResult, v string) { r.Summary = v }},
	{"keyword_analysis", func(r *model.AnalysisResult, v string) { r.KeywordAnalysis = v }},
	{"sentiment", func(r *model.AnalysisResult, v string) { r.Sentiment = v }},
	{"cross_platform", func(r *model.AnalysisResult, v string) { r.CrossPlatform = v }},
	{"impact", func(r *model.AnalysisResult, v string) { r.Impact = v }},
	{"signals", func(r *model.AnalysisResult, v string) { r.Signals = v }},
	{"conclusion", func(r *model.AnalysisResult, v string) { r.Conclusion = v }},
}

// Decode 解析模型回复，JSON 无法解析时降级为原文展示，永不返回错误
func Decode(raw string) *model.AnalysisResult {
	result := &model.AnalysisResult{RawResponse: raw}

	if strings.TrimSpace(raw) == "" {
		result.Status = model.StatusFailed
		result.ErrorKind = model.ErrorKindEmptyResponse
		result.Error = "AI 返回空响应"
		return result
	}

	var (
		firstText string
		firstErr  error
	)
	for _, extract := range extractors {
		text, ok := extract(raw)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		err := fillSections(result, text)
		if err == nil {
			result.Success = true
			result.Status = model.StatusOK
			return result
		}
		// 诊断信息以优先级最高的候选为准
		if firstErr == nil {
			firstText, firstErr = text, err
		}
	}

	result.Success = true // 仍有内容可展示
	result.Status = model.StatusDegraded
	result.ErrorKind = model.ErrorKindDecode
	result.Error = diagnose(firstText, firstErr)
	result.Summary = headRunes(raw, MaxFallbackChars)
	return result
}
var errEmptyJSON = errors.New("提取的 JSON 内容为空")

func fillSections(result *model.AnalysisResult, text string) error {
	if text == "" {
		return errEmptyJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("JSON 顶层不是对象")
	}

	for _, f := range jsonFields {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}
		f.set(result, fieldText(raw))
	}
	return nil
}

// fieldText 字符串取原值，其它类型保留紧凑 JSON 文本
func fieldText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// diagnose 生成包含出错位置和上下文的诊断信息
func diagnose(text string, err error) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		msg := fmt.Sprintf("JSON 解析错误 (位置 %d): %s", syntaxErr.Offset, syntaxMessage(text, syntaxErr))
		if ctx := snippetAround(text, int(syntaxErr.Offset), snippetRadius); ctx != "" {
			msg += "，上下文: ..." + ctx + "..."
		}
		return msg
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("响应解析错误: JSON 顶层不是对象 (%s)", typeErr.Value)
	}
	return "响应解析错误: " + err.Error()
}

// syntaxMessage 错误信息只引用单个字节，多字节字符时换成完整字符
func syntaxMessage(text string, e *json.SyntaxError) string {
	msg := e.Error()
	i := int(e.Offset) - 1
	if i < 0 || i >= len(text) || text[i] < utf8.RuneSelf {
		return msg
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if r == utf8.RuneError && size <= 1 {
		return msg
	}
	return strings.Replace(msg, quoteByte(text[i]), "'"+string(r)+"'", 1)
}

// quoteByte 与 encoding/json 引用非法字符的方式一致
func quoteByte(c byte) string {
	q := strconv.Quote(string(rune(c)))
	return "'" + q[1:len(q)-1] + "'"
}

// snippetAround 截取 offset 附近的文本，边界对齐到 UTF-8 字符
func snippetAround(s string, offset, radius int) string {
	if s == "" || offset <= 0 {
		return ""
	}
	start := max(0, offset-radius)
	end := min(len(s), offset+radius)
	for start > 0 && !utf8.RuneStart(s[start]) {
		start--
	}
	for end < len(s) && !utf8.RuneStart(s[end]) {
		end++
	}
	return s[start:end]
}

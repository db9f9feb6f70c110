package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cloudwego/eino/schema"
)

const (
	geminiInstructionPrefix = "System instruction: "
	geminiAcknowledgement   = "Understood. I will follow these instructions."
)

// geminiClient Google Gemini generateContent 接口
type geminiClient struct {
	client *http.Client
}

var _ Dispatcher = (*geminiClient)(nil)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// geminiContents 转换消息列表，system 指令改写为一轮 user/model 对话
func geminiContents(msgs []*schema.Message) []geminiContent {
	var contents []geminiContent
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			contents = append(contents,
				geminiContent{Role: "user", Parts: []geminiPart{{Text: geminiInstructionPrefix + m.Content}}},
				geminiContent{Role: "model", Parts: []geminiPart{{Text: geminiAcknowledgement}}},
			)
		case schema.Assistant:
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	return contents
}

// Dispatch 调用 generateContent 接口，API Key 通过查询参数传递
func (c *geminiClient) Dispatch(ctx context.Context, req *Request) (string, error) {
	endpoint, err := ResolveURL(req.Provider, req.Model, req.BaseURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", &Error{Kind: KindConfig, Provider: req.Provider, URL: endpoint, Err: err}
	}
	q := u.Query()
	q.Set("key", req.APIKey)
	u.RawQuery = q.Encode()

	payload := geminiRequest{
		Contents: geminiContents(req.Messages),
		GenerationConfig: generationConfig{
			Temperature:     Temperature,
			MaxOutputTokens: MaxOutputTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindConfig, Provider: req.Provider, URL: endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// 错误中只记录不含 key 的端点
	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyTransport(req, endpoint, stripKey(err))
	}
	defer res.Body.Close()

	if err := checkStatus(req, endpoint, res); err != nil {
		return "", err
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", classifyTransport(req, endpoint, stripKey(err))
	}

	var genResp geminiResponse
	if err := json.Unmarshal(data, &genResp); err != nil {
		return "", badResponse(req, endpoint, fmt.Errorf("unmarshal response failed: %w", err))
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", badResponse(req, endpoint, fmt.Errorf("response has no candidates"))
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// stripKey 去掉 *url.Error 中携带的完整 URL，避免 API Key 出现在日志里
func stripKey(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return &url.Error{Op: ue.Op, URL: "(redacted)", Err: ue.Err}
	}
	return err
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// openAIClient OpenAI 兼容接口（OpenAI、DeepSeek 及自定义 base_url）
type openAIClient struct {
	client *http.Client
}

var _ Dispatcher = (*openAIClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Dispatch 调用 chat/completions 接口
func (c *openAIClient) Dispatch(ctx context.Context, req *Request) (string, error) {
	url, err := ResolveURL(req.Provider, req.Model, req.BaseURL)
	if err != nil {
		return "", err
	}

	payload := chatRequest{
		Model:       req.Model,
		Temperature: Temperature,
		MaxTokens:   MaxOutputTokens,
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindConfig, Provider: req.Provider, URL: url, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyTransport(req, url, err)
	}
	defer res.Body.Close()

	if err := checkStatus(req, url, res); err != nil {
		return "", err
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", classifyTransport(req, url, err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return "", badResponse(req, url, fmt.Errorf("unmarshal response failed: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", badResponse(req, url, fmt.Errorf("response has no choices"))
	}
	return chatResp.Choices[0].Message.Content, nil
}

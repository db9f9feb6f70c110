package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Kind 调用失败的分类
type Kind int

const (
	KindConfig      Kind = iota + 1 // 请求发出前的配置错误
	KindTimeout                     // 请求超时
	KindConnection                  // 无法建立连接
	KindHTTPStatus                  // 非 2xx 响应
	KindBadResponse                 // 响应体无法解析或缺少回复字段
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindHTTPStatus:
		return "http_status"
	case KindBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// maxErrorBody 错误信息中保留的响应体长度
const maxErrorBody = 512

// Error 分类后的调用错误
type Error struct {
	Kind       Kind
	Provider   string
	URL        string
	Timeout    time.Duration
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	case KindTimeout:
		return fmt.Sprintf("%s request timed out after %s: %v", e.Provider, e.Timeout, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// classifyTransport 将 http.Client.Do 的错误归类为超时或连接失败
func classifyTransport(req *Request, url string, err error) error {
	kind := KindConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: req.Provider, URL: url, Timeout: req.Timeout, Err: err}
}

// checkStatus 非 2xx 响应转换为 KindHTTPStatus
func checkStatus(req *Request, url string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return &Error{
		Kind:       KindHTTPStatus,
		Provider:   req.Provider,
		URL:        url,
		StatusCode: res.StatusCode,
		Body:       string(body),
		Err:        fmt.Errorf("unexpected status %s", res.Status),
	}
}

func badResponse(req *Request, url string, err error) error {
	return &Error{Kind: KindBadResponse, Provider: req.Provider, URL: url, Err: err}
}

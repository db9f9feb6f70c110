package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
)

func messages(system, user string) []*schema.Message {
	var msgs []*schema.Message
	if system != "" {
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: system})
	}
	return append(msgs, &schema.Message{Role: schema.User, Content: user})
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		baseURL  string
		want     string
		wantErr  bool
	}{
		{"explicit base url wins", "openai", "", "http://localhost:8080/v1/chat", "http://localhost:8080/v1/chat", false},
		{"openai default", "openai", "", "", "https://api.openai.com/v1/chat/completions", false},
		{"deepseek default", "deepseek", "", "", "https://api.deepseek.com/v1/chat/completions", false},
		{"gemini with model", "gemini", "gemini-2.0-flash", "", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent", false},
		{"gemini default model", "gemini", "", "", "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent", false},
		{"unknown without base url", "qwen", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.provider, tt.model, tt.baseURL)
			if tt.wantErr {
				var pe *Error
				if !errors.As(err, &pe) || pe.Kind != KindConfig {
					t.Fatalf("ResolveURL() error = %v, want KindConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_Variants(t *testing.T) {
	if _, ok := New("gemini", nil).(*geminiClient); !ok {
		t.Error("gemini should use the Gemini variant")
	}
	if _, ok := New("GEMINI", nil).(*geminiClient); !ok {
		t.Error("provider name should be case-insensitive")
	}
	for _, name := range []string{"openai", "deepseek", "qwen", ""} {
		if _, ok := New(name, nil).(*openAIClient); !ok {
			t.Errorf("%q should fall back to the OpenAI-compatible variant", name)
		}
	}
}

func TestOpenAIDispatch(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"分析结果"}}]}`)
	}))
	defer srv.Close()

	reply, err := New("deepseek", srv.Client()).Dispatch(context.Background(), &Request{
		Provider: "deepseek",
		Model:    "deepseek-chat",
		APIKey:   "sk-test",
		BaseURL:  srv.URL,
		Messages: messages("你是分析师", "请分析"),
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if reply != "分析结果" {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "deepseek-chat" || got.Temperature != Temperature || got.MaxTokens != MaxOutputTokens {
		t.Errorf("unexpected payload: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" || got.Messages[1].Content != "请分析" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAIDispatch_NoSystemMessage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	if _, err := New("openai", srv.Client()).Dispatch(context.Background(), &Request{
		Provider: "openai", BaseURL: srv.URL, Messages: messages("", "only user"),
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAIDispatch_BaseURLIsFullEndpoint(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	if _, err := New("openai", srv.Client()).Dispatch(context.Background(), &Request{
		Provider: "openai", BaseURL: srv.URL + "/gateway/v2/complete", Messages: messages("", "x"),
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if path != "/gateway/v2/complete" {
		t.Errorf("request path = %q, want base url used verbatim", path)
	}
}

func TestGeminiDispatch(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "g-key" {
			t.Errorf("key query = %q", r.URL.Query().Get("key"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("gemini must not send a bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini reply"}]}}]}`)
	}))
	defer srv.Close()

	reply, err := New("gemini", srv.Client()).Dispatch(context.Background(), &Request{
		Provider: "gemini",
		Model:    "gemini-1.5-flash",
		APIKey:   "g-key",
		BaseURL:  srv.URL + "/v1beta/models/gemini-1.5-flash:generateContent",
		Messages: messages("只输出 JSON", "请分析"),
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if reply != "gemini reply" {
		t.Errorf("reply = %q", reply)
	}

	if len(got.Contents) != 3 {
		t.Fatalf("contents = %+v, want priming pair + user turn", got.Contents)
	}
	if got.Contents[0].Role != "user" || got.Contents[0].Parts[0].Text != "System instruction: 只输出 JSON" {
		t.Errorf("priming user turn = %+v", got.Contents[0])
	}
	if got.Contents[1].Role != "model" || got.Contents[1].Parts[0].Text != geminiAcknowledgement {
		t.Errorf("priming model turn = %+v", got.Contents[1])
	}
	if got.Contents[2].Role != "user" || got.Contents[2].Parts[0].Text != "请分析" {
		t.Errorf("user turn = %+v", got.Contents[2])
	}
	if got.GenerationConfig.MaxOutputTokens != MaxOutputTokens || got.GenerationConfig.Temperature != Temperature {
		t.Errorf("generationConfig = %+v", got.GenerationConfig)
	}
}

func TestGeminiContents_NoInstruction(t *testing.T) {
	contents := geminiContents(messages("", "hi"))
	if len(contents) != 1 || contents[0].Role != "user" {
		t.Errorf("contents = %+v", contents)
	}
}

func TestDispatch_HTTPStatus(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"error":"nope"}`)
		}))

		for _, name := range []string{"openai", "gemini"} {
			_, err := New(name, srv.Client()).Dispatch(context.Background(), &Request{
				Provider: name, APIKey: "k", BaseURL: srv.URL, Messages: messages("", "x"),
			})
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("%s/%d: error = %v, want *Error", name, code, err)
			}
			if pe.Kind != KindHTTPStatus || pe.StatusCode != code {
				t.Errorf("%s/%d: got kind=%v status=%d", name, code, pe.Kind, pe.StatusCode)
			}
			if !strings.Contains(pe.Body, "nope") {
				t.Errorf("%s/%d: body = %q", name, code, pe.Body)
			}
		}
		srv.Close()
	}
}

func TestDispatch_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	_, err := New("openai", srv.Client()).Dispatch(context.Background(), &Request{
		Provider: "openai", BaseURL: srv.URL, Messages: messages("", "x"), Timeout: 50 * time.Millisecond,
	})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindTimeout {
		t.Fatalf("error = %v, want KindTimeout", err)
	}
	if pe.Timeout != 50*time.Millisecond {
		t.Errorf("Timeout = %v", pe.Timeout)
	}
}

func TestDispatch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := New("gemini", nil).Dispatch(context.Background(), &Request{
		Provider: "gemini", APIKey: "secret-key", BaseURL: addr, Messages: messages("", "x"), Timeout: time.Second,
	})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindConnection {
		t.Fatalf("error = %v, want KindConnection", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestDispatch_BadResponse(t *testing.T) {
	tests := []struct {
		provider string
		body     string
	}{
		{"openai", `not json`},
		{"openai", `{"choices":[]}`},
		{"gemini", `{"candidates":[]}`},
		{"gemini", `{"candidates":[{"content":{"parts":[]}}]}`},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, tt.body)
		}))
		_, err := New(tt.provider, srv.Client()).Dispatch(context.Background(), &Request{
			Provider: tt.provider, BaseURL: srv.URL, Messages: messages("", "x"),
		})
		var pe *Error
		if !errors.As(err, &pe) || pe.Kind != KindBadResponse {
			t.Errorf("%s %s: error = %v, want KindBadResponse", tt.provider, tt.body, err)
		}
		srv.Close()
	}
}

func TestDispatch_UnknownProviderWithoutBaseURL(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("unreachable")
	})}

	_, err := New("qwen", client).Dispatch(context.Background(), &Request{Provider: "qwen", Messages: messages("", "x")})
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindConfig {
		t.Fatalf("error = %v, want KindConfig", err)
	}
	if calls != 0 {
		t.Errorf("transport called %d times before config check", calls)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

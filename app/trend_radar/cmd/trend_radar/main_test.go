package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/analyzer"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
)

const promptFile = `[system]
你是新闻分析师
[user]
{report_type} {news_content}`

const statsFile = `{
  "stats": [{"word": "AI", "titles": [{"title": "大模型发布", "source_name": "微博", "ranks": [1, 3], "count": 2}]}],
  "report_type": "实时增量"
}`

func setup(t *testing.T, baseURL string) (dir string) {
	t.Helper()
	dir = t.TempDir()
	cfg := "ai:\n  api_key: sk-test\n  base_url: " + baseURL + "\n  timeout: 5\nreport:\n  platforms: [微博]\n"
	files := map[string]string{
		"config.yaml":            cfg,
		"ai_analysis_prompt.txt": promptFile,
		"stats.json":             statsFile,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestAnalyzeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"summary\":\"AI 持续升温\",\"conclusion\":\"持续跟踪\"}"}}]}`)
	}))
	defer srv.Close()

	dir := setup(t, srv.URL)
	out := filepath.Join(dir, "out.md")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"analyze",
		"--config", filepath.Join(dir, "config.yaml"),
		"--input", filepath.Join(dir, "stats.json"),
		"--channel", "dingtalk",
		"--out", out,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "### ✨ AI 热点分析") || !strings.Contains(got, "#### 趋势概述\nAI 持续升温") {
		t.Errorf("output = %q", got)
	}
}

func TestAnalyzeCommand_FailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	dir := setup(t, srv.URL)
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"analyze", "--config", filepath.Join(dir, "config.yaml"), "--input", filepath.Join(dir, "stats.json")})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "请求频率过高") {
		t.Errorf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "⚠️ AI 分析失败") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestTemplateCommand(t *testing.T) {
	dir := setup(t, "http://localhost")
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"template", "--config", filepath.Join(dir, "config.yaml")})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "[system]\n你是新闻分析师\n\n[user]\n{report_type} {news_content}\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestApplyReportDefaults(t *testing.T) {
	rc := config.ReportConfig{Mode: "daily", Type: "当日汇总", Platforms: []string{"微博"}}

	in := analyzer.Input{ReportType: "实时增量"}
	applyReportDefaults(&in, rc, &analyzeOptions{mode: "incremental"})
	if in.ReportMode != "incremental" || in.ReportType != "实时增量" || len(in.Platforms) != 1 {
		t.Errorf("input = %+v", in)
	}

	in = analyzer.Input{}
	applyReportDefaults(&in, rc, &analyzeOptions{})
	if in.ReportMode != "daily" || in.ReportType != "当日汇总" {
		t.Errorf("input = %+v", in)
	}
}

func TestReadInput(t *testing.T) {
	in, err := readInput("-", strings.NewReader(statsFile))
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if len(in.Stats) != 1 || in.Stats[0].Titles[0].SourceName != "微博" {
		t.Errorf("input = %+v", in)
	}
	if _, err := readInput("", nil); err == nil {
		t.Error("missing path should fail")
	}
}

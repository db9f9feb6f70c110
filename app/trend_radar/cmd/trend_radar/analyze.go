package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/analyzer"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/feedsource"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/logger"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/prompt"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/render"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/storage"
)

type analyzeOptions struct {
	input      string
	rss        bool
	channel    string
	mode       string
	reportType string
	save       bool
	out        string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "对热榜/RSS 统计数据执行 AI 分析",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "统计数据 JSON 文件，- 表示标准输入")
	cmd.Flags().BoolVar(&opts.rss, "rss", false, "抓取 report.rss_links 中的 RSS 源")
	cmd.Flags().StringVarP(&opts.channel, "channel", "c", "markdown", "输出格式: feishu/dingtalk/wework/telegram/email/ntfy/bark/slack")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "报告模式，覆盖 report.mode")
	cmd.Flags().StringVar(&opts.reportType, "report-type", "", "报告类型，覆盖 report.type")
	cmd.Flags().BoolVar(&opts.save, "save", false, "将结果保存到数据库")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "输出文件，默认标准输出")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置文件: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}
	return cfg, nil
}

func runAnalyze(ctx context.Context, stdout io.Writer, opts *analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in, err := readInput(opts.input, os.Stdin)
	if err != nil {
		return err
	}
	if opts.rss && len(cfg.Report.RSSLinks) > 0 {
		groups, err := feedsource.Fetch(ctx, cfg.Report.RSSLinks)
		if err != nil {
			logger.Log.Warnf("RSS 抓取失败: %v", err)
		}
		in.RSSStats = append(in.RSSStats, groups...)
	}
	applyReportDefaults(&in, cfg.Report, opts)

	a := analyzer.New(&cfg.AI, analyzer.Options{Limiter: analyzer.NewLimiter(cfg.Concurrency)})
	result := a.Analyze(ctx, in)
	logger.Log.Infof("分析完成: status=%s 条目=%d/%d", result.Status, result.AnalyzedNews, result.TotalNews)

	if opts.save {
		saveResult(ctx, cfg, in, result)
	}

	output := render.ForChannel(opts.channel)(result)
	if err := writeOutput(opts.out, stdout, output); err != nil {
		return err
	}

	if result.Status == model.StatusFailed {
		return fmt.Errorf("AI 分析失败: %s", result.Error)
	}
	return nil
}

func readInput(path string, stdin io.Reader) (analyzer.Input, error) {
	var in analyzer.Input
	if path == "" {
		return in, fmt.Errorf("必须通过 --input 指定统计数据文件")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return in, fmt.Errorf("读取输入失败: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("解析输入失败: %w", err)
	}
	return in, nil
}

// applyReportDefaults 命令行参数优先，其次是输入文件，最后是配置文件
func applyReportDefaults(in *analyzer.Input, rc config.ReportConfig, opts *analyzeOptions) {
	switch {
	case opts.mode != "":
		in.ReportMode = opts.mode
	case in.ReportMode == "":
		in.ReportMode = rc.Mode
	}
	switch {
	case opts.reportType != "":
		in.ReportType = opts.reportType
	case in.ReportType == "":
		in.ReportType = rc.Type
	}
	if len(in.Platforms) == 0 {
		in.Platforms = rc.Platforms
	}
}

func saveResult(ctx context.Context, cfg *config.Config, in analyzer.Input, result *model.AnalysisResult) {
	if cfg.DB.Host == "" {
		logger.Log.Warn("未配置数据库信息，跳过保存")
		return
	}
	store, err := storage.NewStorage(cfg.DB)
	if err != nil {
		logger.Log.Errorf("无法连接数据库: %v", err)
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	id, err := store.SaveAnalysis(ctx, &storage.Record{
		ReportMode: in.ReportMode,
		ReportType: in.ReportType,
		Provider:   cfg.AI.Provider,
		Model:      cfg.AI.Model,
		Result:     result,
	})
	if err != nil {
		logger.Log.Errorf("保存分析结果失败: %v", err)
		return
	}
	logger.Log.Infof("分析结果已保存: %s", id)
}

func writeOutput(path string, stdout io.Writer, content string) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		return fmt.Errorf("写入输出失败: %w", err)
	}
	return nil
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "显示解析后的提示词模板",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tpl := prompt.Load(cfg.AI.PromptFile)
			if tpl.Empty() {
				return fmt.Errorf("提示词模板为空: %s", cfg.AI.PromptFile)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[system]\n%s\n\n[user]\n%s\n", tpl.System, tpl.User)
			return nil
		},
	}
}

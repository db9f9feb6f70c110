package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trend_radar",
		Short: "AI 热点分析",
		Long: `trend_radar 将热榜与 RSS 统计数据交给大模型，生成结构化的热点分析报告。

示例:
  # 分析一份统计数据并输出飞书格式
  trend_radar analyze --input output/stats.json --channel feishu

  # 同时抓取配置中的 RSS 源，并保存到数据库
  trend_radar analyze --input output/stats.json --rss --save

  # 查看当前使用的提示词模板
  trend_radar template`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "配置文件路径")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newTemplateCmd())
	return rootCmd
}

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

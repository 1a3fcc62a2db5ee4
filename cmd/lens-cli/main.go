package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mingze-w/DevLens/internal/bootstrap"
	"github.com/mingze-w/DevLens/internal/pkg/buildinfo"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lens",
		Short: "Lens - 开发者行为指标与技能趋势引擎",
		Long:  `Lens 把脱敏后的开发者交互事件折叠为每日行为指标，并从历史指标推断提示词成熟度、调试能力与 AI 协作平衡的长期趋势。`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
			if core.DB.SafeMode {
				fmt.Println("⚠️  数据库处于安全模式，仅支持诊断操作")
				fmt.Printf("   迁移错误: %s\n", core.DB.MigrationError)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(assessmentCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd 执行某天的日批处理
func runCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "执行指定日期的日批处理（默认昨天）",
		Run: func(cmd *cobra.Command, args []string) {
			targetDate := date
			if targetDate == "" {
				targetDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
			}

			result, err := core.Services.Pipeline.RunDay(context.Background(), targetDate)
			if err != nil {
				fmt.Printf("❌ 批处理失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("✅ 批处理完成 [%s]\n", result.RunID)
			fmt.Printf("   日期: %s  开发者: %d  成功: %d  失败: %d\n",
				result.Date, result.Total, result.Processed, result.Failed)
			printReport(result.Report.Issues, result.Report.Warnings)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "目标日期 (YYYY-MM-DD)")
	return cmd
}

// metricsCmd 查看某开发者最近的每日指标
func metricsCmd() *cobra.Command {
	var developerID string
	var days int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "查看开发者最近的每日行为指标",
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := core.Repos.Metrics.GetRecent(context.Background(), developerID, days)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}
			if len(rows) == 0 {
				fmt.Println("暂无数据")
				return
			}

			fmt.Printf("📊 %s 最近 %d 天指标\n\n", developerID, len(rows))
			for _, m := range rows {
				fmt.Printf("  %s  协助=%s  效率=%.2f  润色=%.2f  依赖=%.2f  调试=%s  解决=%.1f分钟  会话=%d  活跃=%.0f分钟\n",
					m.Date, m.AIAssistanceLevel, m.PromptEfficiencyScore, m.HumanRefinementRatio,
					m.AIDependencyRatio, m.DebuggingStyle, m.ErrorResolutionTime, m.SessionCount, m.ActiveTime)
			}
		},
	}

	cmd.Flags().StringVar(&developerID, "dev", "", "开发者 ID")
	cmd.Flags().IntVar(&days, "days", 7, "天数")
	_ = cmd.MarkFlagRequired("dev")
	return cmd
}

// assessmentCmd 查看某开发者某天的技能评估
func assessmentCmd() *cobra.Command {
	var developerID string
	var date string

	cmd := &cobra.Command{
		Use:   "assessment",
		Short: "查看开发者的技能评估",
		Run: func(cmd *cobra.Command, args []string) {
			targetDate := date
			if targetDate == "" {
				targetDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
			}

			a, err := core.Services.Pipeline.AssessmentFor(context.Background(), developerID, targetDate)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}
			if a == nil {
				fmt.Println("暂无数据（当天指标尚未生成）")
				return
			}

			fmt.Printf("🧭 %s 技能评估 [%s]\n\n", a.DeveloperID, a.AssessmentDate)
			fmt.Printf("  提示词成熟度  %5.1f 分  趋势=%s\n    %s\n", a.PromptScore, a.PromptTrend, a.PromptExplanation)
			fmt.Printf("  调试能力      %5.1f 分  风格=%s  趋势=%s\n    %s\n", a.DebugScore, a.DebugStyle, a.DebugTrend, a.DebugExplanation)
			fmt.Printf("  AI 协作平衡   %5.1f 分  依赖=%s  润色=%d  趋势=%s\n    %s\n",
				a.CollabScore, a.DependencyLevel, a.RefinementSkill, a.CollabTrend, a.CollabExplanation)
		},
	}

	cmd.Flags().StringVar(&developerID, "dev", "", "开发者 ID")
	cmd.Flags().StringVar(&date, "date", "", "评估日期 (YYYY-MM-DD)，默认昨天")
	_ = cmd.MarkFlagRequired("dev")
	return cmd
}

// reportCmd 查看某天最新的运行报告
func reportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "查看指定日期最新的运行报告",
		Run: func(cmd *cobra.Command, args []string) {
			targetDate := date
			if targetDate == "" {
				targetDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
			}

			r, err := core.Repos.Report.GetLatestByDate(context.Background(), targetDate)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}
			if r == nil {
				fmt.Println("暂无运行报告")
				return
			}

			fmt.Printf("📋 运行报告 [%s]\n", r.RunID)
			fmt.Printf("   日期: %s  开发者: %d  成功: %d  失败: %d  耗时: %dms\n",
				r.Date, r.DevelopersTotal, r.DevelopersProcessed, r.DevelopersFailed, r.DurationMs)
			printReport(r.Issues, r.Warnings)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "目标日期 (YYYY-MM-DD)，默认昨天")
	return cmd
}

// cleanupCmd 清理过期原始事件
func cleanupCmd() *cobra.Command {
	var retainDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "删除超过留存期的原始事件",
		Run: func(cmd *cobra.Command, args []string) {
			days := retainDays
			if days <= 0 {
				days = core.Cfg.Engine.RetainDays
			}

			deleted, err := core.Repos.Event.DeleteOldEvents(context.Background(), days)
			if err != nil {
				fmt.Printf("❌ 清理失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ 已删除 %d 条过期事件（保留最近 %d 天）\n", deleted, days)
		},
	}

	cmd.Flags().IntVar(&retainDays, "retain-days", 0, "保留天数，默认取配置 engine.retain_days")
	return cmd
}

// versionCmd 打印版本
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lens %s (%s)\n", buildinfo.Version, buildinfo.Commit)
		},
	}
}

// printReport 打印 issues/warnings 列表
func printReport(issues, warnings []string) {
	for _, issue := range issues {
		fmt.Printf("   ⛔ %s\n", issue)
	}
	for _, warning := range warnings {
		fmt.Printf("   ⚠️  %s\n", warning)
	}
}

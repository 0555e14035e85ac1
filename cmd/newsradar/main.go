// Newsradar ingests financial news from multiple Chinese sources,
// deduplicates and classifies the items, and archives grouped results for
// downstream reporting.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caijingx/newsradar/internal/radar/classifier"
	"github.com/caijingx/newsradar/internal/radar/config"
	"github.com/caijingx/newsradar/internal/radar/dedupe"
	"github.com/caijingx/newsradar/internal/radar/grouper"
	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/internal/radar/pipeline"
	"github.com/caijingx/newsradar/internal/radar/scheduler"
	"github.com/caijingx/newsradar/internal/radar/sources"
	"github.com/caijingx/newsradar/internal/radar/store"
	"github.com/caijingx/newsradar/internal/radar/stockcode"
	"github.com/caijingx/newsradar/pkg/scraper"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "newsradar",
		Short: "财经新闻聚合与分类管道",
		Long:  "Newsradar 抓取多家财经新闻源，去重并按行业/政策/重要性分类，归档分组结果。",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "newsradar.yaml", "配置文件路径")

	rootCmd.AddCommand(runCmd(&configPath))
	rootCmd.AddCommand(fetchCmd(&configPath))
	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(exportCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "抓取、分类并归档一轮新闻",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runOnce(cmd.Context(), cfg)
		},
	}
}

func fetchCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "只抓取并去重，输出原始新闻 JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.PipelineTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.PipelineTimeout.Std())
				defer cancel()
			}

			raw, fetchErrs := registry.FetchAll(ctx, cfg.RecencyWindow())
			items := dedupe.ByURL(raw)
			for _, fe := range fetchErrs {
				slog.Warn("fetch error", "source", fe.Source, "url", fe.URL, "error", fe.Err)
			}
			slog.Info("fetch done", "fetched", len(raw), "unique", len(items), "errors", len(fetchErrs))

			return writeJSON(out, items)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件（默认 stdout）")
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "按固定间隔持续运行管道",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New()
			sched.Add(scheduler.Job{
				Name: "pipeline",
				Fn: func(ctx context.Context) error {
					return runOnce(ctx, cfg)
				},
			})
			sched.Start(ctx, cfg.FetchInterval.Std())
			return nil
		},
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var out string
	var opts grouper.FilterOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出最近一轮的分类结果 JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer db.Close()

			items, err := db.LatestRunItems(cmd.Context())
			if err != nil {
				return fmt.Errorf("load latest run: %w", err)
			}
			items = grouper.Filter(items, opts)
			return writeJSON(out, items)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件（默认 stdout）")
	cmd.Flags().BoolVar(&opts.IndustryOnly, "industry-only", false, "只导出行业相关新闻")
	cmd.Flags().BoolVar(&opts.PolicyOnly, "policy-only", false, "只导出政策相关新闻")
	cmd.Flags().BoolVar(&opts.ImportantOnly, "important-only", false, "只导出重要新闻")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newsradar %s\n", version)
		},
	}
}

// runOnce executes one full pipeline run and archives the result.
func runOnce(ctx context.Context, cfg config.Config) error {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	mapping, err := stockcode.LoadMapping(cfg.StockMappingPath)
	if err != nil {
		return fmt.Errorf("load stock mapping: %w", err)
	}
	lookupClient := scraper.NewClient(scraper.Options{
		Timeout: cfg.HTTPTimeout.Std(),
		Retries: 1, // suggestion lookups are best effort, no retry
	})
	resolver := stockcode.NewResolver(mapping, stockcode.NewSinaSuggest(lookupClient))

	cls, err := classifier.New(resolver, cfg.KeywordTopK)
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	p := pipeline.New(registry, cls, cfg.RecencyWindow(), cfg.PipelineTimeout.Std())
	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, result)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	slog.Info("run archived", "run_id", runID, "items", len(result.Items))

	printSummary(result)
	return nil
}

// buildRegistry registers the enabled source adapters in stable order.
func buildRegistry(cfg config.Config) (*sources.Registry, error) {
	client := scraper.NewClient(scraper.Options{
		Timeout: cfg.HTTPTimeout.Std(),
		Retries: cfg.FetchRetries,
	})

	registry := sources.NewRegistry(cfg.FetchWorkers)
	for _, id := range cfg.EnabledSources() {
		switch id {
		case "sina":
			registry.Register(sources.NewSina(client, cfg.DetailConcurrency))
		case "eastmoney":
			registry.Register(sources.NewEastmoney(client, cfg.DetailConcurrency))
		default:
			return nil, fmt.Errorf("unknown source %q in config", id)
		}
	}
	return registry, nil
}

func printSummary(result *pipeline.Result) {
	fmt.Printf("抓取 %d 条，去重后 %d 条，分类 %d 条（跳过 %d，抓取错误 %d），耗时 %s\n",
		result.Fetched, result.Deduped, len(result.Items), result.Skipped,
		len(result.FetchErrors), result.Duration.Round(10*time.Millisecond))

	types := make([]string, 0, len(result.ByType))
	for t := range result.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s: %d\n", t, len(result.ByType[model.NewsType(t)]))
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("written", "path", path)
	return nil
}

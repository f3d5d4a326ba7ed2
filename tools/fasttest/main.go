package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agrichain/common/model"
	"agrichain/internal/business"
	"agrichain/internal/domains"
	"agrichain/internal/domains/common"
	"agrichain/pkg/config"
	"agrichain/pkg/lmstfy"
	"agrichain/pkg/lmstfyx"
	"agrichain/pkg/logger"
)

var (
	casesPath  string
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "fasttest",
		Short:        "FastTest - 推荐计算快速测试工具",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&casesPath, "cases", "./tools/fasttest/testdata/cases.yaml", "测试用例路径（YAML/JSON）")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "日志级别")

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "将用例作为任务投递到 lmstfy，由运行中的 worker 处理",
		RunE:  runPublish,
	}
	publishCmd.Flags().StringVar(&configPath, "config", "./config/worker.yaml", "worker 配置文件路径")

	root.AddCommand(
		&cobra.Command{
			Use:   "offline",
			Short: "直接调用合成器校验用例（不依赖任何外部服务）",
			RunE:  runOfflineCmd,
		},
		&cobra.Command{
			Use:   "replay",
			Short: "通过 worker 处理链路（解析、路由、校验、计算、回调）在进程内回放用例",
			RunE:  runReplayCmd,
		},
		publishCmd,
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runner 执行单个用例
type runner func(ctx context.Context, i int, tc TestCase) error

func runOfflineCmd(cmd *cobra.Command, args []string) error {
	synth := business.NewSynthesizer()
	return runCases(cmd.Context(), func(ctx context.Context, i int, tc TestCase) error {
		rec, err := runOffline(ctx, synth, tc)
		if err == nil {
			fmt.Printf("  status=%s best=%s net=%.2f/qtl forecast=%.2f/qtl\n",
				rec.Status, rec.BestMarket, rec.NetRealizationPerQuintal, rec.ForecastPerQuintal48h)
		}
		return tc.Expect.check(rec, err)
	})
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	log, err := logger.NewZapLogger(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	pub := &capturePublisher{}
	proc := domains.GetProcess(log, &common.Dependencies{
		Recommendation: business.NewRecommendationService(pub, "fasttest_callback"),
		Logger:         log,
	})

	return runCases(cmd.Context(), func(ctx context.Context, i int, tc TestCase) error {
		return replay(ctx, proc, pub, i, tc)
	})
}

// replay 构造标准化 Job 并调用 worker 处理函数，校验回调内容
func replay(ctx context.Context, proc lmstfyx.Proc, pub *capturePublisher, i int, tc TestCase) error {
	advisoryID := fmt.Sprintf("fasttest-%d", i+1)
	data, err := tc.toJob(advisoryID, uuid.New().String())
	if err != nil {
		return err
	}

	pub.last = nil
	resp := proc(ctx, &client.Job{ID: advisoryID, Queue: "fasttest", Data: data})
	fmt.Printf("  job action=%s\n", resp.Action)

	if pub.last == nil {
		return fmt.Errorf("no callback published (action=%s)", resp.Action)
	}

	var cb model.RecommendationCallback
	if err := json.Unmarshal(pub.last, &cb); err != nil {
		return fmt.Errorf("decode callback: %w", err)
	}
	if cb.AdvisoryID != advisoryID {
		return fmt.Errorf("callback advisory_id: want %s, got %s", advisoryID, cb.AdvisoryID)
	}

	if cb.Status == model.CallbackStatusFailed {
		if tc.Expect.Error == "" {
			return fmt.Errorf("unexpected failure: %s", cb.Error)
		}
		if resp.Action != lmstfyx.JobRespStatusBury {
			return fmt.Errorf("failed job should be buried, got %s", resp.Action)
		}
		return nil
	}
	return tc.Expect.check(cb.Recommendation, nil)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cli, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return err
	}

	queue := cfg.Lmstfy.Queue
	if len(cfg.Workers) > 0 {
		queue = cfg.Workers[0].QueueName
	}

	return runCases(cmd.Context(), func(ctx context.Context, i int, tc TestCase) error {
		advisoryID := fmt.Sprintf("fasttest-%d-%d", time.Now().Unix(), i+1)
		data, err := tc.toJob(advisoryID, uuid.New().String())
		if err != nil {
			return err
		}
		jobID, err := cli.PublishJob(queue, data, 0, 0)
		if err != nil {
			return err
		}
		fmt.Printf("  published job=%s advisory_id=%s queue=%s\n", jobID, advisoryID, queue)
		return nil
	})
}

// runCases 依次执行用例并输出汇总，有失败时返回错误
func runCases(ctx context.Context, run runner) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cases, err := loadTestCases(casesPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d test cases from %s\n", len(cases), casesPath)

	failed := 0
	for i, tc := range cases {
		fmt.Printf("\n[Test %d/%d] %s (crop=%s)\n", i+1, len(cases), tc.Name, tc.Crop)

		start := time.Now()
		if err := run(ctx, i, tc); err != nil {
			fmt.Printf("  FAILED: %v (%v)\n", err, time.Since(start))
			failed++
			continue
		}
		fmt.Printf("  PASSED (%v)\n", time.Since(start))
	}

	fmt.Printf("\nTotal: %d, Passed: %d, Failed: %d\n", len(cases), len(cases)-failed, failed)
	if failed > 0 {
		return errors.New("some test cases failed")
	}
	return nil
}

// capturePublisher 记录最近一次回调
type capturePublisher struct {
	last []byte
}

func (p *capturePublisher) Publish(queue string, data []byte, ttl, delay uint32) error {
	p.last = data
	return nil
}

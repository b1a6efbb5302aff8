package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Asdzzyandzzy/AStock-Analysis/analysis"
	"github.com/Asdzzyandzzy/AStock-Analysis/config"
	"github.com/Asdzzyandzzy/AStock-Analysis/gateway"
	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/alert"
	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/logger"
	"github.com/Asdzzyandzzy/AStock-Analysis/internal/engine"
	"github.com/Asdzzyandzzy/AStock-Analysis/internal/server"
	"github.com/Asdzzyandzzy/AStock-Analysis/market"
	"github.com/Asdzzyandzzy/AStock-Analysis/metrics"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	symbol := flag.String("symbol", "", "证券代码（如 sh600941），覆盖配置")
	threshold := flag.Float64("threshold", -1, "大单阈值（元），覆盖配置")
	serverAddr := flag.String("serverAddr", "", "看板服务监听地址，覆盖配置")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus 监听地址，覆盖配置；留空用配置值")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}
	if *threshold >= 0 {
		cfg.LargeTrade.Threshold = *threshold
	}
	if *serverAddr != "" {
		cfg.Server.Addr = *serverAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("配置校验失败: %v", err)
	}

	sessionID := uuid.NewString()
	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer appLogger.Close()
	appLogger = appLogger.WithFields(map[string]interface{}{
		"session": sessionID,
		"symbol":  cfg.Symbol,
	})

	if cfg.Metrics.Addr != "" {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
	}

	alertMgr := alert.NewManager(
		[]alert.Channel{alert.NewLogChannel("log", os.Stdout)},
		time.Duration(cfg.Alert.ThrottleSeconds)*time.Second,
	)

	client := &gateway.EastmoneyClient{
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    gateway.NewTokenBucketLimiter(cfg.Poll.FetchRate, cfg.Poll.FetchBurst),
	}

	pub := market.NewPublisher()
	acc := market.NewAccumulator(func(event string, fields map[string]interface{}) {
		appLogger.LogTick(event, fields)
	})
	svc := market.NewService(pub, cfg.Poll.MaxLiveRows)
	impact := analysis.NewImpactAnalyzer(svc)
	partition := market.Partition(cfg.Market.Bands).Normalize()
	if len(partition) == 0 {
		partition = market.DefaultPartition()
	}

	// 看板推送订阅要在引擎启动前建好，避免错过首轮广播
	batchSub := pub.SubscribeBatch()
	largeSub := pub.SubscribeLarge()

	eng, err := engine.New(engine.Config{
		Symbol:         cfg.Symbol,
		Interval:       time.Duration(cfg.Poll.IntervalMs) * time.Millisecond,
		FetchTimeout:   time.Duration(cfg.Poll.FetchTimeoutMs) * time.Millisecond,
		LotSize:        cfg.Market.LotSize,
		Threshold:      cfg.LargeTrade.Threshold,
		AlertEnabled:   cfg.Alert.Enabled,
		AlertThreshold: cfg.Alert.Threshold,
	}, engine.Components{
		Client:      client,
		Accumulator: acc,
		Service:     svc,
		Publisher:   pub,
		Impact:      impact,
		AlertMgr:    alertMgr,
		Logger:      appLogger,
	})
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}

	srv := server.New(server.Config{
		Addr:      cfg.Server.Addr,
		SessionID: sessionID,
		Symbol:    cfg.Symbol,
	}, eng, acc, svc, impact, partition, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("启动引擎失败: %v", err)
	}
	go srv.Broadcaster().Run(ctx, batchSub, largeSub)
	if cfg.Server.Addr != "" {
		go func() {
			if err := srv.Start(ctx); err != nil {
				appLogger.Error("dashboard server exited", zap.Error(err))
			}
		}()
	}

	// 配置热更新：中途调阈值只影响后续合并
	if watcher, err := config.NewWatcher(*cfgPath, 2*time.Second); err == nil {
		go func() {
			_ = watcher.Start(ctx, func(newCfg config.AppConfig) {
				eng.ApplyParameters(newCfg.LargeTrade.Threshold, newCfg.Alert.Threshold)
			})
		}()
	} else {
		appLogger.Warn("config watcher disabled", zap.Error(err))
	}

	// 跟踪记录兜底清理
	go func() {
		cleanTicker := time.NewTicker(30 * time.Minute)
		defer cleanTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanTicker.C:
				impact.CleanOldRecords(6 * time.Hour)
			}
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	appLogger.Info("monitor session started",
		zap.String("session", sessionID),
		zap.String("symbol", cfg.Symbol),
		zap.Float64("threshold", cfg.LargeTrade.Threshold))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	appLogger.Info("shutting down")
	cancel()
	if err := eng.Stop(); err != nil {
		appLogger.Error("engine stop", zap.Error(err))
	}
}

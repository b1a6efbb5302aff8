// Package server 暴露监控会话的只读视图：实时窗口、大单池、分组统计、
// CSV 导出，以及向看板推送的 websocket 通道。所有响应都是内部状态的
// 快照拷贝，绝不泄露可变引用。
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Asdzzyandzzy/AStock-Analysis/analysis"
	"github.com/Asdzzyandzzy/AStock-Analysis/export"
	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/logger"
	"github.com/Asdzzyandzzy/AStock-Analysis/internal/engine"
	"github.com/Asdzzyandzzy/AStock-Analysis/market"

	"go.uber.org/zap"
)

// Config 服务配置。
type Config struct {
	Addr      string
	SessionID string
	Symbol    string
}

// Server 看板后端。
type Server struct {
	cfg       Config
	engine    *engine.PollingEngine
	acc       *market.Accumulator
	service   *market.Service
	impact    *analysis.ImpactAnalyzer
	partition market.Partition
	logger    *logger.Logger
	broadcast *Broadcaster

	srv *http.Server
}

// New 创建看板服务。
func New(cfg Config, eng *engine.PollingEngine, acc *market.Accumulator, svc *market.Service, impact *analysis.ImpactAnalyzer, partition market.Partition, log *logger.Logger) *Server {
	return &Server{
		cfg:       cfg,
		engine:    eng,
		acc:       acc,
		service:   svc,
		impact:    impact,
		partition: partition,
		logger:    log,
		broadcast: NewBroadcaster(log),
	}
}

// Broadcaster 广播器（见 ws.go）。
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcast
}

// Start 启动 HTTP 服务并阻塞到 ctx 取消。
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/live", s.handleLive)
	mux.HandleFunc("/api/large", s.handleLarge)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/impact", s.handleImpact)
	mux.HandleFunc("/api/export/large.csv", s.handleExportLarge)
	mux.HandleFunc("/api/export/summary.csv", s.handleExportSummary)
	mux.HandleFunc("/ws", s.broadcast.Handler())

	s.srv = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: mux,
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard server starting", zap.String("addr", s.cfg.Addr))
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type sessionResp struct {
	SessionID string               `json:"session_id"`
	Symbol    string               `json:"symbol"`
	State     string               `json:"state"`
	Threshold float64              `json:"threshold"`
	LargeSize int                  `json:"large_size"`
	LargeSum  float64              `json:"large_amount_sum"`
	LastTick  string               `json:"last_tick_time"`
	Stats     engine.StatsSnapshot `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, sessionResp{
		SessionID: s.cfg.SessionID,
		Symbol:    s.cfg.Symbol,
		State:     s.engine.State().String(),
		Threshold: s.engine.Threshold(),
		LargeSize: s.acc.Size(),
		LargeSum:  s.acc.TotalAmount(),
		LastTick:  s.service.LastTickTime(),
		Stats:     s.engine.Stats(),
	})
}

// handleLive 实时窗口；可选 min/max 金额过滤（纯展示，每次全量重算）。
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ticks := s.service.LiveWindow()
	min, max, err := rangeParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if min > 0 || max > 0 {
		ticks = market.FilterAmountRange(ticks, min, max)
	}
	// 空结果就是空数组，不是错误
	writeJSON(w, ticks)
}

func (s *Server) handleLarge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.acc.Snapshot())
}

// handleSummary 分组统计；group=side|band|band_side，scope=live|large。
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ticks, ok := s.scopeTicks(r.URL.Query().Get("scope"))
	if !ok {
		http.Error(w, "scope must be live or large", http.StatusBadRequest)
		return
	}
	switch r.URL.Query().Get("group") {
	case "", "side":
		writeJSON(w, export.SideSummaryRows(market.SummarizeBySide(ticks)))
	case "band":
		writeJSON(w, market.SummarizeByBand(ticks, s.partition))
	case "band_side":
		writeJSON(w, market.PivotBandSide(ticks, s.partition))
	default:
		http.Error(w, "group must be side, band or band_side", http.StatusBadRequest)
	}
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	if s.impact == nil {
		writeJSON(w, analysis.Stats{})
		return
	}
	writeJSON(w, s.impact.Stats())
}

func (s *Server) handleExportLarge(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_big_trades.csv"`, s.cfg.Symbol))
	if err := export.WriteTicks(w, s.acc.Snapshot()); err != nil {
		s.logger.LogError(err, map[string]interface{}{"handler": "export_large"})
	}
}

func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	rows := export.SideSummaryRows(market.SummarizeBySide(s.acc.Snapshot()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_big_trades_summary.csv"`, s.cfg.Symbol))
	if err := export.WriteSummary(w, rows); err != nil {
		s.logger.LogError(err, map[string]interface{}{"handler": "export_summary"})
	}
}

func (s *Server) scopeTicks(scope string) ([]market.Tick, bool) {
	switch scope {
	case "", "large":
		return s.acc.Snapshot(), true
	case "live":
		return s.service.LiveWindow(), true
	}
	return nil, false
}

func rangeParams(r *http.Request) (min, max float64, err error) {
	q := r.URL.Query()
	if v := q.Get("min"); v != "" {
		if _, err = fmt.Sscanf(v, "%f", &min); err != nil {
			return 0, 0, fmt.Errorf("bad min: %v", v)
		}
	}
	if v := q.Get("max"); v != "" {
		if _, err = fmt.Sscanf(v, "%f", &max); err != nil {
			return 0, 0, fmt.Errorf("bad max: %v", v)
		}
	}
	return min, max, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

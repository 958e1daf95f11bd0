package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"callwire/internal/alerts"
	"callwire/internal/config"
	"callwire/internal/engine"
	"callwire/internal/metrics"
	"callwire/internal/model"
	"callwire/internal/rules"
	"callwire/internal/storage"
)

type EngineControl interface {
	Reset()
	UpdateConfig(cfg *config.Config)
	ActiveCalls() int
	CallState(callID string) (engine.CallState, bool)
}

type Server struct {
	cfg     *config.Manager
	stats   *metrics.Store
	alerts  *alerts.Store
	store   storage.Store
	lib     *rules.Library
	engine  EngineControl
	logger  *slog.Logger
	version string
}

type statusResponse struct {
	Status      string       `json:"status"`
	Time        string       `json:"time"`
	Version     string       `json:"version"`
	ConfigPath  string       `json:"config_path"`
	ActiveCalls int          `json:"active_calls"`
	Rules       rulesStatus  `json:"rules"`
	Ingest      ingestStatus `json:"ingest"`
	API         apiStatus    `json:"api"`
	Storage     bool         `json:"storage"`
}

type rulesStatus struct {
	Version         string `json:"version"`
	Total           int    `json:"total"`
	Enabled         int    `json:"enabled"`
	SkippedPatterns int    `json:"skipped_patterns"`
}

type ingestStatus struct {
	REST      bool `json:"rest"`
	TCPStream bool `json:"tcp_stream"`
	FileTail  bool `json:"file_tail"`
	Kafka     bool `json:"kafka"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

type ruleSummary struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Category   model.Category `json:"category"`
	Severity   model.Severity `json:"severity"`
	Enabled    bool           `json:"enabled"`
	Optional   bool           `json:"optional"`
	TextDriven bool           `json:"text_driven"`
}

func Start(ctx context.Context, cfg *config.Manager, statsStore *metrics.Store, alertsStore *alerts.Store, store storage.Store, lib *rules.Library, engine EngineControl, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:     cfg,
		stats:   statsStore,
		alerts:  alertsStore,
		store:   store,
		lib:     lib,
		engine:  engine,
		logger:  logger,
		version: version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/alerts", server.handleAlerts)
	mux.HandleFunc("/alerts/history", server.handleAlertHistory)
	mux.HandleFunc("/stats", server.handleStats)
	mux.HandleFunc("/stats/", server.handleStats)
	mux.HandleFunc("/calls/", server.handleCallState)
	mux.HandleFunc("/rules", server.handleRules)
	mux.HandleFunc("/admin/clear", server.handleClear)
	mux.HandleFunc("/admin/restart", server.handleRestart)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	skipped := 0
	for _, patterns := range s.lib.SkippedPatterns() {
		skipped += len(patterns)
	}
	resp := statusResponse{
		Status:      "ok",
		Time:        time.Now().UTC().Format(time.RFC3339Nano),
		Version:     s.version,
		ConfigPath:  s.cfg.Path(),
		ActiveCalls: s.engine.ActiveCalls(),
		Rules: rulesStatus{
			Version:         s.lib.Version(),
			Total:           len(s.lib.Rules()),
			Enabled:         len(s.lib.Enabled()),
			SkippedPatterns: skipped,
		},
		Ingest: ingestStatus{
			REST:      cfg.Ingest.REST.Enabled,
			TCPStream: cfg.Ingest.TCPStream.Enabled,
			FileTail:  cfg.Ingest.FileTail.Enabled,
			Kafka:     cfg.Ingest.Kafka.Enabled,
		},
		API:     apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr},
		Storage: cfg.Storage.Enabled,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if callID := r.URL.Query().Get("call_id"); callID != "" {
		list := s.alerts.ForCall(callID)
		writeJSON(w, http.StatusOK, map[string]any{"alerts": list, "count": len(list)})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	sinceStr := r.URL.Query().Get("since")
	var list []model.Alert
	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list = s.alerts.Since(ts)
	} else {
		list = s.alerts.List(limit)
	}
	if min := model.Severity(r.URL.Query().Get("min_severity")); min != "" {
		filtered := make([]model.Alert, 0, len(list))
		for _, a := range list {
			if a.Severity.Rank() >= min.Rank() {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": list, "count": len(list)})
}

// handleCallState returns the live detection state for one active call.
func (s *Server) handleCallState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	callID := strings.TrimPrefix(r.URL.Path, "/calls/")
	if callID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	state, ok := s.engine.CallState(callID)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleAlertHistory serves the durable record when storage is enabled; the
// plain /alerts endpoint only sees the in-memory ring.
func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	filter := storage.AlertFilter{
		CallID:   q.Get("call_id"),
		AgentID:  q.Get("agent_id"),
		Severity: q.Get("severity"),
		RuleID:   q.Get("rule_id"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	list, err := s.store.ListAlerts(r.Context(), filter)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("alert history query failed", "err", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": list, "count": len(list)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/stats")
	path = strings.TrimPrefix(path, "/")
	if path != "" {
		st, updated, ok := s.stats.Get(path)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"call_id":    path,
			"updated_at": updated.Format(time.RFC3339Nano),
			"stats":      st,
		})
		return
	}
	all := s.stats.GetAll()
	writeJSON(w, http.StatusOK, map[string]any{"stats": all, "count": len(all)})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	list := s.lib.Rules()
	if cat := r.URL.Query().Get("category"); cat != "" {
		list = s.lib.ByCategory(model.Category(cat))
	}
	out := make([]ruleSummary, 0, len(list))
	for _, rule := range list {
		out = append(out, ruleSummary{
			ID:         rule.ID,
			Title:      rule.Title,
			Category:   rule.Category,
			Severity:   rule.Severity,
			Enabled:    rule.Enabled,
			Optional:   rule.Optional,
			TextDriven: rule.IsTextDriven(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.lib.Version(),
		"disclaimer": s.lib.Disclaimer(),
		"rules":      out,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Target string `json:"target"`
	}
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req)
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		if s.stats != nil {
			s.stats.Clear()
		}
		if s.alerts != nil {
			s.alerts.Clear()
		}
	case "alerts":
		if s.alerts != nil {
			s.alerts.Clear()
		}
	case "stats":
		if s.stats != nil {
			s.stats.Clear()
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.engine != nil {
		s.engine.Reset()
	}
	if s.stats != nil {
		s.stats.Clear()
	}
	if s.alerts != nil {
		s.alerts.Clear()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

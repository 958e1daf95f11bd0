package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"callwire/internal/config"
	"callwire/internal/model"
	"callwire/internal/normalize"
)

// CallControl is the engine surface the REST feed needs for the call
// lifecycle; segments themselves go through the channel.
type CallControl interface {
	StartCall(meta model.CallMetadata) error
	EndCall(callID string) error
}

type RESTServer struct {
	cfg    *config.Manager
	calls  CallControl
	out    chan<- model.Segment
	logger *slog.Logger
}

func StartREST(ctx context.Context, cfg *config.Manager, calls CallControl, out chan<- model.Segment, logger *slog.Logger) *http.Server {
	current := cfg.Get().Ingest.REST
	if !current.Enabled {
		if logger != nil {
			logger.Info("rest ingest disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("rest ingest enabled", "addr", current.Addr)
	}
	server := &RESTServer{cfg: cfg, calls: calls, out: out, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/segments", server.handleSegments)
	mux.HandleFunc("/calls/start", server.handleCallStart)
	mux.HandleFunc("/calls/end", server.handleCallEnd)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
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
				logger.Error("rest ingest server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *RESTServer) handleSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 2<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	trim := strings.TrimSpace(string(body))
	if trim == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	cfg := s.cfg.Get()
	accepted := 0
	failed := 0

	if trim[0] == '[' {
		var list []map[string]interface{}
		if err := json.Unmarshal([]byte(trim), &list); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, obj := range list {
			if s.processMap(obj, cfg) {
				accepted++
			} else {
				failed++
			}
		}
	} else {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(trim), &obj); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if s.processMap(obj, cfg) {
			accepted++
		} else {
			failed++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"accepted": accepted,
		"failed":   failed,
	})
}

func (s *RESTServer) processMap(obj map[string]interface{}, cfg *config.Config) bool {
	fields := ParseJSONMap(obj)
	seg, err := normalize.Normalize(*fields, cfg)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("rest normalize error", "err", err)
		}
		return false
	}
	seg.Source = "rest"
	return SendNonBlocking(context.Background(), s.out, seg, s.logger)
}

func (s *RESTServer) handleCallStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var meta model.CallMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.calls.StartCall(meta); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeStatusOK(w)
}

func (s *RESTServer) handleCallEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var req struct {
		CallID string `json:"call_id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.calls.EndCall(req.CallID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeStatusOK(w)
}

func writeStatusOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

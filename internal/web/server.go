package web

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"helmlink/internal/nmea"
)

// Server exposes the ingestion pipeline over HTTP for local dashboards:
// a status snapshot, the most recent sample, a websocket sample stream
// and Prometheus metrics.
//
// It is a plain consumer of the service's subscription API and never
// reaches into the pipeline.
type Server struct {
	svc *nmea.Service

	mu         sync.RWMutex
	lastSample nmea.Sample
	haveSample bool

	wsMu   sync.Mutex
	wsSubs map[int]chan nmea.Sample
	wsNext int

	unsub func()
}

func NewServer(svc *nmea.Service) *Server {
	s := &Server{svc: svc, wsSubs: make(map[int]chan nmea.Sample)}
	s.unsub = svc.OnSample(s.onSample)
	return s
}

// Close unsubscribes from the service. Open websockets notice on their
// next write and shut down on their own.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *Server) onSample(sample nmea.Sample) {
	s.mu.Lock()
	s.lastSample = sample
	s.haveSample = true
	s.mu.Unlock()

	s.wsMu.Lock()
	for _, ch := range s.wsSubs {
		// A slow socket drops samples rather than blocking the tick.
		select {
		case ch <- sample:
		default:
		}
	}
	s.wsMu.Unlock()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/sample", s.handleSample)
	mux.HandleFunc("/ws/samples", s.handleSamplesWS)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.svc.Snapshot()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	sample := s.lastSample
	have := s.haveSample
	s.mu.RUnlock()

	if !have {
		http.Error(w, "no sample yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sample)
}

package nmea

import (
	"bufio"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// State is the connection manager's externally visible state.
//
// error is transient: it always resolves toward a scheduled reconnect
// while the service is enabled. Consumers never need to intervene.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

const (
	// DefaultHost and DefaultPort are the conventional address of an
	// onboard Wi-Fi NMEA 0183 multiplexer. Non-binding; override via
	// Configure or config.
	DefaultHost = "192.168.1.1"
	DefaultPort = 10110
)

// Config controls the service. Zero fields take defaults.
type Config struct {
	Host string
	Port int

	// Interval is the aggregation window length.
	Interval time.Duration

	// BackoffBase and BackoffCap bound the reconnect delay:
	// delay = min(base * 2^attempts, cap). Attempts reset to zero only
	// on a successful open.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	DialTimeout  time.Duration
	MaxLineBytes int
}

// Service owns the whole ingestion pipeline: one TCP connection to the
// multiplexer, the per-window accumulator, the aggregation ticker and
// the subscriber registry.
//
// Transport and decode failures never reach the caller. Link health is
// observable only through Status and OnStatusChange, so a dashboard can
// render "reconnecting" indefinitely without ever catching an error.
//
// All exported methods are non-blocking and safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	cfg      Config
	enabled  bool
	state    State
	attempts int
	conn     net.Conn
	retry    *time.Timer

	// gen is bumped by Stop; goroutines from an earlier life compare it
	// and bow out instead of touching fresh state.
	gen uint64

	ticker   *time.Ticker
	tickStop chan struct{}
	tickDone chan struct{}

	hasRPM atomic.Bool

	acc  *Accumulator
	subs registry
}

func New(cfg Config) *Service {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 30 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 4096
	}
	return &Service{cfg: cfg, state: StateDisconnected, acc: NewAccumulator()}
}

// Configure sets the multiplexer endpoint. It does not connect; the
// next attempt (or the next Start) dials the new target.
func (s *Service) Configure(host string, port int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if host != "" {
		s.cfg.Host = host
	}
	if port > 0 {
		s.cfg.Port = port
	}
	s.mu.Unlock()
}

// Start enables the service, starts the aggregation ticker and attempts
// a connection immediately. Calling Start while started is a no-op.
func (s *Service) Start() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = true
	s.attempts = 0
	s.ticker = time.NewTicker(s.cfg.Interval)
	s.tickStop = make(chan struct{})
	s.tickDone = make(chan struct{})
	go s.tickLoop(s.ticker, s.tickStop, s.tickDone)
	gen := s.gen
	host, port, interval := s.cfg.Host, s.cfg.Port, s.cfg.Interval
	s.mu.Unlock()

	log.Printf("nmea start target=%s:%d interval=%s", host, port, interval)
	go s.connect(gen)
}

// Stop disables the service, disarms the retry timer and the ticker,
// closes any live connection and lands on disconnected. Calling Stop
// while stopped is a no-op; no reconnects occur until the next Start.
func (s *Service) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = false
	s.gen++
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	conn := s.conn
	s.conn = nil
	ticker := s.ticker
	tickStop := s.tickStop
	tickDone := s.tickDone
	s.ticker, s.tickStop, s.tickDone = nil, nil, nil
	s.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
	if tickStop != nil {
		close(tickStop)
		<-tickDone
	}
	if conn != nil {
		_ = conn.Close()
	}

	s.mu.Lock()
	changed := s.state != StateDisconnected
	s.state = StateDisconnected
	s.mu.Unlock()
	if changed {
		metricState.Set(stateValue(StateDisconnected))
		s.subs.notifyStatus(StateDisconnected)
	}
	log.Printf("nmea stopped")
}

// Status returns the current connection state.
func (s *Service) Status() State {
	if s == nil {
		return StateDisconnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HasRPMData reports whether an engine RPM sentence has ever decoded
// successfully in this service's lifetime. Once true it stays true,
// across reconnects and through RPM-free windows.
func (s *Service) HasRPMData() bool {
	if s == nil {
		return false
	}
	return s.hasRPM.Load()
}

// OnSample registers a callback for each emitted sample and returns its
// unsubscribe. Delivery is synchronous on the tick; callbacks must not
// block.
func (s *Service) OnSample(cb func(Sample)) func() {
	return s.subs.onSample(cb)
}

// OnStatusChange registers a callback for connection state transitions
// and returns its unsubscribe.
func (s *Service) OnStatusChange(cb func(State)) func() {
	return s.subs.onStatus(cb)
}

// Snapshot is a point-in-time view for status surfaces.
type Snapshot struct {
	State             State  `json:"state"`
	Addr              string `json:"addr"`
	Enabled           bool   `json:"enabled"`
	HasRPMData        bool   `json:"has_rpm_data"`
	ReconnectAttempts int    `json:"reconnect_attempts"`
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{State: StateDisconnected}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:             s.state,
		Addr:              net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Enabled:           s.enabled,
		HasRPMData:        s.hasRPM.Load(),
		ReconnectAttempts: s.attempts,
	}
}

// transition records a state change and synchronously notifies status
// subscribers. Stale generations (a Stop happened since) are ignored so
// a disarmed connection attempt cannot resurrect the state machine.
func (s *Service) transition(gen uint64, st State) {
	s.mu.Lock()
	if s.gen != gen || !s.enabled || s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	s.mu.Unlock()
	metricState.Set(stateValue(st))
	s.subs.notifyStatus(st)
}

func (s *Service) connect(gen uint64) {
	s.mu.Lock()
	if !s.enabled || s.gen != gen || s.conn != nil {
		s.mu.Unlock()
		return
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	timeout := s.cfg.DialTimeout
	s.mu.Unlock()

	s.transition(gen, StateConnecting)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		log.Printf("nmea dial failed addr=%s err=%v", addr, err)
		s.transition(gen, StateError)
		s.scheduleReconnect(gen)
		return
	}

	s.mu.Lock()
	if !s.enabled || s.gen != gen {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.attempts = 0
	s.mu.Unlock()

	log.Printf("nmea connected addr=%s", addr)
	s.transition(gen, StateConnected)
	go s.readLoop(conn, gen)
}

// readLoop reads newline-delimited sentences until the connection dies.
// The buffered reader carries partial lines across TCP frames, so a
// sentence split between two frames is reassembled rather than dropped.
func (s *Service) readLoop(conn net.Conn, gen uint64) {
	s.mu.Lock()
	maxLine := s.cfg.MaxLineBytes
	s.mu.Unlock()

	reader := bufio.NewReaderSize(conn, maxLine)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 && len(line) <= maxLine {
			s.handleLine(line)
		}
		if err != nil {
			_ = conn.Close()
			s.onDisconnect(gen, err)
			return
		}
	}
}

func (s *Service) onDisconnect(gen uint64, err error) {
	s.mu.Lock()
	if s.gen != gen {
		// Stop owned this teardown already.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	enabled := s.enabled
	s.mu.Unlock()
	if !enabled {
		return
	}

	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		log.Printf("nmea connection closed")
		s.transition(gen, StateDisconnected)
	} else {
		log.Printf("nmea connection lost err=%v", err)
		s.transition(gen, StateError)
	}
	s.scheduleReconnect(gen)
}

// scheduleReconnect arms the retry timer. At most one timer is armed at
// a time; scheduling while one is pending is a no-op.
func (s *Service) scheduleReconnect(gen uint64) {
	s.mu.Lock()
	if !s.enabled || s.gen != gen || s.retry != nil {
		s.mu.Unlock()
		return
	}
	delay := backoffDelay(s.cfg.BackoffBase, s.cfg.BackoffCap, s.attempts)
	attempt := s.attempts
	s.attempts++
	s.retry = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.retry = nil
		run := s.enabled && s.gen == gen
		s.mu.Unlock()
		if run {
			s.connect(gen)
		}
	})
	s.mu.Unlock()

	metricReconnects.Inc()
	log.Printf("nmea reconnect in %s attempt=%d", delay, attempt)
}

// backoffDelay is min(base * 2^attempts, limit), computed without
// overflow for absurd attempt counts.
func backoffDelay(base, limit time.Duration, attempts int) time.Duration {
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// handleLine decodes one raw line and pushes its fields into the
// accumulator. Never errors; malformed or unsupported sentences are
// steady-state noise on a marine bus.
func (s *Service) handleLine(line string) {
	metricLines.Inc()
	fields := Decode(line)
	if len(fields) == 0 {
		metricDropped.Inc()
		return
	}
	metricDecoded.Inc()
	for _, f := range fields {
		s.acc.Add(f.Channel, f.Value)
		if f.Channel == ChannelRPM {
			s.hasRPM.Store(true)
		}
	}
}

func (s *Service) tickLoop(ticker *time.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick reduces one aggregation window. Buffers are cleared exactly once
// per tick regardless of outcome; the candidate is emitted only when
// connected and when wind speed, wind angle and speed-through-water all
// saw at least one observation. A silent tick is normal, not an error:
// a sample missing its primary navigational fields helps nobody.
func (s *Service) tick(now time.Time) {
	means := s.acc.Drain()

	if s.Status() != StateConnected {
		metricTicksSkipped.Inc()
		return
	}
	for _, ch := range [...]Channel{ChannelTWS, ChannelTWA, ChannelSTW} {
		if _, ok := means[ch]; !ok {
			metricTicksSkipped.Inc()
			return
		}
	}

	sample := newSample(now, means)
	metricSamples.Inc()
	s.subs.notifySample(sample)
}

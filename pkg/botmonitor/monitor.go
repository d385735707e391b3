package botmonitor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type BotState string

const (
	StateInitializing  BotState = "initializing"
	StateRunning       BotState = "running"
	StateConfigMissing BotState = "configuration_needed"
	StateError         BotState = "error"
)

// Event is one step of the webhook pipeline, kept in a bounded ring for the
// /status endpoint.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Stage      string    `json:"stage"`  // inbound | adapter | outbound
	Kind       string    `json:"kind"`   // command | text | photo
	Status     string    `json:"status"` // ok | error | skipped
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// Snapshot is the read-only view served by /status.
type Snapshot struct {
	Status            BotState  `json:"status"`
	MessagesProcessed int64     `json:"messages_processed"`
	ImagesProcessed   int64     `json:"images_processed"`
	Errors            int64     `json:"errors"`
	LastUpdate        time.Time `json:"last_update"`
	StartTime         time.Time `json:"start_time"`
	Uptime            string    `json:"uptime"`
	RecentEvents      []Event   `json:"recent_events,omitempty"`
}

// Monitor holds the process-wide bot counters. All counters are atomic and
// monotonically non-decreasing within a process lifetime.
type Monitor struct {
	messagesProcessed int64
	imagesProcessed   int64
	errors            int64
	lastUpdateUnix    int64

	stateMu   sync.RWMutex
	state     BotState
	startTime time.Time

	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int
}

func New(size int) *Monitor {
	if size <= 0 {
		size = 200
	}
	return &Monitor{
		state:  StateInitializing,
		events: make([]Event, size),
	}
}

// Start resets the lifecycle: counters back to zero, state running and a
// fresh start time.
func (m *Monitor) Start() {
	atomic.StoreInt64(&m.messagesProcessed, 0)
	atomic.StoreInt64(&m.imagesProcessed, 0)
	atomic.StoreInt64(&m.errors, 0)
	atomic.StoreInt64(&m.lastUpdateUnix, 0)

	m.stateMu.Lock()
	m.state = StateRunning
	m.startTime = time.Now().UTC()
	m.stateMu.Unlock()
}

func (m *Monitor) SetState(s BotState) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()
}

func (m *Monitor) State() BotState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *Monitor) IncrMessages() {
	atomic.AddInt64(&m.messagesProcessed, 1)
	m.Touch()
}

func (m *Monitor) IncrImages() {
	atomic.AddInt64(&m.imagesProcessed, 1)
	m.Touch()
}

func (m *Monitor) IncrErrors() {
	atomic.AddInt64(&m.errors, 1)
}

// Touch marks the time of the most recent handled update.
func (m *Monitor) Touch() {
	atomic.StoreInt64(&m.lastUpdateUnix, time.Now().UTC().Unix())
}

// Record appends one pipeline event to the ring buffer.
func (m *Monitor) Record(e Event) {
	e.Timestamp = time.Now().UTC()

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()
}

func (m *Monitor) Snapshot() Snapshot {
	m.stateMu.RLock()
	state := m.state
	start := m.startTime
	m.stateMu.RUnlock()

	var lastUpdate time.Time
	if ts := atomic.LoadInt64(&m.lastUpdateUnix); ts > 0 {
		lastUpdate = time.Unix(ts, 0).UTC()
	}

	var uptime time.Duration
	if !start.IsZero() {
		uptime = time.Since(start)
	}

	m.eventsMu.Lock()
	recent := make([]Event, 0, m.count)
	first := (m.idx - m.count + len(m.events)) % len(m.events)
	for i := 0; i < m.count; i++ {
		recent = append(recent, m.events[(first+i)%len(m.events)])
	}
	m.eventsMu.Unlock()

	return Snapshot{
		Status:            state,
		MessagesProcessed: atomic.LoadInt64(&m.messagesProcessed),
		ImagesProcessed:   atomic.LoadInt64(&m.imagesProcessed),
		Errors:            atomic.LoadInt64(&m.errors),
		LastUpdate:        lastUpdate,
		StartTime:         start,
		Uptime:            formatUptime(uptime),
		RecentEvents:      recent,
	}
}

// Uptime returns the time since Start, zero before the first Start.
func (m *Monitor) Uptime() time.Duration {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if m.startTime.IsZero() {
		return 0
	}
	return time.Since(m.startTime)
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

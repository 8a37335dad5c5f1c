// Package eventlog provides a bounded, rate-limited audit trail of
// simulation-significant events (ticks, spawns, damage, kills, win/loss,
// handshake, late-event rollback), for local debugging and determinism
// audits. It is never transmitted over the wire.
package eventlog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	BufferSize           = 4096
	MaxEventsPerSec       = 5000
	MaxEventsPerSource    = 200
	BatchFlushSize        = 64
	BatchFlushInterval    = 100 * time.Millisecond
	SourceLimiterCleanup  = 5 * time.Minute
)

// Kind classifies an audit event.
type Kind string

const (
	KindTick      Kind = "tick"
	KindSpawn     Kind = "spawn"
	KindDamage    Kind = "damage"
	KindKill      Kind = "kill"
	KindWin       Kind = "win"
	KindHandshake Kind = "handshake"
	KindLateEvent Kind = "late_event"
)

// Entry is one audit log record.
type Entry struct {
	Sequence  uint64          `json:"sequence"`
	Kind      Kind            `json:"kind"`
	Timestamp int64           `json:"timestamp"` // unix nano
	TickNum   uint64          `json:"tickNum"`
	Source    string          `json:"source"` // owner/player id, for rate limiting
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEntry builds an Entry with the current wall-clock timestamp.
func NewEntry(kind Kind, tickNum uint64, source string, payload interface{}) Entry {
	var raw json.RawMessage
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			raw = data
		}
	}
	return Entry{
		Kind:      kind,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   raw,
	}
}

type sourceLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Log is a circular-buffer audit log with global and per-source rate
// limiting and an async batched disk writer, so emitting never blocks
// the simulation thread.
type Log struct {
	buffer    [BufferSize]Entry
	writeHead uint64
	readHead  uint64

	globalLimiter *rate.Limiter
	sourceLimiters sync.Map // map[string]*sourceLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

// New creates an unstarted Log.
func New() *Log {
	return &Log{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer and limiter-cleanup goroutines,
// appending newline-delimited JSON to filePath (empty disables the
// file sink but still accepts and counts Emit calls).
func (l *Log) Start(filePath string) error {
	if l.running.Load() {
		return nil
	}
	l.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.file = file
	}
	l.running.Store(true)
	l.writerWg.Add(2)
	go l.writerLoop()
	go l.cleanupLoop()
	return nil
}

// Stop gracefully shuts down the log, flushing any remaining entries.
func (l *Log) Stop() {
	l.stopOnce.Do(func() {
		l.running.Store(false)
		close(l.stopChan)
		l.writerWg.Wait()
		l.fileMu.Lock()
		if l.file != nil {
			l.file.Close()
		}
		l.fileMu.Unlock()
	})
}

// Emit adds entry, subject to global and per-source rate limiting.
// Returns false if rate limited or if the log is not running.
func (l *Log) Emit(entry Entry) bool {
	if !l.running.Load() {
		return false
	}
	if !l.globalLimiter.Allow() {
		atomic.AddUint64(&l.droppedCount, 1)
		return false
	}
	if entry.Source != "" {
		if !l.sourceLimiter(entry.Source).Allow() {
			atomic.AddUint64(&l.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&l.writeHead, 1)
	tail := atomic.LoadUint64(&l.readHead)
	if head-tail >= BufferSize {
		atomic.AddUint64(&l.readHead, 1)
		atomic.AddUint64(&l.droppedCount, 1)
	}

	entry.Sequence = head
	l.buffer[head%BufferSize] = entry
	atomic.AddUint64(&l.totalCount, 1)
	return true
}

func (l *Log) sourceLimiter(source string) *rate.Limiter {
	if entry, ok := l.sourceLimiters.Load(source); ok {
		e := entry.(*sourceLimiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}
	entry := &sourceLimiterEntry{
		limiter:  rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10),
		lastUsed: time.Now(),
	}
	actual, _ := l.sourceLimiters.LoadOrStore(source, entry)
	return actual.(*sourceLimiterEntry).limiter
}

func (l *Log) writerLoop() {
	defer l.writerWg.Done()
	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, BatchFlushSize)
	for {
		select {
		case <-l.stopChan:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
		}
	}
}

func (l *Log) cleanupLoop() {
	defer l.writerWg.Done()
	ticker := time.NewTicker(SourceLimiterCleanup)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-SourceLimiterCleanup)
			l.sourceLimiters.Range(func(key, value interface{}) bool {
				if value.(*sourceLimiterEntry).lastUsed.Before(cutoff) {
					l.sourceLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (l *Log) collectBatch(batch []Entry) []Entry {
	head := atomic.LoadUint64(&l.writeHead)
	tail := atomic.LoadUint64(&l.readHead)
	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		batch = append(batch, l.buffer[i%BufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&l.readHead, uint64(len(batch)))
	}
	return batch
}

func (l *Log) flushBatch(batch []Entry) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()
	if l.file == nil {
		return
	}
	for _, entry := range batch {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}
}

// GetDroppedCount returns the number of entries dropped to rate limits
// or buffer backpressure.
func (l *Log) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&l.droppedCount)
}

// GetTotalCount returns the total number of entries accepted.
func (l *Log) GetTotalCount() uint64 {
	return atomic.LoadUint64(&l.totalCount)
}

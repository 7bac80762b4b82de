package store

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"matchday/internal/match"
)

const (
	journalBufferSize    = 1024                   // Circular buffer size
	journalBatchSize     = 64                     // Events per batch write
	journalFlushInterval = 100 * time.Millisecond // How often to flush
)

// journalRecord is one JSONL line: the event plus the archive ID of the
// match it belongs to, so batch runs can interleave matches in one file.
type journalRecord struct {
	MatchID uint `json:"matchId"`
	match.Event
}

// EventJournal appends match events to a newline-delimited JSON file
// without ever blocking the producer. The simulation loop is the single
// producer and the writer goroutine the single consumer of a fixed ring;
// when the writer falls behind, the oldest entries are dropped and counted
// rather than stalling a tick.
type EventJournal struct {
	buffer    [journalBufferSize]journalRecord
	writeHead uint64 // atomic - producer position
	readHead  uint64 // atomic - consumer position

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

// NewEventJournal creates a journal. It writes nothing until Start.
func NewEventJournal() *EventJournal {
	return &EventJournal{
		stopChan: make(chan struct{}),
	}
}

// Start opens the JSONL file for append and begins the writer goroutine.
// An empty filePath runs the journal in counting-only mode.
func (j *EventJournal) Start(filePath string) error {
	if j.running.Load() {
		return nil
	}

	j.filePath = filePath

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		j.file = file
	}

	j.running.Store(true)
	j.writerWg.Add(1)
	go j.writerLoop()

	return nil
}

// Stop drains everything still buffered, then closes the file.
func (j *EventJournal) Stop() {
	j.stopOnce.Do(func() {
		j.running.Store(false)
		close(j.stopChan)
		j.writerWg.Wait()

		j.fileMu.Lock()
		if j.file != nil {
			j.file.Close()
		}
		j.fileMu.Unlock()
	})
}

// Record buffers one event for the writer. It returns false when the
// journal is not running.
func (j *EventJournal) Record(matchID uint, ev match.Event) bool {
	if !j.running.Load() {
		return false
	}

	// Claim the next slot. seq is the pre-increment position so producer
	// and consumer index the ring identically.
	seq := atomic.AddUint64(&j.writeHead, 1) - 1
	tail := atomic.LoadUint64(&j.readHead)

	// Ring full: free the oldest slot instead of blocking the tick loop.
	if seq-tail >= journalBufferSize {
		atomic.AddUint64(&j.readHead, 1)
		atomic.AddUint64(&j.droppedCount, 1)
	}

	j.buffer[seq%journalBufferSize] = journalRecord{MatchID: matchID, Event: ev}
	atomic.AddUint64(&j.totalCount, 1)
	return true
}

// writerLoop batches and writes events to disk asynchronously.
func (j *EventJournal) writerLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(journalFlushInterval)
	defer ticker.Stop()

	batch := make([]journalRecord, 0, journalBatchSize)

	for {
		select {
		case <-j.stopChan:
			// Drain whatever is still pending before shutting down.
			for {
				batch = j.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				j.flushBatch(batch)
			}

		case <-ticker.C:
			batch = j.collectBatch(batch[:0])
			if len(batch) > 0 {
				j.flushBatch(batch)
			}
		}
	}
}

// collectBatch reads available records from the circular buffer.
func (j *EventJournal) collectBatch(batch []journalRecord) []journalRecord {
	head := atomic.LoadUint64(&j.writeHead)
	tail := atomic.LoadUint64(&j.readHead)

	for i := tail; i < head && len(batch) < journalBatchSize; i++ {
		idx := i % journalBufferSize
		batch = append(batch, j.buffer[idx])
	}

	if len(batch) > 0 {
		atomic.AddUint64(&j.readHead, uint64(len(batch)))
	}

	return batch
}

// flushBatch writes records to disk (append-only, newline-delimited JSON).
func (j *EventJournal) flushBatch(batch []journalRecord) {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	if j.file == nil {
		return
	}

	for _, rec := range batch {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		j.file.Write(data)
		j.file.Write([]byte("\n"))
	}
}

// Stats returns journal counters for monitoring.
func (j *EventJournal) Stats() map[string]interface{} {
	head := atomic.LoadUint64(&j.writeHead)
	tail := atomic.LoadUint64(&j.readHead)

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&j.totalCount),
		"dropped": atomic.LoadUint64(&j.droppedCount),
		"pending": head - tail,
		"running": j.running.Load(),
	}
}

// Dropped returns the number of records lost to ring overruns.
func (j *EventJournal) Dropped() uint64 {
	return atomic.LoadUint64(&j.droppedCount)
}

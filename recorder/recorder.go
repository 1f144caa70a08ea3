// Package recorder stores telemetry snapshots in a local SQLite database so a
// drive can be inspected after the window closes.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/milk9111/carsim/telemetry"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultBatchSize     = 64
	DefaultFlushInterval = time.Second
	queueSize            = 1024
)

var ErrNoSession = errors.New("recorder: no such session")

type Options struct {
	BatchSize     int
	FlushInterval time.Duration
}

// Recorder is a telemetry.Sink. Publish only enqueues; a background writer
// batches samples into the database.
type Recorder struct {
	db      *gorm.DB
	log     zerolog.Logger
	opts    Options
	session Session

	queue   chan Sample
	flushCh chan chan error
	done    chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped uint64
	written uint64
	lastErr error
}

// OpenDB opens (creating if needed) the database at path and migrates the
// schema. An empty path opens a private in-memory database.
func OpenDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        DefaultBatchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("recorder: open %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("recorder: %s: %w", pragma, err)
		}
	}
	// One connection keeps the in-memory database alive and serializes writes.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("recorder: sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Session{}, &Sample{}); err != nil {
		return nil, fmt.Errorf("recorder: migrate: %w", err)
	}
	return db, nil
}

// Open starts a new session for vehicle in the database at path.
func Open(path, vehicle string, log zerolog.Logger, opts Options) (*Recorder, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return New(db, vehicle, log, opts)
}

// New starts a session on an already open database.
func New(db *gorm.DB, vehicle string, log zerolog.Logger, opts Options) (*Recorder, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}

	r := &Recorder{
		db:      db,
		log:     log.With().Str("system", "recorder").Logger(),
		opts:    opts,
		session: Session{Vehicle: vehicle},
		queue:   make(chan Sample, queueSize),
		flushCh: make(chan chan error),
		done:    make(chan struct{}),
	}
	if err := db.Create(&r.session).Error; err != nil {
		return nil, fmt.Errorf("recorder: create session: %w", err)
	}
	r.log.Info().Uint("session", r.session.ID).Str("vehicle", vehicle).Msg("recording session")

	go r.run()
	return r, nil
}

func (r *Recorder) SessionID() uint {
	return r.session.ID
}

// Publish queues a sample. When the queue is full the sample is dropped.
func (r *Recorder) Publish(s telemetry.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return telemetry.ErrSinkClosed
	}
	if r.lastErr != nil {
		return r.lastErr
	}
	select {
	case r.queue <- sampleFromSnapshot(r.session.ID, s):
	default:
		r.dropped++
	}
	return nil
}

// Flush blocks until every queued sample has been written.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return telemetry.ErrSinkClosed
	}
	reply := make(chan error, 1)
	select {
	case r.flushCh <- reply:
		return <-reply
	case <-r.done:
		return telemetry.ErrSinkClosed
	}
}

// Stats reports how many samples were written and dropped so far.
func (r *Recorder) Stats() (written, dropped uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.dropped
}

// Close writes what is queued, stamps the session end and releases the
// database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done

	now := time.Now()
	err := r.db.Model(&r.session).Update("ended_at", now).Error
	if err != nil {
		err = fmt.Errorf("recorder: end session: %w", err)
	}
	written, dropped := r.Stats()
	r.log.Info().Uint64("written", written).Uint64("dropped", dropped).Msg("recording closed")

	if sqlDB, dbErr := r.db.DB(); dbErr == nil {
		err = errors.Join(err, sqlDB.Close())
	}
	return err
}

func (r *Recorder) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.opts.FlushInterval)
	defer ticker.Stop()

	pending := make([]Sample, 0, r.opts.BatchSize)
	write := func() error {
		if len(pending) == 0 {
			return nil
		}
		err := r.db.CreateInBatches(pending, r.opts.BatchSize).Error
		r.mu.Lock()
		if err != nil {
			r.lastErr = fmt.Errorf("recorder: write samples: %w", err)
			err = r.lastErr
		} else {
			r.written += uint64(len(pending))
		}
		r.mu.Unlock()
		if err != nil {
			r.log.Error().Err(err).Int("samples", len(pending)).Msg("write failed")
		}
		pending = pending[:0]
		return err
	}

	for {
		select {
		case s, ok := <-r.queue:
			if !ok {
				_ = write()
				return
			}
			pending = append(pending, s)
			if len(pending) >= r.opts.BatchSize {
				_ = write()
			}
		case reply := <-r.flushCh:
			for drained := false; !drained; {
				select {
				case s, ok := <-r.queue:
					if !ok {
						drained = true
						break
					}
					pending = append(pending, s)
				default:
					drained = true
				}
			}
			reply <- write()
		case <-ticker.C:
			_ = write()
		}
	}
}

// Sessions lists the recorded sessions, newest first.
func Sessions(db *gorm.DB) ([]Session, error) {
	var out []Session
	if err := db.Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recorder: list sessions: %w", err)
	}
	return out, nil
}

// Replay returns the snapshots of a session in frame order.
func Replay(db *gorm.DB, sessionID uint) ([]telemetry.Snapshot, error) {
	var session Session
	err := db.First(&session, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNoSession, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("recorder: load session %d: %w", sessionID, err)
	}

	var samples []Sample
	if err := db.Where("session_id = ?", sessionID).Order("frame").Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("recorder: load samples: %w", err)
	}
	out := make([]telemetry.Snapshot, len(samples))
	for i, s := range samples {
		out[i] = s.Snapshot(session.Vehicle)
	}
	return out, nil
}

package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultExpiryWindow is how long a room may stay empty before deletion.
const DefaultExpiryWindow = 10 * time.Minute

const defaultPurgeTimeout = 10 * time.Second

// Timer is the cancelable handle of a pending expiry.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc in production.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// OccupancyChecker answers whether a room has live members right now.
type OccupancyChecker interface {
	IsOccupied(code domain.RoomCode) bool
}

// RoomPurger deletes a room's durable state. Both calls must be idempotent.
type RoomPurger interface {
	DeleteMessagesForRoom(ctx context.Context, code domain.RoomCode) error
	DeleteRoom(ctx context.Context, code domain.RoomCode) error
}

type SchedulerConfig struct {
	Window       time.Duration
	PurgeTimeout time.Duration
	Locks        *RoomLocks
	Occupancy    OccupancyChecker
	Purger       RoomPurger

	// OnDeleted runs after a successful purge, with the room lock held.
	OnDeleted func(code domain.RoomCode)
	AfterFunc AfterFunc
}

type pendingExpiry struct {
	timer Timer
	gen   uint64
}

// Scheduler owns one expiry timer per room code.
//
// Start and Cancel are called by the presence path with the room lock held.
// A firing timer takes the same lock, so it observes every join or leave
// that happened before it. The generation stamp lets a fired callback detect
// that its handle was cancelled or replaced while it waited for the lock.
type Scheduler struct {
	window       time.Duration
	purgeTimeout time.Duration
	locks        *RoomLocks
	occupancy    OccupancyChecker
	purger       RoomPurger
	onDeleted    func(code domain.RoomCode)
	afterFunc    AfterFunc
	logger       zerolog.Logger

	mu      sync.Mutex
	pending map[domain.RoomCode]pendingExpiry
	nextGen uint64
	stopped bool
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultExpiryWindow
	}
	if cfg.PurgeTimeout <= 0 {
		cfg.PurgeTimeout = defaultPurgeTimeout
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = realAfterFunc
	}
	if cfg.Locks == nil {
		cfg.Locks = NewRoomLocks()
	}
	return &Scheduler{
		window:       cfg.Window,
		purgeTimeout: cfg.PurgeTimeout,
		locks:        cfg.Locks,
		occupancy:    cfg.Occupancy,
		purger:       cfg.Purger,
		onDeleted:    cfg.OnDeleted,
		afterFunc:    cfg.AfterFunc,
		logger:       log.With().Str("module", "app.expiry").Logger(),
		pending:      make(map[domain.RoomCode]pendingExpiry),
	}
}

func (s *Scheduler) Window() time.Duration { return s.window }

// Start arms the expiry timer for code, replacing any pending one.
func (s *Scheduler) Start(code domain.RoomCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if p, ok := s.pending[code]; ok {
		p.timer.Stop()
	}
	s.nextGen++
	gen := s.nextGen
	timer := s.afterFunc(s.window, func() { s.fire(code, gen) })
	s.pending[code] = pendingExpiry{timer: timer, gen: gen}
	s.logger.Info().Str("room", string(code)).Dur("window", s.window).Msg("expiry timer started")
}

// Cancel discards the pending timer for code. Safe when none exists or the
// timer already fired.
func (s *Scheduler) Cancel(code domain.RoomCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[code]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.pending, code)
	s.logger.Info().Str("room", string(code)).Msg("expiry timer cancelled")
	return true
}

// Pending reports whether an expiry timer is armed for code.
func (s *Scheduler) Pending(code domain.RoomCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[code]
	return ok
}

// Stop cancels every pending timer without deleting anything.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for code, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, code)
	}
	s.logger.Info().Msg("expiry scheduler stopped")
}

func (s *Scheduler) fire(code domain.RoomCode, gen uint64) {
	unlock := s.locks.Lock(code)
	defer unlock()

	s.mu.Lock()
	p, ok := s.pending[code]
	if !ok || p.gen != gen {
		s.mu.Unlock()
		s.logger.Debug().Str("room", string(code)).Msg("stale expiry timer ignored")
		return
	}
	delete(s.pending, code)
	s.mu.Unlock()

	if s.occupancy.IsOccupied(code) {
		s.logger.Info().Str("room", string(code)).Msg("room occupied again, expiry skipped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.purgeTimeout)
	defer cancel()

	if err := s.purger.DeleteMessagesForRoom(ctx, code); err != nil {
		s.logger.Error().Err(err).Str("room", string(code)).Msg("failed to delete room messages")
		return
	}
	if err := s.purger.DeleteRoom(ctx, code); err != nil {
		s.logger.Error().Err(err).Str("room", string(code)).Msg("failed to delete room")
		return
	}
	s.logger.Info().Str("room", string(code)).Msg("room deleted due to inactivity")

	if s.onDeleted != nil {
		s.onDeleted(code)
	}
}

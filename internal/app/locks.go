package app

import (
	"sync"

	"github.com/dkeye/roomchat/internal/domain"
)

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// RoomLocks hands out one mutex per room code. Entries are dropped when no
// goroutine holds or waits for them.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[domain.RoomCode]*roomLock
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[domain.RoomCode]*roomLock)}
}

// Lock blocks until the lock for code is held and returns its release func.
func (l *RoomLocks) Lock(code domain.RoomCode) (unlock func()) {
	l.mu.Lock()
	rl, ok := l.locks[code]
	if !ok {
		rl = &roomLock{}
		l.locks[code] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			rl.mu.Unlock()
			l.mu.Lock()
			rl.refs--
			if rl.refs == 0 {
				delete(l.locks, code)
			}
			l.mu.Unlock()
		})
	}
}

func (l *RoomLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

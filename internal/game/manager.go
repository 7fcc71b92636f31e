package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Pools  Pools
	Oracle Asker
	// Judge defaults to MatchJudge.
	Judge Judge
	// Rand drives secret selection; nil seeds a fresh source.
	Rand *rand.Rand
	// TTL is how long an idle session survives. Zero disables reaping.
	TTL time.Duration
	// OnFinish runs after a session is won.
	OnFinish func(Snapshot)
	Now      func() time.Time
}

type RoomManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	pools    Pools
	oracle   Asker
	judge    Judge
	ttl      time.Duration
	onFinish func(Snapshot)
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRoomManager validates the location pools and returns an empty manager.
func NewRoomManager(opts Options) (*RoomManager, error) {
	pools := opts.Pools
	if pools == nil {
		pools = DefaultPools
	}
	if err := pools.Validate(); err != nil {
		return nil, err
	}
	rm := &RoomManager{
		sessions: make(map[string]*Session),
		pools:    pools,
		oracle:   opts.Oracle,
		judge:    opts.Judge,
		ttl:      opts.TTL,
		onFinish: opts.OnFinish,
		now:      opts.Now,
		rng:      opts.Rand,
	}
	if rm.judge == nil {
		rm.judge = MatchJudge{}
	}
	if rm.now == nil {
		rm.now = time.Now
	}
	if rm.rng == nil {
		rm.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rm, nil
}

// CreateSession starts a game in mode with a freshly drawn secret.
func (rm *RoomManager) CreateSession(mode Mode) (*Session, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	rm.rngMu.Lock()
	secret, err := rm.pools.Pick(mode, rm.rng)
	rm.rngMu.Unlock()
	if err != nil {
		return nil, err
	}
	return rm.add(mode, secret), nil
}

// CreateSessionWithSecret starts a game with a fixed secret. Names that are
// not in the pool are accepted without aliases.
func (rm *RoomManager) CreateSessionWithSecret(mode Mode, secret string) (*Session, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if secret == "" {
		return nil, ErrInvalidInput
	}
	loc, ok := rm.pools.Lookup(mode, secret)
	if !ok {
		loc = Location{Name: secret}
	}
	return rm.add(mode, loc), nil
}

func (rm *RoomManager) add(mode Mode, secret Location) *Session {
	s := newSession(uuid.NewString(), mode, secret, rm.oracle, rm.judge, rm.now)
	s.onOver = rm.onFinish

	rm.mu.Lock()
	rm.sessions[s.ID] = s
	rm.mu.Unlock()

	log.Info().Str("id", s.ID).Str("mode", string(mode)).Msg("session created")
	return s
}

func (rm *RoomManager) Get(id string) (*Session, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	s := rm.sessions[id]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove discards a session and closes its subscriptions.
func (rm *RoomManager) Remove(id string) error {
	rm.mu.Lock()
	s := rm.sessions[id]
	delete(rm.sessions, id)
	rm.mu.Unlock()
	if s == nil {
		return ErrSessionNotFound
	}
	s.Close()
	log.Info().Str("id", id).Msg("session removed")
	return nil
}

func (rm *RoomManager) Len() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.sessions)
}

// Reap removes sessions idle for longer than the TTL and reports how many.
func (rm *RoomManager) Reap() int {
	if rm.ttl <= 0 {
		return 0
	}
	cutoff := rm.now().Add(-rm.ttl)

	rm.mu.Lock()
	var stale []*Session
	for id, s := range rm.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(rm.sessions, id)
		}
	}
	rm.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		log.Info().Int("count", len(stale)).Msg("reaped idle sessions")
	}
	return len(stale)
}

// RunReaper calls Reap every interval until ctx is done.
func (rm *RoomManager) RunReaper(ctx context.Context, interval time.Duration) error {
	if rm.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			rm.Reap()
		}
	}
}

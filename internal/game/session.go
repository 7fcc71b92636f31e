package game

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	guessPrefix    = "My guess: "
	resultCorrect  = "Correct! 🎉"
	resultMiss     = "Incorrect, keep trying!"
	subscriberBuff = 8
)

// Session is one player's game. The secret is drawn once at creation and
// never changes; state only moves through SubmitQuestion and SubmitGuess.
type Session struct {
	ID        string
	Mode      Mode
	CreatedAt time.Time

	secret Location
	oracle Asker
	judge  Judge
	now    func() time.Time
	onOver func(Snapshot)

	mu             sync.Mutex
	transcript     []ChatMessage
	questionsAsked int
	isOver         bool
	inFlight       bool
	endedAt        time.Time
	lastActive     time.Time
	lastID         int64
	closed         bool
	subs           map[chan Snapshot]struct{}
}

func newSession(id string, mode Mode, secret Location, oracle Asker, judge Judge, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Session{
		ID:         id,
		Mode:       mode,
		CreatedAt:  t,
		secret:     secret,
		oracle:     oracle,
		judge:      judge,
		now:        now,
		lastActive: t,
		transcript: []ChatMessage{},
		subs:       make(map[chan Snapshot]struct{}),
	}
}

// Secret returns the hidden location name.
func (s *Session) Secret() string { return s.secret.Name }

// SubmitQuestion appends the question, waits for the oracle and appends its
// answer. Rejected submissions leave the session untouched and return the
// current snapshot with ErrInvalidInput, ErrGameOver, ErrCapExceeded or
// ErrQuestionInFlight.
func (s *Session) SubmitQuestion(ctx context.Context, text string) (Snapshot, error) {
	q := strings.TrimSpace(text)

	s.mu.Lock()
	if err := s.checkAskLocked(q); err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}
	s.inFlight = true
	s.appendLocked(KindQuestion, q)
	s.publishLocked()
	s.mu.Unlock()

	var answer Answer = AnswerMaybe
	if s.oracle != nil {
		answer = s.oracle.Ask(ctx, q, s.secret.Name, s.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(KindAnswer, string(answer))
	s.questionsAsked++
	s.inFlight = false
	s.publishLocked()
	return s.snapshotLocked(), nil
}

func (s *Session) checkAskLocked(q string) error {
	switch {
	case q == "":
		return ErrInvalidInput
	case s.isOver:
		return ErrGameOver
	case s.questionsAsked >= MaxQuestions:
		return ErrCapExceeded
	case s.inFlight:
		return ErrQuestionInFlight
	}
	return nil
}

// SubmitGuess appends the guess and its verdict. A correct guess ends the
// game. Rejected guesses leave the session untouched and return the current
// snapshot with ErrInvalidInput (blank), ErrGameOver, or ErrQuestionInFlight
// while a question is awaiting its answer, so every question/answer pair
// stays adjacent in the transcript.
func (s *Session) SubmitGuess(text string) (Snapshot, error) {
	g := strings.TrimSpace(text)

	s.mu.Lock()
	switch {
	case g == "":
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrInvalidInput
	case s.isOver:
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrGameOver
	case s.inFlight:
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrQuestionInFlight
	}

	correct := s.judge != nil && s.judge.Correct(g, s.secret)
	s.appendLocked(KindQuestion, guessPrefix+g)
	if correct {
		s.appendLocked(KindAnswer, resultCorrect)
		s.isOver = true
		s.endedAt = s.now()
	} else {
		s.appendLocked(KindAnswer, resultMiss)
	}
	s.publishLocked()
	snap := s.snapshotLocked()
	onOver := s.onOver
	s.mu.Unlock()

	if correct && onOver != nil {
		onOver(snap)
	}
	return snap, nil
}

// Snapshot returns the current state. Reading counts as activity, so a game
// that is still being viewed is not reaped as idle.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.snapshotLocked()
}

// Subscribe returns a channel of snapshots published after every change.
// Slow readers miss intermediate snapshots instead of blocking the game.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuff)
	s.mu.Lock()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends all subscriptions. The session is discarded afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = map[chan Snapshot]struct{}{}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) appendLocked(kind MessageKind, content string) {
	t := s.now()
	id := t.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	s.lastActive = t
	s.transcript = append(s.transcript, ChatMessage{ID: id, Kind: kind, Content: content, CreatedAt: t})
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	transcript := make([]ChatMessage, len(s.transcript))
	copy(transcript, s.transcript)

	snap := Snapshot{
		ID:             s.ID,
		Mode:           s.Mode,
		Transcript:     transcript,
		QuestionsAsked: s.questionsAsked,
		QuestionsLeft:  MaxQuestions - s.questionsAsked,
		IsOver:         s.isOver,
		Asking:         s.inFlight,
		CanAsk:         !s.isOver && !s.inFlight && s.questionsAsked < MaxQuestions,
		CanGuess:       !s.isOver && !s.inFlight,
		StartedAt:      s.CreatedAt,
	}
	end := s.now()
	switch {
	case s.isOver:
		ended := s.endedAt
		snap.EndedAt = &ended
		snap.Notice = NoticeWon
		snap.Secret = s.secret.Name
		end = ended
	case s.questionsAsked >= MaxQuestions:
		snap.Notice = NoticeOutOfQuestions
	}
	snap.Elapsed = end.Sub(s.CreatedAt)
	snap.ElapsedMs = snap.Elapsed.Milliseconds()
	return snap
}

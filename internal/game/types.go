package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxQuestions is the per-session question cap.
const MaxQuestions = 20

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidMode          = errors.New("invalid mode")
	ErrInvalidInput         = errors.New("empty input")
	ErrCapExceeded          = errors.New("question limit reached")
	ErrGameOver             = errors.New("game is over")
	ErrQuestionInFlight     = errors.New("question already in flight")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

type Mode string

const (
	ModeCountry Mode = "country"
	ModeCity    Mode = "city"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeCountry, ModeCity:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) Valid() bool { return m == ModeCountry || m == ModeCity }

type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindAnswer   MessageKind = "answer"
)

type ChatMessage struct {
	ID        int64       `json:"id"`
	Kind      MessageKind `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"timestamp"`
}

type Notice string

const (
	NoticeNone           Notice = ""
	NoticeOutOfQuestions Notice = "out_of_questions"
	NoticeWon            Notice = "won"
)

// Snapshot is an immutable copy of a session's state.
type Snapshot struct {
	ID             string        `json:"id"`
	Mode           Mode          `json:"mode"`
	Transcript     []ChatMessage `json:"transcript"`
	QuestionsAsked int           `json:"questionsAsked"`
	QuestionsLeft  int           `json:"questionsLeft"`
	IsOver         bool          `json:"isOver"`
	Asking         bool          `json:"asking"`
	CanAsk         bool          `json:"canAsk"`
	CanGuess       bool          `json:"canGuess"`
	Notice         Notice        `json:"notice,omitempty"`
	StartedAt      time.Time     `json:"startedAt"`
	EndedAt        *time.Time    `json:"endedAt,omitempty"`
	Elapsed        time.Duration `json:"-"`
	ElapsedMs      int64         `json:"elapsedMs"`
	// Secret is only revealed once the game is over.
	Secret string `json:"secret,omitempty"`
}

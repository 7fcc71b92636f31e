// Package transcript turns a game snapshot into what the chat panel shows.
// Render is a pure function; clients only lay out the result.
package transcript

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kiliankoe/pinpoint/internal/game"
)

const (
	AlignRight = "right"
	AlignLeft  = "left"

	StyleGuess  = "guess"
	StyleOracle = "oracle"

	ActionAsk   = "ask"
	ActionGuess = "guess"
	ActionReset = "reset"
)

type Entry struct {
	ID      int64            `json:"id"`
	Anchor  string           `json:"anchor"`
	Kind    game.MessageKind `json:"type"`
	Align   string           `json:"align"`
	Style   string           `json:"style"`
	Content string           `json:"content"`
	Time    string           `json:"time"`
}

type Placeholder struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Meter struct {
	Asked   int    `json:"asked"`
	Max     int    `json:"max"`
	Percent int    `json:"percent"`
	Level   string `json:"level"`
}

type Notice struct {
	Kind game.Notice `json:"kind"`
	Text string      `json:"text"`
}

type View struct {
	GameID      string       `json:"gameId"`
	Mode        game.Mode    `json:"mode"`
	Entries     []Entry      `json:"entries"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`
	// ScrollTo is the anchor of the newest entry.
	ScrollTo   string   `json:"scrollTo,omitempty"`
	Meter      Meter    `json:"meter"`
	Timer      string   `json:"timer"`
	TimerOn    bool     `json:"timerRunning"`
	Notice     *Notice  `json:"notice,omitempty"`
	Actions    []string `json:"actions"`
	Asking     bool     `json:"asking"`
	GuessLabel string   `json:"guessLabel"`
	Secret     string   `json:"secret,omitempty"`
}

var emptyPlaceholder = Placeholder{
	Title: "Ready to play!",
	Body:  "Ask your first yes/no question to get started.",
}

// Render builds the view for snap, formatting times in loc (time.Local if nil).
func Render(snap game.Snapshot, loc *time.Location) View {
	if loc == nil {
		loc = time.Local
	}
	v := View{
		GameID:     snap.ID,
		Mode:       snap.Mode,
		Entries:    make([]Entry, 0, len(snap.Transcript)),
		Meter:      meter(snap.QuestionsAsked),
		Timer:      FormatElapsed(snap.Elapsed),
		TimerOn:    !snap.IsOver,
		Asking:     snap.Asking,
		GuessLabel: fmt.Sprintf("Enter your %s guess...", snap.Mode),
		Secret:     snap.Secret,
	}

	for _, m := range snap.Transcript {
		e := Entry{
			ID:      m.ID,
			Anchor:  anchor(m.ID),
			Kind:    m.Kind,
			Content: m.Content,
			Time:    m.CreatedAt.In(loc).Format("15:04"),
		}
		if m.Kind == game.KindQuestion {
			e.Align, e.Style = AlignRight, StyleGuess
		} else {
			e.Align, e.Style = AlignLeft, StyleOracle
		}
		v.Entries = append(v.Entries, e)
	}

	if len(v.Entries) == 0 {
		p := emptyPlaceholder
		v.Placeholder = &p
	} else {
		v.ScrollTo = v.Entries[len(v.Entries)-1].Anchor
	}

	switch snap.Notice {
	case game.NoticeWon:
		v.Notice = &Notice{Kind: game.NoticeWon, Text: "🎉 Congratulations! You won!"}
	case game.NoticeOutOfQuestions:
		v.Notice = &Notice{Kind: game.NoticeOutOfQuestions, Text: "No more questions! Make your final guess!"}
	}

	if snap.IsOver {
		v.Actions = []string{ActionReset}
		return v
	}
	v.Actions = make([]string, 0, 3)
	if snap.CanAsk {
		v.Actions = append(v.Actions, ActionAsk)
	}
	if snap.CanGuess {
		v.Actions = append(v.Actions, ActionGuess)
	}
	v.Actions = append(v.Actions, ActionReset)
	return v
}

func anchor(id int64) string { return "msg-" + strconv.FormatInt(id, 10) }

func meter(asked int) Meter {
	m := Meter{Asked: asked, Max: game.MaxQuestions, Percent: asked * 100 / game.MaxQuestions}
	switch {
	case asked >= 18:
		m.Level = "red"
	case asked >= 15:
		m.Level = "yellow"
	default:
		m.Level = "green"
	}
	return m
}

// FormatElapsed renders a duration as m:ss, or h:mm:ss past an hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

package game

import (
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Judge decides whether a guess names the secret.
type Judge interface {
	Correct(guess string, secret Location) bool
}

type JudgeFunc func(guess string, secret Location) bool

func (f JudgeFunc) Correct(guess string, secret Location) bool { return f(guess, secret) }

// MatchJudge accepts the secret's name or one of its aliases, ignoring case,
// accents, punctuation, extra whitespace and a leading "the".
type MatchJudge struct{}

func (MatchJudge) Correct(guess string, secret Location) bool {
	g := Fold(guess)
	if g == "" {
		return false
	}
	if g == Fold(secret.Name) {
		return true
	}
	for _, a := range secret.Aliases {
		if g == Fold(a) {
			return true
		}
	}
	return false
}

// RandomJudge ignores the guess and succeeds with probability P. Useful for
// demos where nobody knows the pool.
type RandomJudge struct {
	P   float64
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomJudge(p float64, rng *rand.Rand) *RandomJudge {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &RandomJudge{P: p, rng: rng}
}

func (j *RandomJudge) Correct(string, Location) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Float64() < j.P
}

// Fold reduces a place name to a comparable key: "  the Côte-d'Ivoire " and
// "cote d ivoire" fold to the same string.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	out = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, out)
	fields := strings.Fields(out)
	if len(fields) > 1 && fields[0] == "the" {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

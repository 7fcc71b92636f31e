package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiliankoe/pinpoint/internal/ai"
	"github.com/kiliankoe/pinpoint/internal/ai/gemini"
	"github.com/kiliankoe/pinpoint/internal/ai/ollama"
	"github.com/kiliankoe/pinpoint/internal/ai/openai"
	"github.com/kiliankoe/pinpoint/internal/config"
	"github.com/kiliankoe/pinpoint/internal/game"
	"github.com/rs/zerolog/log"
)

// randomJudgeP is the chance a guess counts as correct under GUESS_JUDGE=random.
const randomJudgeP = 0.3

func newProviders(ctx context.Context, cfg config.Config) (ai.Registry, func(), error) {
	gm, err := gemini.New(ctx, cfg.GeminiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini client: %w", err)
	}
	reg := ai.Registry{
		"openai": openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		"ollama": ollama.New(cfg.OllamaHost),
		"gemini": gm,
	}
	return reg, func() { _ = gm.Close() }, nil
}

func newJudge(name string) (game.Judge, error) {
	switch strings.ToLower(name) {
	case "", "match":
		return game.MatchJudge{}, nil
	case "random":
		return game.NewRandomJudge(randomJudgeP, nil), nil
	}
	return nil, fmt.Errorf("unknown guess judge %q", name)
}

// exporter appends finished games to the export file when enabled.
func exporter(cfg config.Config) func(game.Snapshot) {
	if !cfg.ExportEnabled {
		return nil
	}
	return func(snap game.Snapshot) {
		if err := game.ExportSession(snap, cfg.ExportFile); err != nil {
			log.Error().Err(err).Str("id", snap.ID).Msg("failed to export game data")
			return
		}
		log.Info().Str("id", snap.ID).Str("file", cfg.ExportFile).Msg("exported game data")
	}
}

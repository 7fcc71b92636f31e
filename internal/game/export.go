package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends a finished game's transcript to a text file.
func ExportSession(snap Snapshot, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pinpoint Game - Session %s\n", snap.ID))
	sb.WriteString(fmt.Sprintf("Mode: %s\n", snap.Mode))
	sb.WriteString(fmt.Sprintf("Started: %s\n", snap.StartedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	for _, m := range snap.Transcript {
		who := "Oracle"
		if m.Kind == KindQuestion {
			who = "Player"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.CreatedAt.Format("15:04:05"), who, m.Content))
	}

	sb.WriteString(strings.Repeat("-", 40) + "\n")
	if snap.IsOver {
		sb.WriteString(fmt.Sprintf("Solved: %s in %s with %d question(s)\n",
			snap.Secret, snap.Elapsed.Round(time.Second), snap.QuestionsAsked))
	} else {
		sb.WriteString(fmt.Sprintf("Unsolved after %d question(s)\n", snap.QuestionsAsked))
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

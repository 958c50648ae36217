package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valter-silva-au/questforge/internal/filelock"
)

// QuestIDGenerator defines the interface for generating unique, sequential quest IDs.
type QuestIDGenerator interface {
	GenerateQuestID() (string, error)
}

// fileQuestIDGenerator persists its counter in a .quest_counter file.
type fileQuestIDGenerator struct {
	basePath string
	prefix   string
	padWidth int
}

// NewQuestIDGenerator creates a QuestIDGenerator that stores its counter in
// basePath/.quest_counter. padWidth controls the zero-padding of the numeric
// part; 0 disables padding (QUEST-1).
func NewQuestIDGenerator(basePath string, prefix string, padWidth int) QuestIDGenerator {
	return &fileQuestIDGenerator{
		basePath: basePath,
		prefix:   prefix,
		padWidth: padWidth,
	}
}

func (g *fileQuestIDGenerator) counterPath() string {
	return filepath.Join(g.basePath, ".quest_counter")
}

// GenerateQuestID increments the counter under an exclusive lock and returns
// the formatted ID. A missing counter file starts at 1.
func (g *fileQuestIDGenerator) GenerateQuestID() (string, error) {
	if err := os.MkdirAll(g.basePath, 0o750); err != nil {
		return "", fmt.Errorf("creating base path for quest counter: %w", err)
	}

	var counter int
	err := filelock.With(g.counterPath()+".lock", func() error {
		data, err := os.ReadFile(g.counterPath())
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading quest counter file: %w", err)
		}
		if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
			counter, err = strconv.Atoi(trimmed)
			if err != nil {
				return fmt.Errorf("parsing quest counter %q: %w", trimmed, err)
			}
		}

		counter++
		if err := os.WriteFile(g.counterPath(), []byte(strconv.Itoa(counter)), 0o600); err != nil {
			return fmt.Errorf("writing quest counter file: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if g.padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", g.prefix, g.padWidth, counter), nil
	}
	return fmt.Sprintf("%s-%d", g.prefix, counter), nil
}

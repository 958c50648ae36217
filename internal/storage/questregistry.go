package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valter-silva-au/questforge/internal/filelock"
	"github.com/valter-silva-au/questforge/pkg/models"
	"gopkg.in/yaml.v3"
)

// QuestRegistryFile is the top-level structure of quests.yaml.
type QuestRegistryFile struct {
	Version string                  `yaml:"version"`
	Quests  map[string]models.Quest `yaml:"quests"`
}

// QuestRegistry defines the interface for the registry of published quests.
type QuestRegistry interface {
	AddQuest(q models.Quest) error
	GetQuest(id string) (*models.Quest, error)
	ListQuests(filter models.QuestFilter) ([]models.Quest, error)
	Load() error
	Save() error
}

type fileQuestRegistry struct {
	basePath string
	data     QuestRegistryFile
}

// NewQuestRegistry creates a QuestRegistry backed by quests.yaml in the
// given directory. Call Load before reading.
func NewQuestRegistry(basePath string) QuestRegistry {
	return &fileQuestRegistry{
		basePath: basePath,
		data: QuestRegistryFile{
			Version: "1.0",
			Quests:  make(map[string]models.Quest),
		},
	}
}

func (r *fileQuestRegistry) filePath() string {
	return filepath.Join(r.basePath, "quests.yaml")
}

func (r *fileQuestRegistry) AddQuest(q models.Quest) error {
	if q.ID == "" {
		return fmt.Errorf("adding quest: ID must not be empty")
	}
	if _, exists := r.data.Quests[q.ID]; exists {
		return fmt.Errorf("adding quest: quest %s already exists", q.ID)
	}
	r.data.Quests[q.ID] = q
	return nil
}

func (r *fileQuestRegistry) GetQuest(id string) (*models.Quest, error) {
	q, exists := r.data.Quests[id]
	if !exists {
		return nil, fmt.Errorf("quest %s not found", id)
	}
	return &q, nil
}

// ListQuests returns matching quests ordered by ID. All filter fields are
// ANDed together.
func (r *fileQuestRegistry) ListQuests(filter models.QuestFilter) ([]models.Quest, error) {
	ids := make([]string, 0, len(r.data.Quests))
	for id := range r.data.Quests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []models.Quest
	for _, id := range ids {
		q := r.data.Quests[id]
		if matchesQuestFilter(q, filter) {
			result = append(result, q)
		}
	}
	return result, nil
}

func matchesQuestFilter(q models.Quest, filter models.QuestFilter) bool {
	if filter.Subject != "" && !strings.EqualFold(q.Subject, filter.Subject) {
		return false
	}
	if filter.IPRights.IsSet() && q.IPRights != filter.IPRights {
		return false
	}
	if len(filter.Tags) > 0 && !hasAllTags(q.Tags, filter.Tags) {
		return false
	}
	return true
}

func hasAllTags(questTags []string, requiredTags []string) bool {
	tagSet := make(map[string]struct{}, len(questTags))
	for _, t := range questTags {
		tagSet[t] = struct{}{}
	}
	for _, req := range requiredTags {
		if _, found := tagSet[req]; !found {
			return false
		}
	}
	return true
}

func (r *fileQuestRegistry) Load() error {
	data, err := os.ReadFile(r.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			r.data = QuestRegistryFile{
				Version: "1.0",
				Quests:  make(map[string]models.Quest),
			}
			return nil
		}
		return fmt.Errorf("loading quest registry: %w", err)
	}

	var qf QuestRegistryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return fmt.Errorf("loading quest registry: parsing YAML: %w", err)
	}
	if qf.Quests == nil {
		qf.Quests = make(map[string]models.Quest)
	}
	r.data = qf
	return nil
}

func (r *fileQuestRegistry) Save() error {
	if err := os.MkdirAll(r.basePath, 0o750); err != nil {
		return fmt.Errorf("saving quest registry: creating directory: %w", err)
	}

	err := filelock.With(r.filePath()+".lock", func() error {
		// Keep quests another process saved since our Load.
		if raw, err := os.ReadFile(r.filePath()); err == nil {
			var onDisk QuestRegistryFile
			if err := yaml.Unmarshal(raw, &onDisk); err == nil {
				for id, q := range onDisk.Quests {
					if _, ok := r.data.Quests[id]; !ok {
						r.data.Quests[id] = q
					}
				}
			}
		}

		data, err := yaml.Marshal(&r.data)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		if err := os.WriteFile(r.filePath(), data, 0o600); err != nil {
			return fmt.Errorf("writing file: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving quest registry: %w", err)
	}
	return nil
}

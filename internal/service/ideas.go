package service

import (
	"os"
	"strings"

	"ideaboard/internal/models"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	noDescription = "No description available."
	labelMaxRunes = 25
)

// IdeaIndex resolves titles and descriptions from the optional ideas file.
type IdeaIndex struct {
	byName map[string]models.IdeaMeta
}

// LoadIdeaIndex reads a JSON array of {Name, Title, Idea} objects. Any problem
// with the file is logged and produces an empty index.
func LoadIdeaIndex(path string, logger *zap.Logger) *IdeaIndex {
	idx := &IdeaIndex{byName: map[string]models.IdeaMeta{}}
	if path == "" {
		return idx
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Could not load ideas data", zap.String("path", path), zap.Error(err))
		return idx
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("Could not load ideas data", zap.String("path", path), zap.Error(err))
		return idx
	}
	if _, ok := raw.([]interface{}); !ok {
		return idx
	}

	var metas []models.IdeaMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		logger.Warn("Could not load ideas data", zap.String("path", path), zap.Error(err))
		return idx
	}
	for _, m := range metas {
		// First entry wins, matching a front-to-back search.
		if _, seen := idx.byName[m.Name]; !seen && m.Name != "" {
			idx.byName[m.Name] = m
		}
	}
	return idx
}

func (i *IdeaIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byName)
}

// Title returns the configured title or the display name.
func (i *IdeaIndex) Title(identifier string) string {
	if i != nil {
		if m, ok := i.byName[identifier]; ok && m.Title != "" {
			return m.Title
		}
	}
	return DisplayName(identifier)
}

// Description returns the idea text or a placeholder.
func (i *IdeaIndex) Description(identifier string) string {
	if i != nil {
		if m, ok := i.byName[identifier]; ok && m.Idea != "" {
			return m.Idea
		}
	}
	return noDescription
}

// DisplayName turns "mean_reversion_v2" into "Mean Reversion V2".
func DisplayName(identifier string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(identifier, "_", " "))
}

// Label shortens a display name for compact lists.
func Label(displayName string) string {
	runes := []rune(displayName)
	if len(runes) <= labelMaxRunes {
		return displayName
	}
	return string(runes[:labelMaxRunes]) + "..."
}

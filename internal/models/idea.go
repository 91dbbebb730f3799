package models

// IdeaResult is one scored idea directory.
type IdeaResult struct {
	Identifier  string  `json:"idea"`
	MetricValue float64 `json:"metric_value"`
	SourcePath  string  `json:"-"`
}

// CatalogConfig identifies a catalog scan. It doubles as the cache key.
type CatalogConfig struct {
	BaseDirectory string
	MetricName    string
	SyntheticMode bool
}

// Classification buckets an idea relative to the best score and the threshold.
type Classification string

const (
	ClassBest           Classification = "best"
	ClassAboveThreshold Classification = "above_threshold"
	ClassBelowThreshold Classification = "below_threshold"
)

// Marker is the single-glyph badge the dashboard shows next to an idea.
func (c Classification) Marker() string {
	switch c {
	case ClassBest:
		return "⭐"
	case ClassAboveThreshold:
		return "🟢"
	case ClassBelowThreshold:
		return "🔴"
	}
	return ""
}

// ClassificationContext holds the two reference values classification compares against.
type ClassificationContext struct {
	ThresholdScore float64 `json:"threshold_score"`
	BestValue      float64 `json:"best_value"`
}

// RankedIdea is an IdeaResult positioned and classified for display.
type RankedIdea struct {
	Rank           int            `json:"rank"`
	Identifier     string         `json:"idea"`
	DisplayName    string         `json:"display_name"`
	MetricValue    float64        `json:"metric_value"`
	Classification Classification `json:"classification"`
	Marker         string         `json:"marker"`
}

// IdeaMeta is one entry of the optional ideas file.
type IdeaMeta struct {
	Name  string `json:"Name"`
	Title string `json:"Title"`
	Idea  string `json:"Idea"`
}

// IdeaDetail is what the results panel shows for a selected idea.
type IdeaDetail struct {
	Identifier     string         `json:"idea"`
	DisplayName    string         `json:"display_name"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	MetricName     string         `json:"metric_name"`
	MetricValue    float64        `json:"metric_value"`
	Classification Classification `json:"classification"`
	HasCandidate   bool           `json:"has_candidate"`
}

// DiffInput is the pair of texts handed to the diff renderer.
type DiffInput struct {
	BaselineText  string `json:"baseline_text"`
	CandidateText string `json:"candidate_text"`
}

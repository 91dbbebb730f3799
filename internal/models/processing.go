package models

// Stage is one step of the simulated per-idea pipeline.
type Stage struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Ticks int    `json:"ticks"`
}

// ProcessedIdea is an idea the simulation has "finished".
type ProcessedIdea struct {
	Name           string         `json:"name"`
	DisplayName    string         `json:"display_name"`
	Label          string         `json:"label"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	MetricValue    float64        `json:"metric_value"`
	Classification Classification `json:"classification"`
	Marker         string         `json:"marker"`
	Path           string         `json:"-"`
}

// StageStatus is how a stage renders in the progress panel.
type StageStatus struct {
	Name     string  `json:"name"`
	Icon     string  `json:"icon"`
	State    string  `json:"state"` // done, active, pending
	Progress float64 `json:"progress"`
}

// ProcessingSnapshot is the read-only view of a processing run.
type ProcessingSnapshot struct {
	Total           int             `json:"total"`
	ProcessedCount  int             `json:"processed_count"`
	OverallProgress float64         `json:"overall_progress"`
	Complete        bool            `json:"complete"`
	CurrentIdea     string          `json:"current_idea,omitempty"`
	Stages          []StageStatus   `json:"stages"`
	Ideas           []ProcessedIdea `json:"ideas"`
	Selected        string          `json:"selected,omitempty"`
}

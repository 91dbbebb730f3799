package models

// Warning kinds reported for skipped ideas.
const (
	WarningUnreadable = "unreadable"
	WarningMalformed  = "malformed"
)

// ScanWarning records an idea skipped because its metric file could not be used.
type ScanWarning struct {
	Identifier string `json:"idea"`
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// LoginRequest for /api/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse for /api/login
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	PageTitle string `json:"page_title"`
}

// RankingResponse is returned by /api/ideas
type RankingResponse struct {
	PageTitle      string        `json:"page_title"`
	MetricName     string        `json:"metric_name"`
	ThresholdScore float64       `json:"threshold_score"`
	BestValue      float64       `json:"best_value"`
	Synthetic      bool          `json:"synthetic"`
	Ideas          []RankedIdea  `json:"ideas"`
	Warnings       []ScanWarning `json:"warnings"`
}

// SessionResponse is returned by /api/session
type SessionResponse struct {
	Username       string          `json:"username"`
	PageTitle      string          `json:"page_title"`
	Page           string          `json:"page"`
	SelectedIdea   string          `json:"selected_idea,omitempty"`
	DeploymentIdea string          `json:"deployment_idea,omitempty"`
	Goal           string          `json:"goal,omitempty"`
	Dataset        *DatasetProfile `json:"dataset,omitempty"`
	IdeaCount      int             `json:"idea_count"`
	MaxIdeaCount   int             `json:"max_idea_count"`
}

// ProcessingRequest for POST /api/processing
type ProcessingRequest struct {
	Count int `json:"count"`
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error string `json:"error"`
}

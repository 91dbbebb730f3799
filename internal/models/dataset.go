package models

// DatasetProfile summarizes an uploaded dataset for the setup step.
type DatasetProfile struct {
	FileName    string            `json:"file_name"`
	Format      string            `json:"format"`
	NumRows     int               `json:"rows"`
	NumColumns  int               `json:"columns"`
	ColumnNames []string          `json:"column_names"`
	ColumnTypes map[string]string `json:"column_types"`
	HasDates    bool              `json:"has_dates"`
	HasNumeric  bool              `json:"has_numeric"`
	HasText     bool              `json:"has_text"`
	Quality     []ColumnQuality   `json:"quality"`
}

// ColumnQuality describes how usable a single column looks.
type ColumnQuality struct {
	Column          string  `json:"column"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	Entropy         float64 `json:"entropy"`
	LikelyID        bool    `json:"likely_id"`
	Score           float64 `json:"score"` // 0-1
}

// UploadResponse is returned after a dataset upload.
type UploadResponse struct {
	Message string          `json:"message"`
	Goal    string          `json:"goal"`
	Profile *DatasetProfile `json:"profile"`
}

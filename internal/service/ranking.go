package service

import (
	"errors"
	"io/fs"
	"os"

	"ideaboard/internal/models"
)

// BestValue is the highest metric value in results, or 0 when there are none.
func BestValue(results []models.IdeaResult) float64 {
	if len(results) == 0 {
		return 0
	}
	best := results[0].MetricValue
	for _, r := range results[1:] {
		if r.MetricValue > best {
			best = r.MetricValue
		}
	}
	return best
}

// NewClassificationContext pairs the threshold with the current best value.
func NewClassificationContext(results []models.IdeaResult, thresholdScore float64) models.ClassificationContext {
	return models.ClassificationContext{
		ThresholdScore: thresholdScore,
		BestValue:      BestValue(results),
	}
}

// ClassifyValue buckets a single value. Equality with the best value is exact,
// so every idea tied for the top score is marked best.
func ClassifyValue(value float64, ctx models.ClassificationContext) models.Classification {
	switch {
	case value == ctx.BestValue:
		return models.ClassBest
	case value >= ctx.ThresholdScore:
		return models.ClassAboveThreshold
	default:
		return models.ClassBelowThreshold
	}
}

// Classify maps every identifier in results to its classification.
func Classify(results []models.IdeaResult, thresholdScore float64) map[string]models.Classification {
	out := make(map[string]models.Classification, len(results))
	if len(results) == 0 {
		return out
	}
	ctx := NewClassificationContext(results, thresholdScore)
	for _, r := range results {
		out[r.Identifier] = ClassifyValue(r.MetricValue, ctx)
	}
	return out
}

// Rank decorates results, in their existing order, with a 1-based rank,
// a display name and a classification.
func Rank(results []models.IdeaResult, thresholdScore float64) []models.RankedIdea {
	ranked := make([]models.RankedIdea, 0, len(results))
	ctx := NewClassificationContext(results, thresholdScore)
	for i, r := range results {
		class := ClassifyValue(r.MetricValue, ctx)
		ranked = append(ranked, models.RankedIdea{
			Rank:           i + 1,
			Identifier:     r.Identifier,
			DisplayName:    DisplayName(r.Identifier),
			MetricValue:    r.MetricValue,
			Classification: class,
			Marker:         class.Marker(),
		})
	}
	return ranked
}

// RankingResponse is the dashboard view of a catalog: ranked ideas plus the
// scan's warnings, classified against thresholdScore.
func RankingResponse(catalog *Catalog, pageTitle string, thresholdScore float64) models.RankingResponse {
	return models.RankingResponse{
		PageTitle:      pageTitle,
		MetricName:     catalog.Config.MetricName,
		ThresholdScore: thresholdScore,
		BestValue:      BestValue(catalog.Results),
		Synthetic:      catalog.Config.SyntheticMode,
		Ideas:          Rank(catalog.Results, thresholdScore),
		Warnings:       catalog.Warnings,
	}
}

// PrepareDiff resolves the baseline and candidate texts. The baseline is checked
// first; if it is missing the candidate is never touched.
func PrepareDiff(baselinePath, candidatePath string) (models.DiffInput, error) {
	if err := checkArtifact("baseline", baselinePath); err != nil {
		return models.DiffInput{}, err
	}
	if err := checkArtifact("candidate", candidatePath); err != nil {
		return models.DiffInput{}, err
	}

	baseline, err := readArtifact("baseline", baselinePath)
	if err != nil {
		return models.DiffInput{}, err
	}
	candidate, err := readArtifact("candidate", candidatePath)
	if err != nil {
		return models.DiffInput{}, err
	}

	return models.DiffInput{BaselineText: baseline, CandidateText: candidate}, nil
}

// ArtifactExists reports whether path names an existing regular file.
func ArtifactExists(path string) bool {
	return checkArtifact("", path) == nil
}

func checkArtifact(role, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingArtifactError{Role: role, Path: path}
		}
		return &MissingArtifactError{Role: role, Path: path, Err: err}
	}
	if info.IsDir() {
		return &MissingArtifactError{Role: role, Path: path, Err: errors.New("is a directory")}
	}
	return nil
}

func readArtifact(role, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &MissingArtifactError{Role: role, Path: path, Err: err}
	}
	return string(data), nil
}

// ReadCandidate returns the candidate file text on its own, for downloads.
func ReadCandidate(path string) ([]byte, error) {
	if err := checkArtifact("candidate", path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingArtifactError{Role: "candidate", Path: path, Err: err}
	}
	return data, nil
}

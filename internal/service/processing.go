package service

import (
	"fmt"
	"sort"
	"sync"

	"ideaboard/internal/models"
)

const (
	MaxIdeaCount     = 25
	defaultIdeaCount = 5
)

// DefaultStages are the cosmetic steps shown per idea. Ticks stand in for the
// seconds each step used to take on screen.
var DefaultStages = []models.Stage{
	{Name: "Reading Literature", Icon: "📚", Ticks: 3},
	{Name: "Implementing Idea", Icon: "💡", Ticks: 4},
	{Name: "Training Model", Icon: "🧠", Ticks: 5},
	{Name: "Evaluating Results", Icon: "📊", Ticks: 3},
	{Name: "Finalizing Code", Icon: "✅", Ticks: 2},
}

// MaxIdeas caps how many ideas a run can process.
func MaxIdeas(available int) int {
	return min(MaxIdeaCount, available)
}

// DefaultIdeaCount is the slider's starting position.
func DefaultIdeaCount(available int) int {
	return min(defaultIdeaCount, MaxIdeas(available))
}

// ProcessingRun replays a catalog as if its ideas were being generated one by
// one. It is driven entirely by Advance calls; nothing runs in the background.
type ProcessingRun struct {
	mu sync.Mutex

	results   []models.IdeaResult
	index     *IdeaIndex
	threshold float64
	stages    []models.Stage

	total     int
	stage     int
	tick      int
	processed []models.ProcessedIdea
	selected  string
	complete  bool
}

// NewProcessingRun starts a run over the first count catalog entries, with
// count clamped to [1, MaxIdeas(len(results))].
func NewProcessingRun(results []models.IdeaResult, count int, index *IdeaIndex, threshold float64) *ProcessingRun {
	total := 0
	if limit := MaxIdeas(len(results)); limit > 0 {
		total = max(1, min(count, limit))
	}

	run := &ProcessingRun{
		results:   append([]models.IdeaResult(nil), results[:total]...),
		index:     index,
		threshold: threshold,
		stages:    DefaultStages,
		total:     total,
	}
	run.complete = total == 0
	return run
}

// Advance moves the run forward one tick and reports whether anything changed.
// Finishing the last stage turns the next idea into a processed one.
func (p *ProcessingRun) Advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.complete {
		return false
	}

	p.tick++
	if p.tick < p.stages[p.stage].Ticks {
		return true
	}

	p.tick = 0
	p.stage++
	if p.stage < len(p.stages) {
		return true
	}

	next := p.results[len(p.processed)]
	p.processed = append(p.processed, p.toProcessed(next))
	p.selected = next.Identifier
	p.stage = 0
	if len(p.processed) >= p.total {
		p.complete = true
	}
	return true
}

// Restart clears processed ideas and begins again with the same count.
func (p *ProcessingRun) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed = nil
	p.selected = ""
	p.stage, p.tick = 0, 0
	p.complete = p.total == 0
}

// Select marks a processed idea as the one shown in the results panel.
func (p *ProcessingRun) Select(identifier string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, idea := range p.processed {
		if idea.Name == identifier {
			p.selected = identifier
			return nil
		}
	}
	return fmt.Errorf("%w: %s has not been processed", ErrUnknownIdea, identifier)
}

func (p *ProcessingRun) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.complete
}

// Snapshot returns the current state. Processed ideas are ordered by metric and
// classified against each other, not against the full catalog.
func (p *ProcessingRun) Snapshot() models.ProcessingSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := models.ProcessingSnapshot{
		Total:          p.total,
		ProcessedCount: len(p.processed),
		Complete:       p.complete,
		Selected:       p.selected,
		Stages:         make([]models.StageStatus, 0, len(p.stages)),
	}
	if p.total > 0 {
		snap.OverallProgress = float64(len(p.processed)) / float64(p.total)
	}

	if !p.complete && p.stage > 0 {
		snap.CurrentIdea = DisplayName(p.results[len(p.processed)].Identifier)
	}

	for i, st := range p.stages {
		status := models.StageStatus{Name: st.Name, Icon: st.Icon, State: "pending"}
		switch {
		case p.complete || i < p.stage:
			status.State, status.Progress = "done", 1
		case i == p.stage:
			status.State = "active"
			status.Progress = float64(p.tick) / float64(st.Ticks)
		}
		snap.Stages = append(snap.Stages, status)
	}

	ideas := append([]models.ProcessedIdea{}, p.processed...)
	sort.SliceStable(ideas, func(i, j int) bool { return ideas[i].MetricValue > ideas[j].MetricValue })

	results := make([]models.IdeaResult, len(ideas))
	for i, idea := range ideas {
		results[i] = models.IdeaResult{Identifier: idea.Name, MetricValue: idea.MetricValue}
	}
	ctx := NewClassificationContext(results, p.threshold)
	for i := range ideas {
		ideas[i].Classification = ClassifyValue(ideas[i].MetricValue, ctx)
		ideas[i].Marker = ideas[i].Classification.Marker()
	}
	snap.Ideas = ideas
	return snap
}

// Processed returns the processed idea with the given name.
func (p *ProcessingRun) Processed(identifier string) (models.ProcessedIdea, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, idea := range p.processed {
		if idea.Name == identifier {
			return idea, true
		}
	}
	return models.ProcessedIdea{}, false
}

func (p *ProcessingRun) toProcessed(r models.IdeaResult) models.ProcessedIdea {
	display := DisplayName(r.Identifier)
	return models.ProcessedIdea{
		Name:        r.Identifier,
		DisplayName: display,
		Label:       Label(display),
		Title:       p.index.Title(r.Identifier),
		Description: p.index.Description(r.Identifier),
		MetricValue: r.MetricValue,
		Path:        r.SourcePath,
	}
}

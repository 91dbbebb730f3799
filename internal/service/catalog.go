package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ideaboard/internal/models"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MetricFileName is the per-idea results file read in non-synthetic mode.
const MetricFileName = "results.json"

const (
	syntheticMin = 0.3
	syntheticMax = 0.9
)

// Catalog is the ranked result of one scan.
type Catalog struct {
	Config   models.CatalogConfig `json:"-"`
	Results  []models.IdeaResult  `json:"results"`
	Warnings []models.ScanWarning `json:"warnings"`
}

// Find returns the result with the given identifier.
func (c *Catalog) Find(identifier string) (models.IdeaResult, bool) {
	for _, r := range c.Results {
		if r.Identifier == identifier {
			return r, true
		}
	}
	return models.IdeaResult{}, false
}

// CatalogService scans idea directories into ranked catalogs. It holds no
// catalog state of its own; caching is CatalogCache's job.
type CatalogService struct {
	concurrency int
	logger      *zap.Logger
}

func NewCatalogService(concurrency int, logger *zap.Logger) *CatalogService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		concurrency: concurrency,
		logger:      logger.Named("catalog"),
	}
}

type scanSlot struct {
	result  models.IdeaResult
	ok      bool
	warning *models.ScanWarning
}

// Load enumerates the immediate subdirectories of cfg.BaseDirectory and returns
// their results sorted by metric value, highest first. Entries with equal values
// keep directory-name order. Only an unreadable base directory fails the call.
func (s *CatalogService) Load(ctx context.Context, cfg models.CatalogConfig) (*Catalog, error) {
	if strings.TrimSpace(cfg.MetricName) == "" {
		return nil, fmt.Errorf("%w: metric name is required", ErrInvalidCatalogConfig)
	}

	entries, err := os.ReadDir(cfg.BaseDirectory)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, cfg.BaseDirectory, err)
	}

	// os.ReadDir sorts by name, which is the tie-break order.
	var names []string
	for _, entry := range entries {
		if isDirEntry(cfg.BaseDirectory, entry) {
			names = append(names, entry.Name())
		}
	}

	slots := make([]scanSlot, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = s.scanIdea(cfg, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog := &Catalog{
		Config:   cfg,
		Results:  make([]models.IdeaResult, 0, len(slots)),
		Warnings: []models.ScanWarning{},
	}
	for _, slot := range slots {
		if slot.warning != nil {
			catalog.Warnings = append(catalog.Warnings, *slot.warning)
		}
		if slot.ok {
			catalog.Results = append(catalog.Results, slot.result)
		}
	}

	// Sort only after every slot is filled so completion order never matters.
	sort.SliceStable(catalog.Results, func(i, j int) bool {
		return catalog.Results[i].MetricValue > catalog.Results[j].MetricValue
	})

	s.logger.Info("Catalog loaded",
		zap.String("base_dir", cfg.BaseDirectory),
		zap.String("metric", cfg.MetricName),
		zap.Bool("synthetic", cfg.SyntheticMode),
		zap.Int("dirs", len(names)),
		zap.Int("results", len(catalog.Results)),
		zap.Int("warnings", len(catalog.Warnings)))

	return catalog, nil
}

func (s *CatalogService) scanIdea(cfg models.CatalogConfig, name string) scanSlot {
	dir := filepath.Join(cfg.BaseDirectory, name)

	if cfg.SyntheticMode {
		return scanSlot{
			result: models.IdeaResult{Identifier: name, MetricValue: SyntheticMetric(name), SourcePath: dir},
			ok:     true,
		}
	}

	path := filepath.Join(dir, MetricFileName)
	value, err := ReadMetric(path, cfg.MetricName)
	switch {
	case err == nil:
		return scanSlot{
			result: models.IdeaResult{Identifier: name, MetricValue: value, SourcePath: dir},
			ok:     true,
		}
	case errors.Is(err, fs.ErrNotExist):
		// No result yet.
		return scanSlot{}
	case errors.Is(err, ErrMetricKeyMissing):
		s.logger.Debug("Metric not computed", zap.String("idea", name), zap.String("metric", cfg.MetricName))
		return scanSlot{}
	}

	kind := models.WarningMalformed
	if errors.Is(err, ErrMetricFileUnreadable) {
		kind = models.WarningUnreadable
	}
	s.logger.Warn("Skipped idea", zap.String("idea", name), zap.String("kind", kind), zap.Error(err))
	return scanSlot{warning: &models.ScanWarning{
		Identifier: name,
		Path:       path,
		Kind:       kind,
		Message:    fmt.Sprintf("Skipped %s: %v", name, err),
		Err:        err,
	}}
}

// ReadMetric reads one numeric value out of a results file. An absent file
// yields an error matching fs.ErrNotExist; a missing or null key yields
// ErrMetricKeyMissing.
func ReadMetric(path, metric string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrMetricFileUnreadable, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMetricFileMalformed, err)
	}
	if doc == nil {
		return 0, fmt.Errorf("%w: expected a JSON object", ErrMetricFileMalformed)
	}

	switch v := doc[metric].(type) {
	case nil:
		return 0, fmt.Errorf("%w: %s", ErrMetricKeyMissing, metric)
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a number", ErrMetricFileMalformed, metric)
	}
}

// SyntheticMetric derives a reproducible demo score in [0.3, 0.9] from an idea name.
func SyntheticMetric(identifier string) float64 {
	h := fnv.New64a()
	h.Write([]byte(identifier))
	seed := h.Sum64() % (1 << 32)

	rng := rand.New(rand.NewSource(int64(seed)))
	return round4(syntheticMin + (syntheticMax-syntheticMin)*rng.Float64())
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func isDirEntry(base string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(base, entry.Name()))
	return err == nil && info.IsDir()
}

package evaluation

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zen-systems/routegate/pkg/metrics"
	"github.com/zen-systems/routegate/pkg/models"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Evaluation is an externally curated quality score for one model on one
// task type.
type Evaluation struct {
	ModelID     string          `json:"model_id" yaml:"model_id"`
	TaskType    models.TaskType `json:"task_type" yaml:"task_type"`
	Score       float64         `json:"score" yaml:"score"`
	LastUpdated time.Time       `json:"last_updated" yaml:"last_updated"`
}

type key struct {
	modelID  string
	taskType models.TaskType
}

// Store holds at most one evaluation per (model, task type). Entries keep
// their first insertion position so ties resolve in a stable order.
type Store struct {
	mu      sync.RWMutex
	entries []Evaluation
	index   map[key]int
	now     func() time.Time
	gauge   prometheus.Gauge
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used to stamp updates.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithEntriesGauge reports the number of stored evaluations on g. Stores
// without a gauge report nothing, so only the store serving requests
// should be given the process-wide metrics.EvaluationEntries.
func WithEntriesGauge(g prometheus.Gauge) StoreOption {
	return func(s *Store) {
		s.gauge = g
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		index: make(map[key]int),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update upserts the score for (modelID, taskType), stamped with the current time.
func (s *Store) Update(modelID string, taskType models.TaskType, score float64) {
	s.UpdateAt(modelID, taskType, score, s.now())
}

// UpdateAt upserts with an explicit timestamp. An update older than the
// stored entry is ignored, so concurrent writers converge on the latest one.
func (s *Store) UpdateAt(modelID string, taskType models.TaskType, score float64, at time.Time) {
	score = clampScore(score)
	k := key{modelID: modelID, taskType: taskType}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.index[k]; ok {
		if at.Before(s.entries[idx].LastUpdated) {
			return
		}
		s.entries[idx].Score = score
		s.entries[idx].LastUpdated = at
	} else {
		s.index[k] = len(s.entries)
		s.entries = append(s.entries, Evaluation{
			ModelID:     modelID,
			TaskType:    taskType,
			Score:       score,
			LastUpdated: at,
		})
		if s.gauge != nil {
			s.gauge.Set(float64(len(s.entries)))
		}
	}
	metrics.EvaluationUpdates.Inc()
}

// GetScore returns the stored score for (modelID, taskType).
func (s *Store) GetScore(modelID string, taskType models.TaskType) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[key{modelID: modelID, taskType: taskType}]
	if !ok {
		return 0, false
	}
	return s.entries[idx].Score, true
}

// GetBestModel returns the highest scoring model for taskType. The first
// entry reaching the maximum wins ties.
func (s *Store) GetBestModel(taskType models.TaskType) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := -1
	for i, e := range s.entries {
		if e.TaskType != taskType {
			continue
		}
		if best == -1 || e.Score > s.entries[best].Score {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return s.entries[best].ModelID, true
}

// GetEvaluations returns the evaluations for taskType, highest score first.
func (s *Store) GetEvaluations(taskType models.TaskType) []Evaluation {
	s.mu.RLock()
	var out []Evaluation
	for _, e := range s.entries {
		if e.TaskType == taskType {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// All returns a snapshot of every evaluation in insertion order.
func (s *Store) All() []Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Evaluation(nil), s.entries...)
}

// Len returns the number of stored evaluations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, score))
}

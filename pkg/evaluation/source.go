package evaluation

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/zen-systems/routegate/pkg/models"
)

// Record is one (model, task type, score) triple from an import feed.
type Record struct {
	ModelID  string          `yaml:"model_id" json:"model_id"`
	TaskType models.TaskType `yaml:"task_type" json:"task_type"`
	Score    float64         `yaml:"score" json:"score"`
}

// Source is a bulk evaluation feed pulled on demand.
type Source interface {
	// Fetch returns the current batch of evaluations.
	Fetch(ctx context.Context) ([]Record, error)

	// Name identifies the source in logs and metrics.
	Name() string
}

// StaticSource serves a fixed batch.
type StaticSource struct {
	Records []Record
}

// NewStaticSource returns a source serving the built-in evaluation batch.
func NewStaticSource() *StaticSource {
	return &StaticSource{Records: SeedRecords()}
}

// Name returns the source identifier.
func (s *StaticSource) Name() string {
	return "static"
}

// Fetch returns a copy of the fixed batch.
func (s *StaticSource) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Record(nil), s.Records...), nil
}

// FileSource reads evaluations from a YAML file of the form
//
//	evaluations:
//	  - {model_id: openai-gpt-4o, task_type: coding, score: 8.8}
type FileSource struct {
	Path string
}

type evaluationFile struct {
	Evaluations []Record `yaml:"evaluations"`
}

// Name returns the source identifier.
func (s *FileSource) Name() string {
	return "file"
}

// Fetch reads and parses the file.
func (s *FileSource) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read evaluations: %w", err)
	}
	var file evaluationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse evaluations %s: %w", s.Path, err)
	}
	for i, r := range file.Evaluations {
		if strings.TrimSpace(r.ModelID) == "" {
			return nil, fmt.Errorf("evaluation %d in %s: missing model_id", i, s.Path)
		}
	}
	return file.Evaluations, nil
}

// RedisSource reads evaluations from a Redis hash whose fields are
// "<model id>|<task type>" and whose values are decimal scores.
type RedisSource struct {
	Client *redis.Client
	Key    string
}

// DefaultRedisKey is the hash used when none is configured.
const DefaultRedisKey = "routegate:evaluations"

// NewRedisSource connects to addr and reads from key.
func NewRedisSource(addr, key string) *RedisSource {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Key:    key,
	}
}

// Name returns the source identifier.
func (s *RedisSource) Name() string {
	return "redis"
}

// Fetch loads every field of the hash. Malformed fields fail the fetch.
func (s *RedisSource) Fetch(ctx context.Context) ([]Record, error) {
	fields, err := s.Client.HGetAll(ctx, s.Key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.Key, err)
	}

	records := make([]Record, 0, len(fields))
	for field, value := range fields {
		modelID, task, ok := strings.Cut(field, "|")
		if !ok || modelID == "" {
			return nil, fmt.Errorf("invalid evaluation field %q", field)
		}
		taskType, err := models.ParseTaskType(task)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid score %q", field, value)
		}
		records = append(records, Record{ModelID: modelID, TaskType: taskType, Score: score})
	}

	// Hash iteration order is random; keep imports deterministic.
	sortRecords(records)
	return records, nil
}

// Publish writes records into the hash in one round trip.
func (s *RedisSource) Publish(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]any, 0, len(records)*2)
	for _, r := range records {
		values = append(values, RedisField(r.ModelID, r.TaskType), strconv.FormatFloat(r.Score, 'f', -1, 64))
	}
	if err := s.Client.HSet(ctx, s.Key, values...).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.Key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSource) Close() error {
	return s.Client.Close()
}

// RedisField formats the hash field for a (model, task type) pair.
func RedisField(modelID string, taskType models.TaskType) string {
	return modelID + "|" + string(taskType)
}

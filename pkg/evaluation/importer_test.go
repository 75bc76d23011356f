package evaluation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/models"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Fetch(context.Context) ([]Record, error) {
	return nil, errors.New("feed unavailable")
}

func TestImportStaticSource(t *testing.T) {
	store := NewStore()
	importer := NewImporter(store, WithLogger(zap.NewNop()))

	applied, err := importer.Import(context.Background(), NewStaticSource())
	require.NoError(t, err)
	assert.Equal(t, len(SeedRecords()), applied)
	assert.Equal(t, len(SeedRecords()), store.Len())

	best, ok := store.GetBestModel(models.TaskCoding)
	require.True(t, ok)
	assert.Equal(t, "deepseek-coder", best)

	// Re-importing overwrites in place.
	_, err = importer.Import(context.Background(), NewStaticSource())
	require.NoError(t, err)
	assert.Equal(t, len(SeedRecords()), store.Len())
}

func TestImportFailureLeavesStoreUntouched(t *testing.T) {
	store := NewStore()
	store.Update("m", models.TaskMath, 5)

	_, err := NewImporter(store).Import(context.Background(), failingSource{})
	require.Error(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestRefreshFiltersRecords(t *testing.T) {
	store := NewStore()
	importer := NewImporter(store)

	applied, err := importer.Refresh(context.Background(), NewStaticSource(),
		[]string{"openai-gpt-4o"}, []models.TaskType{models.TaskCoding, models.TaskMath})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	_, ok := store.GetScore("openai-gpt-4o", models.TaskReasoning)
	assert.False(t, ok)
	score, ok := store.GetScore("openai-gpt-4o", models.TaskMath)
	require.True(t, ok)
	assert.Equal(t, 9.0, score)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evals.yaml")
	data := []byte("evaluations:\n  - {model_id: a, task_type: coding, score: 8.8}\n  - {model_id: b, task_type: coding, score: 9.1}\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	store := NewStore()
	_, err := NewImporter(store).Import(context.Background(), &FileSource{Path: path})
	require.NoError(t, err)

	best, ok := store.GetBestModel(models.TaskCoding)
	require.True(t, ok)
	assert.Equal(t, "b", best)
}

func TestFileSourceRejectsEmptyModelID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evals.yaml")
	data := []byte("evaluations:\n  - {model_id: a, task_type: coding, score: 8.8}\n  - {model_id: \"\", task_type: coding, score: 9.1}\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	store := NewStore()
	_, err := NewImporter(store).Import(context.Background(), &FileSource{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing model_id")
	assert.Equal(t, 0, store.Len())
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := (&FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestRedisSource(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.HSet(ctx, DefaultRedisKey,
		RedisField("openai-gpt-4o", models.TaskCoding), "8.8",
		RedisField("deepseek-coder", models.TaskCoding), "9.1",
	).Err())

	src := &RedisSource{Client: client, Key: DefaultRedisKey}
	records, err := src.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "deepseek-coder", records[0].ModelID)

	store := NewStore()
	_, err = NewImporter(store).Import(ctx, src)
	require.NoError(t, err)
	best, _ := store.GetBestModel(models.TaskCoding)
	assert.Equal(t, "deepseek-coder", best)
}

func TestRedisSourcePublishRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	src := NewRedisSource(mr.Addr(), "")
	defer src.Close()

	ctx := context.Background()
	require.NoError(t, src.Publish(ctx, SeedRecords()))
	require.NoError(t, src.Publish(ctx, nil))

	records, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, SeedRecords(), records)
	assert.Equal(t, "8.8", mr.HGet(DefaultRedisKey, RedisField("openai-gpt-4o", models.TaskCoding)))
}

func TestRedisSourceRejectsMalformedField(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.HSet(ctx, "evals", "no-separator", "1").Err())

	_, err = (&RedisSource{Client: client, Key: "evals"}).Fetch(ctx)
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evals.yaml")
	require.NoError(t, os.WriteFile(path, []byte("evaluations: []\n"), 0600))

	store := NewStore()
	reloaded := make(chan error, 4)
	w := NewWatcher(NewImporter(store), &FileSource{Path: path},
		WithDebounce(50*time.Millisecond),
		WithReloadHook(func(_ int, err error) { reloaded <- err }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	data := []byte("evaluations:\n  - {model_id: a, task_type: math, score: 7}\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}

	score, ok := store.GetScore("a", models.TaskMath)
	require.True(t, ok)
	assert.Equal(t, 7.0, score)

	cancel()
	require.NoError(t, <-done)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/routegate/pkg/adapter"
	"github.com/zen-systems/routegate/pkg/chat"
	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/executor"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/router"
	"github.com/zen-systems/routegate/pkg/scoring"
	"github.com/zen-systems/routegate/pkg/transcript"
)

func newTestService(mock *adapter.MockAdapter) *chat.Service {
	registry := models.DefaultRegistry()
	store := evaluation.NewStore()
	r := router.NewRouter(registry, scoring.NewEngine(store))
	c := executor.NewCoordinator(adapter.NewDispatcher(registry, adapter.WithDefaultAdapter(mock)))
	return chat.NewService(r, c, registry)
}

func TestRunChatKeepsHistoryAndTranscript(t *testing.T) {
	mock := adapter.NewMockAdapter()
	svc := newTestService(mock)

	in := strings.NewReader("hello there\n\nwrite a function to add numbers\n/quit\nignored\n")
	var out, sink bytes.Buffer
	require.NoError(t, runChat(context.Background(), svc, in, &out, &sink))

	assert.Len(t, mock.Calls(), 2)
	assert.Equal(t, 2, strings.Count(out.String(), "mock response:"))

	lines := strings.Split(strings.TrimSpace(sink.String()), "\n")
	require.Len(t, lines, 4)
	var last transcript.Message
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, "assistant", last.Role)
	require.NotNil(t, last.Metadata)
	assert.Equal(t, models.TaskCoding, last.Metadata.Routing.TaskType)
}

func TestRunChatReportsAllModelsFailed(t *testing.T) {
	mock := adapter.NewMockAdapter()
	for _, m := range models.DefaultModels() {
		mock.Fail(m.ID, errors.New("down"))
	}
	svc := newTestService(mock)

	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), svc, strings.NewReader("hi\n"), &out, nil))
	assert.Contains(t, out.String(), "no model could produce an answer")
}

func TestPrintRouting(t *testing.T) {
	registry := models.DefaultRegistry()
	r := router.NewRouter(registry, scoring.NewEngine(nil))
	result := r.Route("Summarize this article", scoring.TierFree)

	var out bytes.Buffer
	require.NoError(t, printRouting(&out, result, result.Fallbacks(2)))

	text := out.String()
	assert.Contains(t, text, "Task type:  summarization")
	for _, m := range registry.List() {
		assert.Contains(t, text, m.ID)
	}
}

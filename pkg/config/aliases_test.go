package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/routegate/pkg/models"
)

func TestResolve(t *testing.T) {
	aliases := &ModelAliases{
		Aliases: map[string]string{
			"fast":    "openai-gpt-3.5-turbo",
			"quality": "anthropic-claude-3-sonnet",
		},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"resolve known alias", "fast", "openai-gpt-3.5-turbo"},
		{"resolve another alias", "quality", "anthropic-claude-3-sonnet"},
		{"unknown alias returns input unchanged", "unknown-model", "unknown-model"},
		{"model id returns unchanged", "openai-gpt-4o", "openai-gpt-4o"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, aliases.Resolve(tt.input))
		})
	}
}

func TestResolve_NilAliases(t *testing.T) {
	var aliases *ModelAliases
	assert.Equal(t, "fast", aliases.Resolve("fast"))
	assert.False(t, aliases.IsAlias("fast"))
	assert.Empty(t, aliases.ListAliases())
}

func TestIsAlias(t *testing.T) {
	aliases := DefaultAliases()
	assert.True(t, aliases.IsAlias("fast"))
	assert.False(t, aliases.IsAlias("openai-gpt-3.5-turbo"))
}

func TestDefaultAliasesMatchRegistry(t *testing.T) {
	assert.Empty(t, DefaultAliases().Validate(models.DefaultRegistry()))
}

func TestValidateReportsUnknownTargets(t *testing.T) {
	aliases := DefaultAliases()
	aliases.Merge(map[string]string{"ghost": "no-such-model", "fast": "deepseek-coder"})

	errs := aliases.Validate(models.DefaultRegistry())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `alias "ghost"`)
	assert.Equal(t, "deepseek-coder", aliases.Resolve("fast"))
}

func TestListAliasesReturnsCopy(t *testing.T) {
	aliases := DefaultAliases()
	list := aliases.ListAliases()
	list["fast"] = "changed"
	assert.Equal(t, "openai-gpt-3.5-turbo", aliases.Resolve("fast"))
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	writeFile(t, path, "aliases:\n  coder: deepseek-coder\n")

	aliases, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder", aliases.Resolve("coder"))
	assert.Equal(t, []string{"coder"}, aliases.Names())
}

func TestLoadAliasesWithFallback(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	aliases, err := LoadAliasesWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAliases().ListAliases(), aliases.ListAliases())

	defaultPath := filepath.Join(t.TempDir(), "aliases.yaml")
	writeFile(t, defaultPath, "aliases:\n  a: openai-gpt-4o\n")
	aliases, err = LoadAliasesWithFallback(defaultPath)
	require.NoError(t, err)
	assert.Equal(t, "openai-gpt-4o", aliases.Resolve("a"))

	writeFile(t, filepath.Join(home, configDirName, "aliases.yaml"), "aliases:\n  b: local-mistral-7b\n")
	aliases, err = LoadAliasesWithFallback(defaultPath)
	require.NoError(t, err)
	assert.Equal(t, "local-mistral-7b", aliases.Resolve("b"))
	assert.False(t, aliases.IsAlias("a"))
}

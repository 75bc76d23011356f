package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/routegate/pkg/models"
)

// ModelAliases maps short names to registry model ids.
type ModelAliases struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads model aliases from a YAML file.
func LoadAliases(path string) (*ModelAliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var aliases ModelAliases
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, err
	}
	if aliases.Aliases == nil {
		aliases.Aliases = make(map[string]string)
	}
	return &aliases, nil
}

// LoadAliasesWithFallback loads ~/.routegate/aliases.yaml, then defaultPath,
// and finally returns DefaultAliases when neither exists.
func LoadAliasesWithFallback(defaultPath string) (*ModelAliases, error) {
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, configDirName, "aliases.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return LoadAliases(userPath)
		}
	}

	if defaultPath != "" {
		if _, err := os.Stat(defaultPath); err == nil {
			return LoadAliases(defaultPath)
		}
	}

	return DefaultAliases(), nil
}

// Resolve returns the model id for an alias.
// If the input is not an alias, it returns the input unchanged.
func (a *ModelAliases) Resolve(modelOrAlias string) string {
	if a == nil || a.Aliases == nil {
		return modelOrAlias
	}
	if id, ok := a.Aliases[modelOrAlias]; ok {
		return id
	}
	return modelOrAlias
}

// IsAlias returns true if the given string is a known alias.
func (a *ModelAliases) IsAlias(name string) bool {
	if a == nil || a.Aliases == nil {
		return false
	}
	_, ok := a.Aliases[name]
	return ok
}

// Merge adds extra aliases, overriding existing names.
func (a *ModelAliases) Merge(extra map[string]string) {
	if a.Aliases == nil {
		a.Aliases = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		a.Aliases[k] = v
	}
}

// ListAliases returns a copy of the aliases map.
func (a *ModelAliases) ListAliases() map[string]string {
	if a == nil || a.Aliases == nil {
		return make(map[string]string)
	}
	result := make(map[string]string, len(a.Aliases))
	for k, v := range a.Aliases {
		result[k] = v
	}
	return result
}

// Names returns the sorted alias names.
func (a *ModelAliases) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Aliases))
	for name := range a.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports every alias whose target is not in registry, in alias
// name order.
func (a *ModelAliases) Validate(registry *models.Registry) []error {
	if a == nil || registry == nil {
		return nil
	}

	var errs []error
	for _, name := range a.Names() {
		target := a.Aliases[name]
		if _, ok := registry.Get(target); !ok {
			errs = append(errs, fmt.Errorf("alias %q: model %q not in registry", name, target))
		}
	}
	return errs
}

// DefaultAliases returns aliases for the built-in catalog.
func DefaultAliases() *ModelAliases {
	return &ModelAliases{
		Aliases: map[string]string{
			"local":   "local-mistral-7b",
			"private": "local-mistral-7b",
			"fast":    "openai-gpt-3.5-turbo",
			"cheap":   "openai-gpt-3.5-turbo",
			"code":    "deepseek-coder",
			"quality": "anthropic-claude-3-sonnet",
			"writer":  "anthropic-claude-3-sonnet",
			"premium": "openai-gpt-4o",
			"deep":    "openai-gpt-4o",
		},
	}
}

package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectArtifact asks the operator which of several same-named artifacts to use
func (s *SelectorAdapter) SelectArtifact(ctx context.Context, name string, candidates []*models.Artifact) (*models.Artifact, error) {
	if len(candidates) == 0 {
		return nil, domain.ArtifactNotFoundErr{Name: name}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	// Without a terminal the choice must be made explicit with source:Name
	if s.config.NonInteractive {
		paths := make([]string, len(candidates))
		for i, c := range candidates {
			paths[i] = c.Path
		}
		return nil, domain.AmbiguousArtifactErr{Name: name, Paths: paths}
	}

	options := formatArtifactOptions(candidates)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             fmt.Sprintf("Multiple artifacts named %s", name),
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return candidates[index], nil
}

// formatArtifactOptions renders "Name (source) path"
func formatArtifactOptions(candidates []*models.Artifact) []string {
	options := make([]string, len(candidates))
	for i, a := range candidates {
		name := color.New(color.FgWhite, color.Bold).Sprint(a.ContractName)
		source := color.New(color.FgBlue).Sprint(a.SourceName)
		options[i] = fmt.Sprintf("%s (%s) %s", name, source, a.Path)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

var _ usecase.ArtifactSelector = (*SelectorAdapter)(nil)

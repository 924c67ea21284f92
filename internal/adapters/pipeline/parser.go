package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Parser loads pipeline definitions from YAML files
type Parser struct {
	projectRoot string
}

// NewParser creates a new pipeline parser. Relative paths resolve against the project root.
func NewParser(cfg *config.RuntimeConfig) *Parser {
	return &Parser{projectRoot: cfg.ProjectRoot}
}

// Load parses and validates the pipeline at path
func (p *Parser) Load(ctx context.Context, path string) (*domain.PipelineConfig, error) {
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil && p.projectRoot != "" {
			path = filepath.Join(p.projectRoot, path)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	pipeline, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if pipeline.Name == "" {
		pipeline.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return pipeline, nil
}

// Parse parses a pipeline definition from YAML data. Unknown fields are rejected.
func (p *Parser) Parse(data []byte) (*domain.PipelineConfig, error) {
	var pipeline domain.PipelineConfig

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pipeline); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}

	return &pipeline, nil
}

var _ usecase.PipelineLoader = (*Parser)(nil)

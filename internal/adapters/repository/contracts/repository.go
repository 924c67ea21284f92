package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

const maxSuggestions = 3

// Repository indexes compiled artifacts from Hardhat and Foundry output directories
type Repository struct {
	projectRoot string
	dirs        []string
	selector    usecase.ArtifactSelector
	log         *slog.Logger

	mu        sync.RWMutex
	indexed   bool
	artifacts map[string][]*models.Artifact // key: contract name
	full      map[string]*models.Artifact   // key: "sourceName:contractName"
}

// NewRepository creates a repository over the configured artifact directories
func NewRepository(cfg *config.RuntimeConfig, selector usecase.ArtifactSelector, log *slog.Logger) *Repository {
	dirs := config.DefaultArtifactsDirs
	if cfg.ProjectConfig != nil && len(cfg.ProjectConfig.ArtifactsDirs) > 0 {
		dirs = cfg.ProjectConfig.ArtifactsDirs
	}
	return &Repository{
		projectRoot: cfg.ProjectRoot,
		dirs:        dirs,
		selector:    selector,
		log:         log.With("component", "artifacts"),
	}
}

// Index walks the artifact directories once
func (r *Repository) Index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	r.artifacts = make(map[string][]*models.Artifact)
	r.full = make(map[string]*models.Artifact)

	for _, dir := range r.dirs {
		root := dir
		if !filepath.IsAbs(root) {
			root = filepath.Join(r.projectRoot, dir)
		}
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "build-info" {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
				return nil
			}
			r.processArtifact(path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to index artifacts in %s: %w", dir, err)
		}
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "contracts", len(r.artifacts))
	return nil
}

// processArtifact adds a single artifact file to the index. Files that are not
// contract artifacts are skipped.
func (r *Repository) processArtifact(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Debug("skipping unreadable artifact", "path", path, "error", err)
		return
	}

	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil || len(artifact.ABI) == 0 {
		return
	}

	// Foundry artifacts carry no contractName: out/Foo.sol/Foo.json
	if artifact.ContractName == "" {
		artifact.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if artifact.SourceName == "" {
		artifact.SourceName = filepath.Base(filepath.Dir(path))
	}

	if rel, err := filepath.Rel(r.projectRoot, path); err == nil {
		artifact.Path = rel
	} else {
		artifact.Path = path
	}

	r.artifacts[artifact.ContractName] = append(r.artifacts[artifact.ContractName], &artifact)
	r.full[artifact.SourceName+":"+artifact.ContractName] = &artifact
}

// GetArtifact returns the artifact for a contract name or "source:Name" key
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if err := r.Index(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	if artifact, ok := r.full[name]; ok {
		r.mu.RUnlock()
		return artifact, nil
	}
	candidates := r.artifacts[name]
	r.mu.RUnlock()

	switch len(candidates) {
	case 0:
		return nil, domain.ArtifactNotFoundErr{Name: name, Suggestions: r.suggest(name)}
	case 1:
		return candidates[0], nil
	}

	// Prefer the only deployable candidate over interfaces and abstract contracts
	deployable := lo.Filter(candidates, func(a *models.Artifact, _ int) bool {
		_, err := a.CreationCode()
		return err == nil
	})
	if len(deployable) == 1 {
		return deployable[0], nil
	}
	if len(deployable) > 1 {
		candidates = deployable
	}

	if r.selector != nil {
		return r.selector.SelectArtifact(ctx, name, candidates)
	}
	return nil, domain.AmbiguousArtifactErr{
		Name:  name,
		Paths: lo.Map(candidates, func(a *models.Artifact, _ int) string { return a.Path }),
	}
}

// ListArtifacts returns the indexed contract names
func (r *Repository) ListArtifacts(ctx context.Context) []string {
	if err := r.Index(); err != nil {
		r.log.Warn("failed to index artifacts", "error", err)
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Keys(r.artifacts)
	sort.Strings(names)
	return names
}

func (r *Repository) suggest(name string) []string {
	r.mu.RLock()
	names := lo.Keys(r.artifacts)
	r.mu.RUnlock()
	sort.Strings(names)

	matches := fuzzy.Find(name, names)
	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}

	// Fall back to case-insensitive equality, which fuzzy ordering may miss
	if len(suggestions) == 0 {
		for _, n := range names {
			if strings.EqualFold(n, name) {
				suggestions = append(suggestions, n)
			}
		}
	}
	return suggestions
}

var _ usecase.ArtifactRepository = (*Repository)(nil)

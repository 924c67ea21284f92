package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// StepAction names the orchestrator operation a pipeline step maps to
type StepAction string

const (
	ActionDeployProxy StepAction = "deploy-proxy"
	ActionDeploy      StepAction = "deploy"
	ActionAttach      StepAction = "attach"
	ActionCall        StepAction = "call"
	ActionWire        StepAction = "wire"
	ActionMint        StepAction = "mint"
)

// SignerRef expands to the address of the active signer
const SignerRef = "${signer}"

// stepRefPattern matches ${Step.address} references
var stepRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_-]*)\.address\}`)

// PipelineConfig represents a pipeline definition file
type PipelineConfig struct {
	Name  string                 `yaml:"name"`
	Steps map[string]*StepConfig `yaml:"steps"`
}

// StepConfig represents a single step of a pipeline
type StepConfig struct {
	Action   StepAction `yaml:"action"`
	Contract string     `yaml:"contract,omitempty"`
	Label    string     `yaml:"label,omitempty"`
	Target   string     `yaml:"target,omitempty"` // address, ${Step.address} or address book label
	Method   string     `yaml:"method,omitempty"`
	Args     []string   `yaml:"args,omitempty"` // constructor args for deploys, call args otherwise
	Init     []string   `yaml:"init,omitempty"` // initializer args for deploy-proxy
	Deps     []string   `yaml:"deps,omitempty"`
}

// PipelineStep is a step in execution order
type PipelineStep struct {
	Name string
	*StepConfig
}

// ExecutionPlan represents the linearized pipeline
type ExecutionPlan struct {
	Name  string
	Steps []*PipelineStep
}

// StepReferences returns the step names referenced through ${Step.address} in the values
func StepReferences(values ...string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, m := range stepRefPattern.FindAllStringSubmatch(v, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				refs = append(refs, m[1])
			}
		}
	}
	return refs
}

// ExpandReferences replaces ${Step.address} and ${signer} in value using resolve
func ExpandReferences(value string, signer string, resolve func(step string) (string, bool)) (string, error) {
	var missing []string
	out := stepRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		step := stepRefPattern.FindStringSubmatch(match)[1]
		addr, ok := resolve(step)
		if !ok {
			missing = append(missing, step)
			return match
		}
		return addr
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved reference to step %s", strings.Join(missing, ", "))
	}
	return strings.ReplaceAll(out, SignerRef, signer), nil
}

func (s *StepConfig) values() []string {
	values := []string{s.Target}
	values = append(values, s.Args...)
	values = append(values, s.Init...)
	return values
}

// Validate checks step fields and that every reference is a declared dependency
func (c *PipelineConfig) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("pipeline has no steps")
	}

	names := make([]string, 0, len(c.Steps))
	for name := range c.Steps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		step := c.Steps[name]
		if step == nil {
			return fmt.Errorf("step '%s' is empty", name)
		}
		if err := step.validate(); err != nil {
			return fmt.Errorf("step '%s': %w", name, err)
		}

		deps := make(map[string]bool, len(step.Deps))
		for _, dep := range step.Deps {
			if dep == name {
				return fmt.Errorf("step '%s' depends on itself", name)
			}
			if _, exists := c.Steps[dep]; !exists {
				return fmt.Errorf("step '%s' depends on non-existent step '%s'", name, dep)
			}
			deps[dep] = true
		}

		for _, ref := range StepReferences(step.values()...) {
			if !deps[ref] {
				return fmt.Errorf("step '%s' references %s.address but does not declare it in deps", name, ref)
			}
		}
	}

	return nil
}

func (s *StepConfig) validate() error {
	switch s.Action {
	case ActionDeployProxy, ActionDeploy:
		if s.Contract == "" {
			return fmt.Errorf("%s requires a contract", s.Action)
		}
	case ActionAttach:
		if s.Contract == "" || s.Target == "" {
			return fmt.Errorf("attach requires a contract and a target")
		}
	case ActionCall:
		if s.Contract == "" || s.Target == "" || s.Method == "" {
			return fmt.Errorf("call requires a contract, a target and a method")
		}
	case ActionWire:
		if s.Target == "" || len(s.Args) != 1 {
			return fmt.Errorf("wire requires a vault target and exactly one order book argument")
		}
	case ActionMint:
		if s.Target == "" || len(s.Args) != 2 {
			return fmt.Errorf("mint requires a token target and recipient, token id arguments")
		}
	case "":
		return fmt.Errorf("missing action")
	default:
		return fmt.Errorf("unknown action '%s'", s.Action)
	}
	return nil
}

// TopologicalSort orders the steps so that every step runs after its deps.
// Ties are broken by name for deterministic output.
func (c *PipelineConfig) TopologicalSort() (*ExecutionPlan, error) {
	inDegree := make(map[string]int, len(c.Steps))
	edges := make(map[string][]string)
	for name, step := range c.Steps {
		inDegree[name] += 0
		for _, dep := range step.Deps {
			if _, exists := c.Steps[dep]; !exists {
				return nil, fmt.Errorf("step '%s' depends on non-existent step '%s'", name, dep)
			}
			inDegree[name]++
			edges[dep] = append(edges[dep], name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	plan := &ExecutionPlan{Name: c.Name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		plan.Steps = append(plan.Steps, &PipelineStep{Name: current, StepConfig: c.Steps[current]})

		dependents := edges[current]
		sort.Strings(dependents)
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(plan.Steps) != len(c.Steps) {
		var cycle []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, fmt.Errorf("circular dependency detected involving steps: %v", cycle)
	}

	return plan, nil
}

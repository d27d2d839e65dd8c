package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-looper/engine"
	"github.com/ethereum-optimism/infra/op-looper/types"
)

// BodyBuilder turns an example configuration into a runnable body
type BodyBuilder func(cfg types.ExampleConfig) engine.Body

// Registry loads a command suite and turns it into engine groups
type Registry struct {
	config Config
	suite  *types.SuiteConfig
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log       log.Logger
	SuiteFile string
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.SuiteFile == "" {
		return nil, fmt.Errorf("suite file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}

	if err := r.loadSuite(cfg.SuiteFile); err != nil {
		return nil, fmt.Errorf("failed to load suite: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "groups", len(r.suite.Groups), "examples", r.ExampleCount())

	return r, nil
}

func (r *Registry) loadSuite(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	suite, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := validateSuite(suite); err != nil {
		return fmt.Errorf("invalid suite: %w", err)
	}

	r.suite = suite
	return nil
}

// validateSuite rejects suites that cannot be run
func validateSuite(suite *types.SuiteConfig) error {
	if len(suite.Groups) == 0 {
		return fmt.Errorf("suite declares no groups")
	}
	if suite.DefaultLoopCount < 0 {
		return fmt.Errorf("default_loop_count must not be negative, got %d", suite.DefaultLoopCount)
	}
	for i := range suite.Groups {
		if err := validateGroup(&suite.Groups[i], fmt.Sprintf("groups[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateGroup(g *types.GroupConfig, path string) error {
	if g.Description == "" {
		return fmt.Errorf("%s: description is required", path)
	}
	if g.Loop < 0 {
		return fmt.Errorf("%s: loop must not be negative, got %d", path, g.Loop)
	}
	for i, ex := range g.Examples {
		exPath := fmt.Sprintf("%s.examples[%d]", path, i)
		if ex.Description == "" {
			return fmt.Errorf("%s: description is required", exPath)
		}
		if ex.Run == "" && ex.Pending == "" && !ex.IsSkipped() {
			return fmt.Errorf("%s (%s): run is required", exPath, ex.Description)
		}
		if ex.Loop < 0 {
			return fmt.Errorf("%s (%s): loop must not be negative, got %d", exPath, ex.Description, ex.Loop)
		}
		if ex.Timeout != nil && *ex.Timeout < 0 {
			return fmt.Errorf("%s (%s): timeout must not be negative", exPath, ex.Description)
		}
	}
	for i := range g.Groups {
		if err := validateGroup(&g.Groups[i], fmt.Sprintf("%s.groups[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// GetSuite returns the loaded suite
func (r *Registry) GetSuite() *types.SuiteConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suite
}

// DefaultLoopCount is the suite-level loop count, zero when unset
func (r *Registry) DefaultLoopCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suite.DefaultLoopCount
}

// ExampleCount counts the examples declared in the suite
func (r *Registry) ExampleCount() int {
	var count func(groups []types.GroupConfig) int
	count = func(groups []types.GroupConfig) int {
		n := 0
		for _, g := range groups {
			n += len(g.Examples) + count(g.Groups)
		}
		return n
	}
	return count(r.suite.Groups)
}

// BuildGroups creates a fresh set of engine groups for one run
func (r *Registry) BuildGroups(build BodyBuilder) []*engine.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]*engine.Group, 0, len(r.suite.Groups))
	for _, gc := range r.suite.Groups {
		g := engine.Describe(gc.Description, groupOptions(gc)...)
		addGroup(g, gc, build)
		groups = append(groups, g)
	}
	engine.Number(groups...)
	return groups
}

func addGroup(g *engine.Group, gc types.GroupConfig, build BodyBuilder) {
	for _, ec := range gc.Examples {
		var opts []engine.Option
		if ec.Loop > 0 {
			opts = append(opts, engine.WithLoop(ec.Loop))
		}
		if ec.IsSkipped() {
			opts = append(opts, engine.WithSkip(ec.Skip))
		}
		g.It(ec.Description, build(ec), opts...)
	}
	for _, child := range gc.Groups {
		addGroup(g.Describe(child.Description, groupOptions(child)...), child, build)
	}
}

func groupOptions(gc types.GroupConfig) []engine.Option {
	if gc.Loop > 0 {
		return []engine.Option{engine.WithLoop(gc.Loop)}
	}
	return nil
}

// loadConfig loads a suite config from a file
func loadConfig(path string) (*types.SuiteConfig, error) {
	log.Debug("Reading suite file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var cfg types.SuiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing suite file: %w", err)
	}

	return &cfg, nil
}

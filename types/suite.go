package types

import "time"

// SuiteConfig is the on-disk description of a command suite
type SuiteConfig struct {
	DefaultLoopCount int           `yaml:"default_loop_count,omitempty"`
	Groups           []GroupConfig `yaml:"groups"`
}

// GroupConfig describes a (possibly nested) group of examples
type GroupConfig struct {
	Description string          `yaml:"description"`
	Loop        int             `yaml:"loop,omitempty"`
	Examples    []ExampleConfig `yaml:"examples,omitempty"`
	Groups      []GroupConfig   `yaml:"groups,omitempty"`
}

// ExampleConfig describes one command example
type ExampleConfig struct {
	Description string         `yaml:"description"`
	Run         string         `yaml:"run"`
	Dir         string         `yaml:"dir,omitempty"`
	Loop        int            `yaml:"loop,omitempty"`
	Pending     string         `yaml:"pending,omitempty"`
	Skip        string         `yaml:"skip,omitempty"`
	Timeout     *time.Duration `yaml:"timeout,omitempty"`
}

// IsSkipped reports whether the example is skipped before it ever runs
func (e ExampleConfig) IsSkipped() bool {
	return e.Skip != ""
}

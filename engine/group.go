package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Group is an ordered, possibly nested, collection of examples
type Group struct {
	Description string
	Metadata    Metadata

	parent   *Group
	path     []int
	examples []*Example
	children []*Group
}

// Describe creates a top-level group. It is numbered 1 until Number places
// it among the other groups of a run.
func Describe(description string, opts ...Option) *Group {
	g := &Group{
		Description: description,
		path:        []int{1},
	}
	for _, opt := range opts {
		opt(&g.Metadata)
	}
	return g
}

// Describe creates a nested group. Loop and skip annotations are inherited.
func (g *Group) Describe(description string, opts ...Option) *Group {
	child := &Group{
		Description: description,
		parent:      g,
		path:        g.childPath(),
		Metadata: Metadata{
			Loop:        g.Metadata.Loop,
			Skip:        g.Metadata.Skip,
			SkipMessage: g.Metadata.SkipMessage,
		},
	}
	for _, opt := range opts {
		opt(&child.Metadata)
	}
	g.children = append(g.children, child)
	return child
}

// It declares an example in the group
func (g *Group) It(description string, body Body, opts ...Option) *Example {
	path := g.childPath()
	ex := &Example{
		ID:          formatID(path),
		position:    path[len(path)-1],
		Description: description,
		group:       g,
		body:        body,
		Metadata: Metadata{
			Loop:        g.Metadata.Loop,
			Skip:        g.Metadata.Skip,
			SkipMessage: g.Metadata.SkipMessage,
		},
	}
	for _, opt := range opts {
		opt(&ex.Metadata)
	}
	g.examples = append(g.examples, ex)
	return ex
}

// XIt declares an example that is skipped without running
func (g *Group) XIt(description string, body Body, opts ...Option) *Example {
	return g.It(description, body, append(opts, WithSkip(XItMessage))...)
}

// Examples returns the examples declared directly in the group
func (g *Group) Examples() []*Example {
	return g.examples
}

// Children returns the nested groups
func (g *Group) Children() []*Group {
	return g.children
}

// Parent returns the enclosing group, nil for top-level groups
func (g *Group) Parent() *Group {
	return g.parent
}

// Depth is zero for top-level groups
func (g *Group) Depth() int {
	return len(g.path) - 1
}

// ExampleCount counts the examples of the group and all nested groups
func (g *Group) ExampleCount() int {
	n := len(g.examples)
	for _, child := range g.children {
		n += child.ExampleCount()
	}
	return n
}

// Number assigns IDs to top-level groups by their position in groups, so the
// same declarations always get the same IDs.
func Number(groups ...*Group) {
	for i, g := range groups {
		g.renumber([]int{i + 1})
	}
}

func (g *Group) renumber(path []int) {
	g.path = path
	for _, ex := range g.examples {
		ex.ID = formatID(g.pathTo(ex.position))
	}
	for _, child := range g.children {
		child.renumber(g.pathTo(child.path[len(child.path)-1]))
	}
}

func (g *Group) pathTo(position int) []int {
	path := make([]int, len(g.path), len(g.path)+1)
	copy(path, g.path)
	return append(path, position)
}

// childPath allocates the position of the next example or group
func (g *Group) childPath() []int {
	return g.pathTo(len(g.examples) + len(g.children) + 1)
}

func formatID(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ":"))
}

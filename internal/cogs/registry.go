package cogs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/audiotag/internal/shared"
)

// Entry is one step of a built pipeline: a single cog, or the members
// of a fallback group ordered by priority.
type Entry struct {
	Name string
	Cogs []Cog
}

// Provides returns the union of the entry members' provided tags.
func (e Entry) Provides() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range e.Cogs {
		for _, tag := range c.Provides() {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

type member struct {
	cog      Cog
	priority int
	order    int
}

type node struct {
	name    string
	members []member
	order   int
}

// needs returns the tags every member requires. A fallback group can
// run as long as any member can, so only needs shared by all members
// gate the group.
func (n *node) needs() []string {
	if len(n.members) == 0 {
		return nil
	}

	counts := map[string]int{}
	var order []string
	for _, m := range n.members {
		for _, tag := range m.cog.Needs() {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	var out []string
	for _, tag := range order {
		if counts[tag] == len(n.members) {
			out = append(out, tag)
		}
	}
	return out
}

func (n *node) provides() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range n.members {
		for _, tag := range m.cog.Provides() {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

// Registry holds the available cogs and builds pipelines from them.
type Registry struct {
	nodes map[string]*node
	order []string
}

// NewRegistry creates an empty cog registry.
func NewRegistry() *Registry {
	return &Registry{nodes: map[string]*node{}}
}

// Register adds a standalone cog under its own name.
func (r *Registry) Register(c Cog) {
	r.add(c.Name(), 0, c)
}

// RegisterFallback adds a cog to a named fallback group. Lower
// priorities are tried first; a member succeeding skips the rest.
func (r *Registry) RegisterFallback(group string, priority int, c Cog) {
	r.add(group, priority, c)
}

func (r *Registry) add(name string, priority int, c Cog) {
	n, ok := r.nodes[name]
	if !ok {
		n = &node{name: name, order: len(r.order)}
		r.nodes[name] = n
		r.order = append(r.order, name)
	}

	n.members = append(n.members, member{cog: c, priority: priority, order: len(n.members)})
	sort.SliceStable(n.members, func(i, j int) bool {
		return n.members[i].priority < n.members[j].priority
	})
}

// Names returns the registered step names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Build assembles a pipeline from the named steps, ordered so that
// every tag consumer runs after its producer. enabled nil or empty
// selects every registered step. seeded names tags that may already be
// present from the file itself; a needed tag with neither a seed nor a
// producer makes the pipeline unsatisfiable.
func (r *Registry) Build(enabled []string, seeded []string) ([]Entry, error) {
	if len(enabled) == 0 {
		enabled = r.order
	}

	selected := map[string]*node{}
	for _, name := range enabled {
		n, ok := r.nodes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", shared.ErrUnknownCog, name)
		}
		selected[name] = n
	}

	seededSet := map[string]bool{}
	for _, tag := range seeded {
		seededSet[tag] = true
	}

	producers := map[string]*node{}
	for _, name := range r.order {
		n, ok := selected[name]
		if !ok {
			continue
		}
		for _, tag := range n.provides() {
			if _, taken := producers[tag]; !taken {
				producers[tag] = n
			}
		}
	}

	// tag edges: producer -> consumer
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for _, name := range r.order {
		n, ok := selected[name]
		if !ok {
			continue
		}
		for _, tag := range n.needs() {
			producer, produced := producers[tag]
			if produced && producer != n {
				dependents[producer.name] = append(dependents[producer.name], name)
				indegree[name]++
				continue
			}
			if !seededSet[tag] && (!produced || producer == n) {
				return nil, fmt.Errorf("%w: cog %q needs tag %q and nothing provides it",
					shared.ErrPipelineUnsatisfiable, name, tag)
			}
		}
	}

	// Kahn's algorithm; the ready list follows registration order so
	// builds are deterministic.
	var ready []string
	for _, name := range r.order {
		if _, ok := selected[name]; ok && indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	var pipeline []Entry
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]

		n := selected[name]
		entry := Entry{Name: name}
		for _, m := range n.members {
			entry.Cogs = append(entry.Cogs, m.cog)
		}
		pipeline = append(pipeline, entry)

		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = insertInOrder(ready, dep, r.nodes)
			}
		}
	}

	if len(pipeline) != len(selected) {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: dependency cycle among %s",
			shared.ErrPipelineUnsatisfiable, strings.Join(stuck, ", "))
	}

	return pipeline, nil
}

func insertInOrder(ready []string, name string, nodes map[string]*node) []string {
	at := len(ready)
	for i, existing := range ready {
		if nodes[name].order < nodes[existing].order {
			at = i
			break
		}
	}

	ready = append(ready, "")
	copy(ready[at+1:], ready[at:])
	ready[at] = name
	return ready
}

// Package scheduler implements the topological, bounded-concurrency driver
// described in spec §4.4: given a target list of environment names and a
// live view of which ones have completed, it yields successive batches of
// environments that are safe to start right now.
package scheduler

import (
	"sort"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/errtax"
)

// DependencyScheduler is pull-based: it never blocks. If nothing is ready
// it returns an empty batch; the caller (Orchestrator) is responsible for
// waiting on completions between pulls (spec §4.4).
type DependencyScheduler struct {
	order    []string            // canonical topological order, stable by input order
	deps     map[string]map[string]struct{} // env -> in-universe deps only
	emitted  map[string]bool                // names already returned in a batch
}

// New builds a DependencyScheduler over the given environments, restricted
// to the envs named in toRun. Dependency edges that point outside the
// universe of envs are silently dropped (spec §3 invariant — "same
// treatment as completed"). Returns a *errtax.CycleError if the induced
// subgraph cannot be fully reduced.
func New(envs map[string]*envdesc.EnvDescriptor, toRun []string) (*DependencyScheduler, error) {
	universe := make(map[string]struct{}, len(envs))
	for name := range envs {
		universe[name] = struct{}{}
	}

	target := make(map[string]struct{}, len(toRun))
	for _, name := range toRun {
		target[name] = struct{}{}
	}

	// Restrict each env's dependency set to edges that land both inside
	// the overall universe AND inside the requested target set — an
	// env outside the run can never produce a RunResult, so depending on
	// it would deadlock forever; treat it exactly like an out-of-universe
	// edge and drop it.
	deps := make(map[string]map[string]struct{}, len(toRun))
	inputOrder := make(map[string]int, len(toRun))
	for i, name := range toRun {
		inputOrder[name] = i
		env, ok := envs[name]
		if !ok {
			return nil, &errtax.ConfigError{Reason: "unknown environment: " + name}
		}
		edges := make(map[string]struct{})
		for dep := range env.DependsOn {
			if _, inUniverse := universe[dep]; !inUniverse {
				continue
			}
			if _, inTarget := target[dep]; !inTarget {
				continue
			}
			edges[dep] = struct{}{}
		}
		deps[name] = edges
	}

	order, err := topoOrder(toRun, inputOrder, deps)
	if err != nil {
		return nil, err
	}

	return &DependencyScheduler{
		order:   order,
		deps:    deps,
		emitted: make(map[string]bool, len(toRun)),
	}, nil
}

// topoOrder computes a stable topological order (Kahn's algorithm) over
// names, tie-broken by each name's position in the original input list.
// Returns a *errtax.CycleError naming one unresolved member if the graph
// cannot be fully reduced.
func topoOrder(names []string, inputOrder map[string]int, deps map[string]map[string]struct{}) ([]string, error) {
	// dependents[d] = envs that list d as a dependency
	dependents := make(map[string][]string, len(names))
	indegree := make(map[string]int, len(names))
	for _, name := range names {
		indegree[name] = len(deps[name])
	}
	for _, name := range names {
		for dep := range deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}
	// Keep dependents lists in stable input order so repeated runs over
	// the same input are deterministic regardless of map iteration order.
	for dep, list := range dependents {
		sort.Slice(list, func(i, j int) bool { return inputOrder[list[i]] < inputOrder[list[j]] })
		dependents[dep] = list
	}

	f := newFrontier()
	for _, name := range names {
		if indegree[name] == 0 {
			f.push(name, inputOrder[name])
		}
	}

	order := make([]string, 0, len(names))
	for f.len() > 0 {
		name := f.popLowest()
		order = append(order, name)
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				f.push(dependent, inputOrder[dependent])
			}
		}
	}

	if len(order) != len(names) {
		for _, name := range names {
			if indegree[name] > 0 {
				return nil, &errtax.CycleError{Member: name}
			}
		}
	}
	return order, nil
}

// ReadyBatch returns every env in the topological order whose in-universe
// dependencies are all present in completed and that has not already been
// returned by a previous call. completed is read, never mutated. The
// returned slice is in stable topological/input order.
func (s *DependencyScheduler) ReadyBatch(completed map[string]struct{}) []string {
	var batch []string
	for _, name := range s.order {
		if s.emitted[name] {
			continue
		}
		if isSatisfied(s.deps[name], completed) {
			s.emitted[name] = true
			batch = append(batch, name)
		}
	}
	return batch
}

// Done reports whether every env in the schedule has been returned by
// ReadyBatch (used by the Orchestrator to decide when the queue portion
// of its loop is exhausted).
func (s *DependencyScheduler) Done() bool {
	return len(s.emitted) == len(s.order)
}

// Remaining returns the names not yet emitted, in topological order.
func (s *DependencyScheduler) Remaining() []string {
	var out []string
	for _, name := range s.order {
		if !s.emitted[name] {
			out = append(out, name)
		}
	}
	return out
}

// MarkEmitted forces name out of future ReadyBatch results without it
// having gone through the normal dependency check. The Orchestrator does
// not call it: on interrupt it still pulls each env through ReadyBatch and
// records a synthesized RunResult for it there.
func (s *DependencyScheduler) MarkEmitted(name string) {
	s.emitted[name] = true
}

func isSatisfied(deps map[string]struct{}, completed map[string]struct{}) bool {
	for dep := range deps {
		if _, ok := completed[dep]; !ok {
			return false
		}
	}
	return true
}

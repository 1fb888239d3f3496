package autoconfig

import (
	"fmt"
	"strings"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// resolveOrder sorts definitions so that every definition comes after the
// ones it depends on. Among definitions whose dependencies are satisfied,
// the one declared first goes first, so the result is deterministic.
func resolveOrder(defs []Definition) ([]Definition, error) {
	if len(defs) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return nil, autoerrors.NewConfigurationError(fmt.Sprintf("definition #%d has no name", i), "name")
		}
		if d.Type == "" {
			return nil, autoerrors.NewConfigurationError(fmt.Sprintf("definition %q has no type", d.Name), d.Name)
		}
		if d.Factory == nil {
			return nil, autoerrors.NewConfigurationError(fmt.Sprintf("definition %q has no factory", d.Name), d.Name)
		}
		if _, exists := index[d.Name]; exists {
			return nil, autoerrors.NewConfigurationError(fmt.Sprintf("duplicate definition name %q", d.Name), d.Name)
		}
		index[d.Name] = i
	}

	for _, d := range defs {
		for _, dep := range d.DependsOn {
			if _, exists := index[dep]; !exists {
				return nil, autoerrors.NewConfigurationError(
					fmt.Sprintf("definition %q depends on %q which is not declared", d.Name, dep), d.Name)
			}
		}
	}

	if err := validateNoCycles(defs, index); err != nil {
		return nil, err
	}

	return topologicalSort(defs, index), nil
}

// validateNoCycles runs a three-color DFS in declaration order.
func validateNoCycles(defs []Definition, index map[string]int) error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(defs))
	parent := make(map[string]string)

	var dfs func(i int) error
	dfs = func(i int) error {
		color[i] = gray
		node := defs[i].Name

		for _, dep := range defs[i].DependsOn {
			j := index[dep]
			switch color[j] {
			case gray:
				cycle := buildCyclePath(node, dep, parent)
				return autoerrors.NewConfigurationError("circular dependency: "+cycle, strings.Split(cycle, " -> ")[0])
			case white:
				parent[dep] = node
				if err := dfs(j); err != nil {
					return err
				}
			}
		}

		color[i] = black
		return nil
	}

	for i := range defs {
		if color[i] == white {
			if err := dfs(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCyclePath renders the cycle closed by the edge from -> to.
func buildCyclePath(from, to string, parent map[string]string) string {
	path := []string{to}
	for current := from; current != to && current != ""; current = parent[current] {
		path = append(path, current)
	}
	path = append(path, to)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return strings.Join(path, " -> ")
}

// topologicalSort is Kahn's algorithm picking the lowest declaration index
// among ready definitions. The graph is known to be acyclic.
func topologicalSort(defs []Definition, index map[string]int) []Definition {
	inDegree := make([]int, len(defs))
	dependents := make([][]int, len(defs))
	for i, d := range defs {
		for _, dep := range d.DependsOn {
			j := index[dep]
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	done := make([]bool, len(defs))
	result := make([]Definition, 0, len(defs))
	for len(result) < len(defs) {
		next := -1
		for i := range defs {
			if !done[i] && inDegree[i] == 0 {
				next = i
				break
			}
		}
		done[next] = true
		result = append(result, defs[next])
		for _, k := range dependents[next] {
			inDegree[k]--
		}
	}
	return result
}

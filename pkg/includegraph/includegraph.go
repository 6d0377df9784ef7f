// Package includegraph tracks ca65 .include edges between files as a
// directed graph with bidirectional adjacency, and computes the
// translation-unit closures the resolver walks.
package includegraph

// Graph holds includes/included-by adjacency for a workspace. Its
// maps are allocated by New; the zero value is not ready to use.
type Graph struct {
	includes   map[string]map[string]struct{}
	includedBy map[string]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		includes:   make(map[string]map[string]struct{}),
		includedBy: make(map[string]map[string]struct{}),
	}
}

func (g *Graph) ensure(file string) {
	if g.includes[file] == nil {
		g.includes[file] = make(map[string]struct{})
	}
	if g.includedBy[file] == nil {
		g.includedBy[file] = make(map[string]struct{})
	}
}

// UpdateIncludes atomically replaces file's outgoing include edges
// with newNeighbors, adjusting every affected inverse edge.
func (g *Graph) UpdateIncludes(file string, newNeighbors []string) {
	g.ensure(file)
	for old := range g.includes[file] {
		if back := g.includedBy[old]; back != nil {
			delete(back, file)
		}
	}
	g.includes[file] = make(map[string]struct{}, len(newNeighbors))
	for _, n := range newNeighbors {
		g.ensure(n)
		g.includes[file][n] = struct{}{}
		g.includedBy[n][file] = struct{}{}
	}
}

// RemoveFile clears every edge touching file in both directions.
func (g *Graph) RemoveFile(file string) {
	for n := range g.includes[file] {
		if back := g.includedBy[n]; back != nil {
			delete(back, file)
		}
	}
	for n := range g.includedBy[file] {
		if fwd := g.includes[n]; fwd != nil {
			delete(fwd, file)
		}
	}
	delete(g.includes, file)
	delete(g.includedBy, file)
}

// Includes returns file's direct outgoing include targets.
func (g *Graph) Includes(file string) []string {
	return setKeys(g.includes[file])
}

// IncludedBy returns the files that directly include file.
func (g *Graph) IncludedBy(file string) []string {
	return setKeys(g.includedBy[file])
}

// Descendants returns every file transitively reachable from file via
// includes edges (file itself excluded), via iterative DFS tolerant
// of cycles.
func (g *Graph) Descendants(file string) []string {
	return g.reachable(file, g.includes)
}

// Ancestors returns every file that transitively includes file (file
// itself excluded).
func (g *Graph) Ancestors(file string) []string {
	return g.reachable(file, g.includedBy)
}

func (g *Graph) reachable(start string, adj map[string]map[string]struct{}) []string {
	visited := map[string]struct{}{start: {}}
	var out []string
	stack := setKeys(adj[start])
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		out = append(out, n)
		stack = append(stack, setKeys(adj[n])...)
	}
	return out
}

// IsRoot reports whether file has no inbound include edges (or is
// unknown to the graph, which is root-like by definition).
func (g *Graph) IsRoot(file string) bool {
	return len(g.includedBy[file]) == 0
}

// Roots returns every ancestor root of file: files with no inbound
// edges that transitively include file. If file has no ancestors at
// all it is its own root.
func (g *Graph) Roots(file string) []string {
	ancestors := g.Ancestors(file)
	if len(ancestors) == 0 {
		return []string{file}
	}
	var roots []string
	for _, a := range ancestors {
		if g.IsRoot(a) {
			roots = append(roots, a)
		}
	}
	return roots
}

// TranslationUnit returns the deduplicated union of transitive
// descendants of every root ancestor of file, file itself always
// included.
func (g *Graph) TranslationUnit(file string) []string {
	seen := map[string]struct{}{file: {}}
	out := []string{file}
	for _, root := range g.Roots(file) {
		if _, ok := seen[root]; !ok {
			seen[root] = struct{}{}
			out = append(out, root)
		}
		for _, d := range g.Descendants(root) {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				out = append(out, d)
			}
		}
	}
	return out
}

func setKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

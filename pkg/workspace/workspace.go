// Package workspace discovers a workspace's source files and resolves
// the file path argument of `.include`/`.incbin` directives.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExtensions are the source extensions recognized absent any
// `additional-extensions` configuration (spec §6).
var defaultExtensions = []string{".s", ".asm", ".inc"}

// Discover walks every root in roots and returns every file whose
// extension is in extensions (defaultExtensions if nil), plus each
// file's assigned root: the deepest root among roots that contains
// it, so nested workspace roots don't double-count a file under both
// the outer and the inner root.
func Discover(roots []string, extensions []string) (files []string, rootOf map[string]string, err error) {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	extSet := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		extSet[e] = struct{}{}
	}

	sortedRoots := append([]string(nil), roots...)
	sort.Slice(sortedRoots, func(i, j int) bool { return len(sortedRoots[i]) > len(sortedRoots[j]) })

	rootOf = make(map[string]string)
	seen := make(map[string]struct{})

	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := extSet[filepath.Ext(path)]; !ok {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			files = append(files, path)
			rootOf[path] = deepestContainingRoot(path, sortedRoots)
			return nil
		})
		if walkErr != nil {
			return nil, nil, walkErr
		}
	}

	sort.Strings(files)
	return files, rootOf, nil
}

// deepestContainingRoot returns the longest root (by path length,
// roots pre-sorted longest-first) under which path lives.
func deepestContainingRoot(path string, sortedRoots []string) string {
	for _, root := range sortedRoots {
		if rel, err := filepath.Rel(root, path); err == nil && rel != ".." && rel[0] != '.' {
			return root
		}
	}
	if len(sortedRoots) > 0 {
		return sortedRoots[len(sortedRoots)-1]
	}
	return ""
}

// ResolveInclude resolves the literal path argument of a `.include`
// (binary=false) or `.incbin` (binary=true) directive in
// containingFile: first against containingFile's own directory, then
// against includeDirs/binIncludeDirs (each may be a glob pattern,
// expanded relative to workspaceRoot). The first candidate that
// already names a known source wins over a cold filesystem probe; the
// first candidate that exists on disk wins otherwise.
func ResolveInclude(containingFile, includePath, workspaceRoot string, includeDirs, binIncludeDirs []string, binary bool, knownSources map[string]struct{}) (string, bool) {
	candidates := candidatePaths(containingFile, includePath, workspaceRoot, includeDirs, binIncludeDirs, binary)

	for _, c := range candidates {
		if _, known := knownSources[c]; known {
			return c, true
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, true
		}
	}
	return "", false
}

func candidatePaths(containingFile, includePath, workspaceRoot string, includeDirs, binIncludeDirs []string, binary bool) []string {
	var out []string

	out = append(out, filepath.Join(filepath.Dir(containingFile), includePath))

	dirs := includeDirs
	if binary {
		dirs = binIncludeDirs
	}
	for _, pattern := range dirs {
		base := pattern
		if !filepath.IsAbs(pattern) {
			base = filepath.Join(workspaceRoot, pattern)
		}
		matches, err := doublestar.FilepathGlob(base)
		if err != nil || len(matches) == 0 {
			out = append(out, filepath.Join(base, includePath))
			continue
		}
		for _, m := range matches {
			out = append(out, filepath.Join(m, includePath))
		}
	}

	return out
}

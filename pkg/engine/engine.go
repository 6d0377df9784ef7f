// Package engine is the orchestrator: it owns every piece of shared
// state (spec §5) and drives the two-pass initialization, edit,
// deletion, and configuration-change sequences of spec §4.10.
//
// Engine is not safe for concurrent calls — the single-threaded
// cooperative model requires callers to serialize edits per file (a
// later edit's integration begins only after the earlier edit's
// integration completes). Query adapters (pkg/query.Service) do not
// change the tables, graph or exports map, but they fill the
// resolver's memo caches, which are not safe for concurrent use, so
// adapter calls must be serialized as well and must first await
// Gate().
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ca65lsp/ca65lsp/pkg/config"
	"github.com/ca65lsp/ca65lsp/pkg/diagnostics"
	"github.com/ca65lsp/ca65lsp/pkg/exports"
	"github.com/ca65lsp/ca65lsp/pkg/filecache"
	"github.com/ca65lsp/ca65lsp/pkg/includegraph"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/query"
	"github.com/ca65lsp/ca65lsp/pkg/resolver"
	"github.com/ca65lsp/ca65lsp/pkg/scanner"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
	"github.com/ca65lsp/ca65lsp/pkg/workspace"
)

// defaultDebounce is the delay between an edit's integration and the
// background diagnostic run it schedules.
const defaultDebounce = 250 * time.Millisecond

// Engine owns the symbol-table map, includes graph, exports map,
// resolver, and per-document settings cache, and is the sole writer
// of all of them.
type Engine struct {
	roots []string

	tables  map[string]*symtab.Table
	graph   *includegraph.Graph
	exports *exports.Map

	resolver *resolver.Resolver
	files    *filecache.Cache
	settings *config.Cache
	query    *query.Service

	runner   diagnostics.Runner
	debounce time.Duration

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
	abortFuncs     map[string]context.CancelFunc

	gate     chan struct{}
	gateOnce sync.Once

	logger *slog.Logger

	// OnDiagnostics receives a background diagnostic run's results
	// keyed by URI, once the run completes without being aborted.
	// nil is a valid no-op subscriber.
	OnDiagnostics func(results map[string][]diagnostics.Diagnostic)

	// implicitImports mirrors Default().ImplicitImports until a
	// configuration change updates it.
	implicitImports bool
}

// New builds an Engine over workspace roots, ready for Init.
func New(roots []string, runner diagnostics.Runner, logger *slog.Logger) *Engine {
	if runner == nil {
		runner = diagnostics.NopRunner{}
	}
	e := &Engine{
		roots:          roots,
		tables:         make(map[string]*symtab.Table),
		graph:          includegraph.New(),
		exports:        exports.New(),
		files:          filecache.New(),
		settings:       config.NewCache(),
		runner:         runner,
		debounce:       defaultDebounce,
		debounceTimers: make(map[string]*time.Timer),
		abortFuncs:     make(map[string]context.CancelFunc),
		gate:           make(chan struct{}),
		logger:         logger,
	}
	e.resolver = resolver.New(e, e.graph, e.exports)
	e.query = query.New(e, e.graph, e.exports, e.resolver, e.files, e.implicitImports)
	return e
}

// Table implements query.Workspace and resolver.Tables.
func (e *Engine) Table(uri string) (*symtab.Table, bool) {
	t, ok := e.tables[uri]
	return t, ok
}

// URIs implements query.Workspace.
func (e *Engine) URIs() []string {
	out := make([]string, 0, len(e.tables))
	for uri := range e.tables {
		out = append(out, uri)
	}
	return out
}

// Query returns the read-only adapter service. Callers must await
// Gate() before calling any of its methods.
func (e *Engine) Query() *query.Service { return e.query }

// Gate returns the channel closed once initialization completes.
func (e *Engine) Gate() <-chan struct{} { return e.gate }

// Init performs the two-pass initialization (spec §4.10): discover
// every workspace source file, build an empty table for each (first
// pass), then scan and integrate every file (second pass, scans
// parallelized across a worker pool since scanning uses no
// cross-file state). The gate opens once every file is integrated.
func (e *Engine) Init(ctx context.Context, extensions []string) error {
	files, _, err := workspace.Discover(e.roots, extensions)
	if err != nil {
		return err
	}

	for _, f := range files {
		e.tables[f] = symtab.New(f)
	}

	pool := newScanPool(0, e.files, e.logger)
	pool.start()

	go func() {
		for _, f := range files {
			pool.submit(f)
		}
		pool.finishSubmitting()
	}()

	for i := 0; i < len(files); i++ {
		select {
		case <-ctx.Done():
			pool.wait()
			return ctx.Err()
		case res := <-pool.Results():
			if res.err != nil {
				if e.logger != nil {
					e.logger.Warn("failed to scan file during init", "file", res.uri, "error", res.err)
				}
				continue
			}
			e.integrate(res.uri, res.table)
		}
	}
	pool.wait()

	e.gateOnce.Do(func() { close(e.gate) })
	return nil
}

// integrate stores tbl as uri's table and folds its includes/exports
// into the shared graph and exports map. Must run on the
// state-owning goroutine.
func (e *Engine) integrate(uri string, tbl *symtab.Table) {
	e.tables[uri] = tbl

	known := make(map[string]struct{}, len(e.tables))
	for f := range e.tables {
		known[f] = struct{}{}
	}

	settings, ok := e.settings.Get(uri)
	if !ok {
		settings = config.Default()
	}
	root := e.rootFor(uri)

	var resolved []string
	for _, raw := range tbl.RawIncludes {
		if target, ok := workspace.ResolveInclude(uri, raw, root, settings.IncludeDirs, settings.BinIncludeDirs, false, known); ok {
			resolved = append(resolved, target)
		}
	}
	e.graph.UpdateIncludes(uri, resolved)

	var entries []exports.Entry
	for _, ent := range tbl.Entities() {
		if ent.Kind != model.EntityExport {
			continue
		}
		entries = append(entries, exports.Entry{Name: ent.Name, File: uri, Entity: ent.ID, EnclosingScope: ent.Scope})
	}
	e.exports.UpdateExports(uri, entries)
}

func (e *Engine) rootFor(uri string) string {
	best := ""
	for _, r := range e.roots {
		if len(r) > len(best) && len(uri) >= len(r) && uri[:len(r)] == r {
			best = r
		}
	}
	return best
}

// HandleEdit integrates a content change to file uri (spec §4.10):
// abort any in-flight diagnostic for uri, compute the pre-edit
// closure, rescan, integrate, compute the post-edit closure,
// invalidate memoized resolutions across the union, then schedule a
// debounced diagnostic run.
func (e *Engine) HandleEdit(uri string, newText string) {
	e.abortInFlight(uri)

	preClosure := e.graph.TranslationUnit(uri)

	e.files.Invalidate(uri)
	tbl := scanner.Scan(uri, splitLinesKeepEnds(newText))
	e.integrate(uri, tbl)

	postClosure := e.graph.TranslationUnit(uri)

	invalidated := make(map[string]struct{}, len(preClosure)+len(postClosure))
	for _, f := range preClosure {
		invalidated[f] = struct{}{}
	}
	for _, f := range postClosure {
		invalidated[f] = struct{}{}
	}
	for f := range invalidated {
		e.resolver.InvalidateFile(f)
	}

	e.scheduleDiagnostics(uri)
}

// HandleDelete removes a watched file entirely (spec §4.10):
// invalidate its closure, then drop it from every shared structure.
func (e *Engine) HandleDelete(uri string) {
	e.abortInFlight(uri)

	closure := e.graph.TranslationUnit(uri)
	for _, f := range closure {
		e.resolver.InvalidateFile(f)
	}

	delete(e.tables, uri)
	e.graph.RemoveFile(uri)
	e.exports.RemoveFile(uri)
	e.files.Invalidate(uri)

	e.debounceMu.Lock()
	if t, ok := e.debounceTimers[uri]; ok {
		t.Stop()
		delete(e.debounceTimers, uri)
	}
	e.debounceMu.Unlock()
}

// HandleConfigChange implements spec §4.10's configuration-change
// sequence: clear the per-document settings cache and re-issue every
// diagnostic trigger. Inlay-hint refresh is the caller's (LSP
// transport's) responsibility to request from its client; Engine has
// no client connection of its own.
func (e *Engine) HandleConfigChange() {
	e.settings.Clear()
	for uri := range e.tables {
		e.scheduleDiagnostics(uri)
	}
}

// SetSettings records uri's observed settings, consulted by the next
// integrate/diagnostic run for that file.
func (e *Engine) SetSettings(uri string, s config.Settings) {
	e.settings.Set(uri, s)
	if uri == "" {
		e.implicitImports = s.ImplicitImports
		e.query.ImplicitImports = s.ImplicitImports
	}
}

func (e *Engine) abortInFlight(uri string) {
	e.debounceMu.Lock()
	defer e.debounceMu.Unlock()
	if t, ok := e.debounceTimers[uri]; ok {
		t.Stop()
		delete(e.debounceTimers, uri)
	}
	if cancel, ok := e.abortFuncs[uri]; ok {
		cancel()
		delete(e.abortFuncs, uri)
	}
}

func (e *Engine) scheduleDiagnostics(uri string) {
	e.debounceMu.Lock()
	defer e.debounceMu.Unlock()

	if t, ok := e.debounceTimers[uri]; ok {
		t.Stop()
	}
	e.debounceTimers[uri] = time.AfterFunc(e.debounce, func() {
		e.runDiagnostics(uri)
	})
}

func (e *Engine) runDiagnostics(uri string) {
	ctx, cancel := context.WithCancel(context.Background())

	e.debounceMu.Lock()
	e.abortFuncs[uri] = cancel
	delete(e.debounceTimers, uri)
	e.debounceMu.Unlock()

	settings, ok := e.settings.Get(uri)
	if !ok {
		settings = config.Default()
	}

	results, err := e.runner.Run(ctx, uri, diagnostics.Settings{
		ExecutablePath:          settings.ExecutablePath,
		EnableStderrDiagnostics: settings.EnableStderrDiagnostics,
	})

	e.debounceMu.Lock()
	delete(e.abortFuncs, uri)
	e.debounceMu.Unlock()

	if err != nil || ctx.Err() != nil {
		return
	}
	if e.OnDiagnostics != nil {
		e.OnDiagnostics(results)
	}
}

func splitLinesKeepEnds(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end := i
			if end > start && text[end-1] == '\r' {
				end--
			}
			lines = append(lines, text[start:end])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

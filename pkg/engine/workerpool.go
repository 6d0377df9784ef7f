package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ca65lsp/ca65lsp/pkg/ca65util"
	"github.com/ca65lsp/ca65lsp/pkg/filecache"
	"github.com/ca65lsp/ca65lsp/pkg/scanner"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// scanJob is one file awaiting read+scan during the initial workspace
// scan.
type scanJob struct {
	uri string
}

// scanResult is one file's scan outcome. Err is set when the file
// could not be read; Table is nil in that case.
type scanResult struct {
	uri   string
	table *symtab.Table
	err   error
}

// scanPool reads and scans files across a fixed goroutine pool.
// Scanning uses no cross-file state (spec §4.10), so this phase is
// embarrassingly parallel; only the caller's merge into the engine's
// shared maps needs to run on the single state-owning goroutine.
type scanPool struct {
	numWorkers int
	jobs       chan scanJob
	results    chan scanResult
	wg         sync.WaitGroup
	files      *filecache.Cache
	logger     *slog.Logger

	submitted atomic.Int64
}

func newScanPool(numWorkers int, files *filecache.Cache, logger *slog.Logger) *scanPool {
	if numWorkers <= 0 {
		numWorkers = ca65util.OptimalPoolSize()
	}
	return &scanPool{
		numWorkers: numWorkers,
		jobs:       make(chan scanJob, numWorkers*2),
		results:    make(chan scanResult, numWorkers*2),
		files:      files,
		logger:     logger,
	}
}

func (p *scanPool) start() {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *scanPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		lines, err := p.files.Lines(job.uri)
		if err != nil {
			p.results <- scanResult{uri: job.uri, err: err}
			continue
		}
		tbl := scanner.Scan(job.uri, lines)
		p.results <- scanResult{uri: job.uri, table: tbl}
	}
}

func (p *scanPool) submit(uri string) {
	p.submitted.Add(1)
	p.jobs <- scanJob{uri: uri}
}

func (p *scanPool) finishSubmitting() {
	close(p.jobs)
}

func (p *scanPool) wait() {
	p.wg.Wait()
	close(p.results)
}

func (p *scanPool) Results() <-chan scanResult {
	return p.results
}

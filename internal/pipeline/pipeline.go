// Package pipeline orchestrates the full report run: fan-out fetch over a
// bounded worker pool, fan-out ingestion over the fetched files, then
// single-threaded aggregation of the joined result set.
package pipeline

import (
	"sync"

	"github.com/rijnhardtkotze/icann-reports/internal/downloader"
	"github.com/rijnhardtkotze/icann-reports/internal/processor"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Fetcher retrieves one report URL, yielding the local path and whether the
// file was already processed
type Fetcher interface {
	Fetch(url string) downloader.Result
}

// Processor ingests one fetched file into normalized rows keyed by file
// name, or nil when the file is skipped
type Processor interface {
	Process(info processor.FileInfo) map[string][]processor.Row
}

// Pipeline runs the download and ingestion stages with a shared worker
// budget. The processor's catalog and structure analyzer are internally
// synchronized, so workers share them directly.
type Pipeline struct {
	fetcher    Fetcher
	processor  Processor
	maxWorkers int
}

// NewPipeline creates a pipeline with the given worker budget
func NewPipeline(fetcher Fetcher, proc Processor, maxWorkers int) *Pipeline {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pipeline{
		fetcher:    fetcher,
		processor:  proc,
		maxWorkers: maxWorkers,
	}
}

// Run fetches every URL and ingests every fetched file, returning the
// merged per-file row sets. Each stage is joined before the next starts;
// results arrive in completion order, so aggregation downstream must not
// depend on file ordering beyond what it imposes itself.
func (p *Pipeline) Run(urls []string) map[string][]processor.Row {
	files := p.fetchAll(urls)
	log.WithFields(logrus.Fields{
		"urls":    len(urls),
		"fetched": len(files),
	}).Info("Fetch stage complete")

	data := p.processAll(files)
	log.WithField("files", len(data)).Info("Ingestion stage complete")

	return data
}

// fetchAll fans the URL list out over the worker pool and collects the
// files that are available locally after the join
func (p *Pipeline) fetchAll(urls []string) []processor.FileInfo {
	urlChan := make(chan string)
	resultChan := make(chan downloader.Result, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < p.maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range urlChan {
				resultChan <- p.fetcher.Fetch(url)
			}
		}()
	}

	go func() {
		defer close(urlChan)
		for _, url := range urls {
			urlChan <- url
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var files []processor.FileInfo
	for result := range resultChan {
		if result.Path == "" {
			continue
		}
		files = append(files, processor.FileInfo{
			Path:             result.Path,
			AlreadyProcessed: result.AlreadyProcessed,
		})
	}
	return files
}

// processAll fans ingestion out over the worker pool and merges the
// per-file row maps after the join
func (p *Pipeline) processAll(files []processor.FileInfo) map[string][]processor.Row {
	fileChan := make(chan processor.FileInfo)
	resultChan := make(chan map[string][]processor.Row, len(files))

	var wg sync.WaitGroup
	for i := 0; i < p.maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for info := range fileChan {
				if result := p.processor.Process(info); result != nil {
					resultChan <- result
				}
			}
		}()
	}

	go func() {
		defer close(fileChan)
		for _, info := range files {
			fileChan <- info
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	data := make(map[string][]processor.Row)
	for result := range resultChan {
		for fileName, rows := range result {
			data[fileName] = rows
		}
	}
	return data
}

package downloader

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rijnhardtkotze/icann-reports/internal/fileutils"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// ProcessedChecker answers whether a file has already gone through the
// pipeline, letting the fetcher skip both download and reprocessing
type ProcessedChecker interface {
	IsProcessed(fileName string) bool
}

// Result describes the outcome of fetching one URL
type Result struct {
	Path             string
	AlreadyProcessed bool
}

// Fetcher downloads report files with retry and timeout handling. Fetch is
// idempotent: already-processed and already-downloaded files are never
// re-fetched.
type Fetcher struct {
	dataDir    string
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	client     *http.Client
	checker    ProcessedChecker
}

// NewFetcher creates a fetcher storing downloads in dataDir, consulting
// checker before any network activity
func NewFetcher(dataDir, userAgent string, timeout time.Duration, maxRetries int, retryDelay time.Duration, checker ProcessedChecker) *Fetcher {
	return &Fetcher{
		dataDir:    dataDir,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		client:     &http.Client{Timeout: timeout},
		checker:    checker,
	}
}

// Fetch downloads a report URL into the data directory. It returns the
// local path and whether the file was already processed. Failures after all
// retries yield an empty path; errors are logged, never returned, so one
// bad month does not fail the batch.
func (f *Fetcher) Fetch(url string) Result {
	fileName := url[strings.LastIndex(url, "/")+1:]
	filePath := filepath.Join(f.dataDir, fileName)

	if f.checker.IsProcessed(fileName) {
		log.WithField("file", fileName).Info("Already processed")
		return Result{Path: filePath, AlreadyProcessed: true}
	}

	if fileutils.FileExists(filePath) {
		log.WithField("path", filePath).Info("File exists")
		return Result{Path: filePath}
	}

	for attempt := 0; ; attempt++ {
		err := f.download(url, filePath)
		if err == nil {
			log.WithField("path", filePath).Info("Downloaded")
			return Result{Path: filePath}
		}

		if attempt >= f.maxRetries {
			log.WithError(err).WithFields(logrus.Fields{
				"url":      url,
				"attempts": f.maxRetries,
			}).Error("Failed to download after retries")
			return Result{}
		}

		log.WithError(err).WithFields(logrus.Fields{
			"url":   url,
			"delay": f.retryDelay,
		}).Warn("Error downloading, retrying")
		time.Sleep(f.retryDelay)
	}
}

func (f *Fetcher) download(url, filePath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	if err := fileutils.EnsureDirectoryExists(f.dataDir); err != nil {
		return err
	}
	out, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		if closeErr := out.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close file")
		}
		// Leave no truncated file behind for the exists-check to trust
		if removeErr := os.Remove(filePath); removeErr != nil {
			log.WithError(removeErr).Warn("Failed to remove partial download")
		}
		return fmt.Errorf("error writing file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}

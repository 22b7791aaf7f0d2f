package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"lightbox/internal/batch"
	"lightbox/internal/config"
	"lightbox/internal/fileutil"
	"lightbox/internal/logging"
)

// ErrClosed is returned by scan calls after Close.
var ErrClosed = errors.New("scanner is closed")

// Options control one scan or submit call. Zero fields fall back to the
// scanner's config defaults; skip-existing is on when either the call or the
// config enables it.
type Options struct {
	BatchSize          int
	MaxConcurrentFiles int
	Priority           string
	SkipExisting       bool
}

// ScanResult is the outcome of one scan/submit call.
type ScanResult struct {
	DiscoveredFiles int
	ProcessedFiles  int
	BatchesCreated  int
}

// ProcessingStats are cumulative counters across all scans on one Scanner.
type ProcessingStats struct {
	TotalBatchesCreated   int
	TotalFilesProcessed   int
	AverageProcessingTime time.Duration
}

// SeenFunc reports whether a file was already processed; used by the
// skip-existing filter. Supplied by the application (catalog-backed in the
// default wiring).
type SeenFunc func(path string) bool

// Scanner discovers work and feeds it to a batch.Processor.
type Scanner struct {
	cfg    *config.Config
	proc   *batch.Processor
	seen   SeenFunc
	logger *slog.Logger

	mu        sync.Mutex
	closed    bool
	stats     ProcessingStats
	scanCount int
	scanTime  time.Duration
}

// ScannerOption configures optional Scanner behavior.
type ScannerOption func(*Scanner)

// WithSeenPredicate wires the already-processed predicate consulted when a
// scan requests skip-existing.
func WithSeenPredicate(seen SeenFunc) ScannerOption {
	return func(s *Scanner) { s.seen = seen }
}

// New constructs a Scanner submitting to proc.
func New(cfg *config.Config, proc *batch.Processor, logger *slog.Logger, opts ...ScannerOption) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scanner{
		cfg:    cfg,
		proc:   proc,
		logger: logger.With(logging.String(logging.FieldComponent, "scanner")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanDirectory recursively enumerates files under root, filters them to
// supported media, and submits one image-processing job per batch.
func (s *Scanner) ScanDirectory(ctx context.Context, root string, opts Options) (ScanResult, error) {
	if err := s.checkOpen(); err != nil {
		return ScanResult{}, err
	}
	opts = s.normalizeOptions(opts)
	start := time.Now()

	var result ScanResult
	var accepted []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			return nil
		}
		result.DiscoveredFiles++
		if !s.accept(path, opts) {
			return nil
		}
		accepted = append(accepted, path)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("scan directory %q: %w", root, err)
	}

	if err := s.submit(accepted, opts, &result); err != nil {
		return result, err
	}
	s.recordScan(result, time.Since(start))

	s.logger.Info("directory scan complete",
		logging.String("root", root),
		logging.Int("discovered", result.DiscoveredFiles),
		logging.Int("processed", result.ProcessedFiles),
		logging.Int("batches", result.BatchesCreated),
	)
	return result, nil
}

// ProcessFiles applies the same filtering, batching, and submission to an
// explicit file list. Paths that fail an existence check are silently
// excluded; the remaining valid paths still proceed.
func (s *Scanner) ProcessFiles(ctx context.Context, paths []string, opts Options) (ScanResult, error) {
	if err := s.checkOpen(); err != nil {
		return ScanResult{}, err
	}
	opts = s.normalizeOptions(opts)
	start := time.Now()

	result := ScanResult{DiscoveredFiles: len(paths)}
	var accepted []string
	for _, path := range paths {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		if !fileutil.IsRegularFile(path) {
			s.logger.Debug("skipping unreadable path", logging.String("path", path))
			continue
		}
		if !s.accept(path, opts) {
			continue
		}
		accepted = append(accepted, path)
	}

	if err := s.submit(accepted, opts, &result); err != nil {
		return result, err
	}
	s.recordScan(result, time.Since(start))
	return result, nil
}

// Stats returns the cumulative counters accumulated across all prior calls.
func (s *Scanner) Stats() ProcessingStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the scanner. Idempotent; scans after Close fail with ErrClosed.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Scanner) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Scanner) accept(path string, opts Options) bool {
	if !IsSupportedMedia(path) {
		return false
	}
	if opts.SkipExisting && s.seen != nil && s.seen(path) {
		return false
	}
	return true
}

func (s *Scanner) normalizeOptions(opts Options) Options {
	if opts.BatchSize < 1 {
		opts.BatchSize = s.cfg.Scanner.BatchSize
	}
	if opts.MaxConcurrentFiles < 1 {
		opts.MaxConcurrentFiles = s.cfg.Scanner.MaxConcurrentFiles
	}
	if opts.Priority == "" {
		opts.Priority = s.cfg.Scanner.Priority
	}
	if !opts.SkipExisting {
		opts.SkipExisting = s.cfg.Scanner.SkipExisting
	}
	return opts
}

func (s *Scanner) submit(paths []string, opts Options, result *ScanResult) error {
	priority, ok := batch.ParsePriority(opts.Priority)
	if !ok {
		return fmt.Errorf("submit batches: unknown priority %q", opts.Priority)
	}

	for offset := 0; offset < len(paths); offset += opts.BatchSize {
		end := offset + opts.BatchSize
		if end > len(paths) {
			end = len(paths)
		}
		chunk := paths[offset:end]

		_, err := s.proc.Add(
			batch.JobTypeImageProcessing,
			batch.Payload{FilePaths: chunk, MaxConcurrentFiles: opts.MaxConcurrentFiles},
			batch.WithPriority(priority),
		)
		if err != nil {
			return fmt.Errorf("submit batch: %w", err)
		}
		result.BatchesCreated++
		result.ProcessedFiles += len(chunk)
	}
	return nil
}

func (s *Scanner) recordScan(result ScanResult, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanCount++
	s.scanTime += elapsed
	s.stats.TotalBatchesCreated += result.BatchesCreated
	s.stats.TotalFilesProcessed += result.ProcessedFiles
	s.stats.AverageProcessingTime = s.scanTime / time.Duration(s.scanCount)
}

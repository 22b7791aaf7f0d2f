package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"lightbox/internal/pipeline"
)

// newIngestPipeline builds the CLI's built-in per-item pipeline: verify the
// file is readable and record its size. Installations embed lightbox as a
// library and supply their own analysis pipelines; the CLI only needs enough
// to drive ingest and exercise the queue.
func newIngestPipeline() pipeline.Map {
	return pipeline.Map{
		Default: pipeline.Func(func(ctx context.Context, path string) (pipeline.Result, error) {
			if err := ctx.Err(); err != nil {
				return pipeline.Result{}, err
			}
			file, err := os.Open(path)
			if err != nil {
				return pipeline.Result{}, fmt.Errorf("open %s: %w", path, err)
			}
			defer file.Close()

			// Read the header to catch files that stat fine but are unreadable.
			header := make([]byte, 512)
			n, err := file.Read(header)
			if err != nil && err != io.EOF {
				return pipeline.Result{}, fmt.Errorf("read %s: %w", path, err)
			}

			info, err := file.Stat()
			if err != nil {
				return pipeline.Result{}, fmt.Errorf("stat %s: %w", path, err)
			}

			return pipeline.Result{
				Path: path,
				Detail: map[string]string{
					"size":        fmt.Sprintf("%d", info.Size()),
					"header_read": fmt.Sprintf("%d", n),
				},
			}, nil
		}),
	}
}

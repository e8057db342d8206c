package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/listingest/internal/parser"
)

// Worker processes a single parse job.
type Worker struct {
	pipeline   *Pipeline
	log        *slog.Logger
	parserOpts parser.Options
}

func NewWorker(p *Pipeline, log *slog.Logger, parserOpts parser.Options) *Worker {
	return &Worker{pipeline: p, log: log, parserOpts: parserOpts}
}

// Process reads the job's file and runs the pipeline over its text.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Read
	job.SetStatus(StatusReading, "reading")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.Fail(err)
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.SetFileData(nil)
	if err != nil {
		log.Error("read failed", "error", err)
		job.Fail(fmt.Errorf("read: %w", err))
		return
	}
	job.setDocumentInfo(doc.Title, ContentHashHex([]byte(doc.Text)))
	log.Info("read document", "title", doc.Title, "lines", len(doc.Lines()))

	// Phases 2-4: chunk, segment, structure.
	listings, err := w.pipeline.WithLogger(log).Run(ctx, doc.Text, job)
	if err != nil {
		job.Fail(err)
		return
	}

	job.Complete(listings)
	log.Info("job complete", "listings", len(listings))
}

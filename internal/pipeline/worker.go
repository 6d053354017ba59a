package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cch137/semvec/internal/pagestore"
	"github.com/cch137/semvec/internal/parser"
	"github.com/cch137/semvec/internal/splitter"
	"github.com/cch137/semvec/internal/vectorstore"
)

// Worker processes a single document job.
type Worker struct {
	o   *Orchestrator
	log *slog.Logger

	maxConcurrentEmbed int
}

func NewWorker(o *Orchestrator, maxEmbed int) *Worker {
	if maxEmbed <= 0 {
		maxEmbed = 1
	}
	return &Worker{o: o, log: o.log, maxConcurrentEmbed: maxEmbed}
}

// Process runs the full ingest pipeline for a job: parse, split,
// optimize, embed, store.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "page_uuid", job.PageUUID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title == "" {
		job.Title = doc.Title
	}

	job.ContentHash = ContentHashHex([]byte(doc.Text))
	if existing, dup := w.o.claimHash(job.ContentHash, job.PageUUID); dup {
		log.Info("duplicate document, skipping", "existing_page_uuid", existing)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Split and optimize
	job.SetStatus(StatusSplitting, "splitting")
	chunks, err := splitter.Split(doc.Text, w.o.splitCfg)
	if err != nil {
		log.Error("split failed", "error", err)
		job.AddError(fmt.Sprintf("split: %s", err))
		job.SetStatus(StatusFailed, "splitting")
		return
	}
	chunks, err = splitter.Optimize(chunks, w.o.splitCfg)
	if err != nil {
		log.Error("optimize failed", "error", err)
		job.AddError(fmt.Sprintf("optimize: %s", err))
		job.SetStatus(StatusFailed, "splitting")
		return
	}
	job.SetTotalChunks(len(chunks))
	log.Info("split document", "chunks", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "splitting")
		return
	}

	// Phase 3: Embed with bounded concurrency and retry.
	job.SetStatus(StatusEmbedding, "embedding")
	type embedResult struct {
		idx    int
		vector []float32
		err    error
	}
	results := make(chan embedResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentEmbed)

	for i, chunk := range chunks {
		sem <- struct{}{}
		go func(i int, chunk splitter.Chunk) {
			defer func() { <-sem }()
			var vec []float32
			var lastErr error
			for attempt := range MaxRetries {
				vec, lastErr = w.o.embedder.Embed(ctx, chunk.Text)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable embedding error", "chunk", i, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- embedResult{idx: i, err: ctx.Err()}
					return
				}
			}
			results <- embedResult{idx: i, vector: vec, err: lastErr}
		}(i, chunk)
	}

	records := make([]vectorstore.Record, len(chunks))
	hadErrors := false
	for range chunks {
		r := <-results
		job.IncrChunksEmbedded()
		if r.err != nil {
			log.Error("embedding failed", "chunk", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d: %s", r.idx, r.err))
			hadErrors = true
			continue
		}
		records[r.idx] = vectorstore.Record{
			ID:       uuid.NewString(),
			PageUUID: job.PageUUID,
			Start:    chunks[r.idx].Start,
			Content:  chunks[r.idx].Text,
			Vector:   r.vector,
		}
	}

	stored := records[:0]
	for _, rec := range records {
		if rec.Vector != nil {
			stored = append(stored, rec)
		}
	}
	log.Info("embedding complete", "embedded", len(stored), "errors", hadErrors)

	if len(stored) == 0 {
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	// Phase 4: Store vectors, then the page record.
	job.SetStatus(StatusStoring, "storing")
	if err := w.o.vectors.Insert(ctx, stored); err != nil {
		log.Error("vector insert failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.AddVectorsStored(len(stored))

	if w.o.pages != nil {
		page := pagestore.Page{
			UUID:        job.PageUUID,
			URL:         "upload://" + job.Filename,
			Domain:      "upload",
			Title:       job.Title,
			Description: snippetOf(doc.Text),
			Links:       []string{},
		}
		if _, err := w.o.pages.UpsertPages([]pagestore.Page{page}); err != nil {
			log.Error("page upsert failed", "error", err)
			job.AddError(fmt.Sprintf("page: %s", err))
			hadErrors = true
		}
	}

	log.Info("storage complete", "stored", len(stored), "total", len(chunks))
	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// snippetOf truncates text to a short description.
func snippetOf(text string) string {
	cut := 200
	if len(text) <= cut {
		return text
	}
	// Avoid slicing through a multi-byte rune.
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cch137/semvec/internal/config"
	"github.com/cch137/semvec/internal/embedder"
	"github.com/cch137/semvec/internal/pagestore"
	"github.com/cch137/semvec/internal/splitter"
	"github.com/cch137/semvec/internal/vectorstore"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	embedder embedder.Embedder
	vectors  vectorstore.Store
	pages    *pagestore.Client
	log      *slog.Logger
	cfg      config.Config
	splitCfg splitter.Config

	// seenHashes maps content hash to the page UUID that first carried it.
	hashMu     sync.Mutex
	seenHashes map[string]string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, emb embedder.Embedder, vs vectorstore.Store, pages *pagestore.Client, splitCfg splitter.Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, cfg.MaxQueueSize),
		embedder:   emb,
		vectors:    vs,
		pages:      pages,
		log:        log,
		cfg:        cfg,
		splitCfg:   splitCfg,
		seenHashes: make(map[string]string),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o, o.cfg.MaxConcurrentEmbed)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// claimHash records a content hash and returns the UUID of a previous
// page with the same content, if any.
func (o *Orchestrator) claimHash(hash, pageUUID string) (string, bool) {
	o.hashMu.Lock()
	defer o.hashMu.Unlock()
	if existing, ok := o.seenHashes[hash]; ok {
		return existing, true
	}
	o.seenHashes[hash] = pageUUID
	return "", false
}

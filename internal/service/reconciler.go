// Package service holds the batch reconciler: the panel's record of which
// generation batches are in flight, refreshed from the backend on a fixed
// cadence and flattened into one task list for the UI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cvpanel/internal/models"
)

// Backender is the slice of the backend API the reconciler needs.
type Backender interface {
	StartGeneration(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error)
	BatchStatus(ctx context.Context, batchID string) (*models.BatchStatus, error)
}

// Notifier receives every newly published snapshot.
type Notifier interface {
	Publish(models.StatusSnapshot)
}

type Reconciler struct {
	backend  Backender
	notifier Notifier
	log      *slog.Logger
	interval time.Duration

	mu         sync.Mutex
	active     map[string]struct{}
	completed  map[string]struct{}
	order      []string
	batchTasks map[string][]models.Task
	snapshot   models.StatusSnapshot
	generation uint64
	cancel     context.CancelFunc
}

// Option customizes the reconciler.
type Option func(*Reconciler)

// WithNotifier publishes every snapshot update to the given notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) {
		r.notifier = n
	}
}

func NewReconciler(backend Backender, interval time.Duration, log *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		backend:    backend,
		log:        log,
		interval:   interval,
		active:     make(map[string]struct{}),
		completed:  make(map[string]struct{}),
		batchTasks: make(map[string][]models.Task),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.mu.Lock()
	r.publishLocked()
	r.mu.Unlock()

	return r
}

// StartBatch submits a generation request and begins tracking the accepted
// batch. A rejected submission changes nothing. Starting a second batch while
// one is running reuses the already-running poll loop.
func (r *Reconciler) StartBatch(ctx context.Context, req models.GenerationRequest) (string, error) {
	res, err := r.backend.StartGeneration(ctx, req)
	if err != nil {
		r.log.Error("failed to start batch", slog.String("error", err.Error()))

		return "", fmt.Errorf("start batch: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := res.BatchID
	if !r.trackedLocked(id) {
		r.active[id] = struct{}{}
		r.order = append(r.order, id)
	}

	r.publishLocked()
	r.ensureLoopLocked()

	r.log.Info("batch started",
		slog.String("batchID", id),
		slog.Int("total_tasks", res.TotalTasks))

	return id, nil
}

// Stop halts polling and drops every active batch regardless of backend state.
// Completed batches and their tasks stay visible.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.stopLoopLocked()

	for id := range r.active {
		delete(r.batchTasks, id)
	}
	r.active = make(map[string]struct{})
	r.compactOrderLocked()
	r.publishLocked()

	r.log.Info("generation stopped")
}

// Clear is a full teardown: no batches, no tasks, no running loop.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.stopLoopLocked()

	r.active = make(map[string]struct{})
	r.completed = make(map[string]struct{})
	r.batchTasks = make(map[string][]models.Task)
	r.order = nil
	r.publishLocked()
}

// Snapshot returns a copy of the last published aggregate view.
func (r *Reconciler) Snapshot() models.StatusSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return copySnapshot(r.snapshot)
}

func (r *Reconciler) trackedLocked(id string) bool {
	if _, ok := r.active[id]; ok {
		return true
	}
	_, ok := r.completed[id]

	return ok
}

func (r *Reconciler) ensureLoopLocked() {
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go r.pollLoop(ctx, r.generation)
}

func (r *Reconciler) stopLoopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Reconciler) pollLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.pollOnce(ctx, gen) {
				return
			}
		}
	}
}

type pollResult struct {
	id     string
	status *models.BatchStatus
}

// pollOnce runs one reconciliation tick: fetch every tracked batch
// concurrently, fold the successes into the cache, republish the aggregate.
// Returns false once the loop should stop (no active batches left, or the
// tick's generation has been superseded by a stop/clear).
func (r *Reconciler) pollOnce(ctx context.Context, gen uint64) bool {
	r.mu.Lock()
	if r.generation != gen {
		r.mu.Unlock()

		return false
	}

	ids := make([]string, 0, len(r.active)+len(r.completed))
	for id := range r.active {
		ids = append(ids, id)
	}
	for id := range r.completed {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	results := make(chan pollResult, len(ids))

	var wg sync.WaitGroup
	wg.Add(len(ids))
	for _, id := range ids {
		go func(id string) {
			defer wg.Done()

			status, err := r.backend.BatchStatus(ctx, id)
			if err != nil {
				// The batch keeps its tasks from the previous tick and
				// gets retried next tick.
				r.log.Error("failed to poll batch",
					slog.String("batchID", id),
					slog.String("error", err.Error()))

				return
			}
			results <- pollResult{id: id, status: status}
		}(id)
	}
	wg.Wait()
	close(results)

	r.mu.Lock()
	defer r.mu.Unlock()

	// A stop or clear issued while the fetches were in flight wins; late
	// results must not resurrect discarded state.
	if r.generation != gen {
		return false
	}

	for res := range results {
		if !r.trackedLocked(res.id) {
			continue
		}

		r.batchTasks[res.id] = res.status.Tasks

		if res.status.IsComplete {
			if _, ok := r.active[res.id]; ok {
				delete(r.active, res.id)
				r.completed[res.id] = struct{}{}

				r.log.Info("batch completed", slog.String("batchID", res.id))
			}
		}
	}

	r.publishLocked()

	if len(r.active) == 0 {
		r.stopLoopLocked()

		return false
	}

	return true
}

// publishLocked rebuilds the snapshot from the batch cache and hands it to the
// notifier. Tasks keep batch start order so the UI does not reshuffle rows.
func (r *Reconciler) publishLocked() {
	snap := models.StatusSnapshot{
		ActiveBatchIDs:    make([]string, 0, len(r.active)),
		CompletedBatchIDs: make([]string, 0, len(r.completed)),
		Tasks:             make([]models.Task, 0),
		IsGenerating:      len(r.active) > 0,
	}

	for _, id := range r.order {
		if _, ok := r.active[id]; ok {
			snap.ActiveBatchIDs = append(snap.ActiveBatchIDs, id)
		} else if _, ok := r.completed[id]; ok {
			snap.CompletedBatchIDs = append(snap.CompletedBatchIDs, id)
		} else {
			continue
		}

		snap.Tasks = append(snap.Tasks, r.batchTasks[id]...)
	}

	snap.OverallProgress = models.OverallProgress(snap.Tasks)

	r.snapshot = snap

	if r.notifier != nil {
		r.notifier.Publish(copySnapshot(snap))
	}
}

func (r *Reconciler) compactOrderLocked() {
	order := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.trackedLocked(id) {
			order = append(order, id)
		}
	}
	r.order = order
}

func copySnapshot(s models.StatusSnapshot) models.StatusSnapshot {
	out := s
	out.ActiveBatchIDs = make([]string, len(s.ActiveBatchIDs))
	copy(out.ActiveBatchIDs, s.ActiveBatchIDs)
	out.CompletedBatchIDs = make([]string, len(s.CompletedBatchIDs))
	copy(out.CompletedBatchIDs, s.CompletedBatchIDs)
	out.Tasks = make([]models.Task, len(s.Tasks))
	copy(out.Tasks, s.Tasks)

	return out
}

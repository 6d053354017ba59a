package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing document"},
		{StatusSplitting, "splitting into chunks"},
		{StatusEmbedding, "embedding chunks"},
		{StatusStoring, "storing vectors"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("chunk 3 failed")
	job.AddError("chunk 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "chunk 3 failed" {
		t.Errorf("expected first error %q, got %q", "chunk 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_ProgressCounters(t *testing.T) {
	job := &Job{ID: "prog-test", UpdatedAt: time.Now()}
	job.SetTotalChunks(4)
	job.IncrChunksEmbedded()
	job.IncrChunksEmbedded()
	job.AddVectorsStored(2)

	snap := job.Snapshot()
	if snap.Progress.TotalChunks != 4 {
		t.Errorf("total_chunks = %d", snap.Progress.TotalChunks)
	}
	if snap.Progress.ChunksEmbedded != 2 {
		t.Errorf("chunks_embedded = %d", snap.Progress.ChunksEmbedded)
	}
	if snap.Progress.VectorsStored != 2 {
		t.Errorf("vectors_stored = %d", snap.Progress.VectorsStored)
	}
}

func TestJob_SnapshotHasNoNilErrors(t *testing.T) {
	job := &Job{ID: "snap-test"}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected empty slice, not nil, for JSON serialization")
	}
}

func TestJobStore_PutGetCleanup(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)
	job := &Job{ID: "a", UpdatedAt: time.Now()}
	store.Put(job)

	if got := store.Get("a"); got != job {
		t.Fatal("expected to retrieve stored job")
	}
	if got := store.Get("missing"); got != nil {
		t.Fatal("expected nil for unknown id")
	}

	time.Sleep(20 * time.Millisecond)
	store.Cleanup()
	if got := store.Get("a"); got != nil {
		t.Error("expected expired job to be evicted")
	}
}

func TestBackoff_Bounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := Backoff(attempt)
		if d < time.Second {
			t.Errorf("attempt %d: backoff %v below base", attempt, d)
		}
		if d > 45*time.Second {
			t.Errorf("attempt %d: backoff %v exceeds cap with jitter", attempt, d)
		}
	}
}

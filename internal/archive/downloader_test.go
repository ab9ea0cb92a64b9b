package archive_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"faarc/internal/archive"
	"faarc/internal/testutil"
)

// listFiles returns every regular file under base, relative to base.
func listFiles(t *testing.T, base string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(base, path)
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", base, err)
	}
	sort.Strings(out)
	return out
}

var scriptedFiles = []string{
	filepath.Join("gallery", "1d.json"),
	filepath.Join("gallery", "1f.png"),
	filepath.Join("gallery", "1t.jpg"),
	filepath.Join("gallery", "2d.json"),
	filepath.Join("gallery", "2f.jpg"),
	filepath.Join("journals", "5d.json"),
	filepath.Join("scraps", "3d.json"),
	filepath.Join("scraps", "3f.gif"),
	filepath.Join("scraps", "3t.jpg"),
}

func TestArchiver_FullRun(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()

	a := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	outcome, err := a.Archive()
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if outcome != archive.OutcomeCompleted {
		t.Fatalf("Archive() outcome = %v, want completed", outcome)
	}

	got := listFiles(t, layout.BaseDir)
	if len(got) != len(scriptedFiles) {
		t.Fatalf("archive contains %v, want %v", got, scriptedFiles)
	}
	for i := range scriptedFiles {
		if got[i] != scriptedFiles[i] {
			t.Errorf("archive file %d = %s, want %s", i, got[i], scriptedFiles[i])
		}
	}

	payload, err := os.ReadFile(filepath.Join(layout.GalleryDir, "1f.png"))
	if err != nil {
		t.Fatalf("reading payload: %v", err)
	}
	if string(payload) != "payload-1" {
		t.Errorf("payload = %q, want %q", payload, "payload-1")
	}

	open, _ := store.CountOpen()
	if open != 0 {
		t.Errorf("CountOpen() = %d, want 0 after completed run", open)
	}
}

func TestArchiver_ResumeAfterStop(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()
	cancel := archive.NewCancelFlag()

	// Stop after two elements have been fetched. Both were claimed before
	// the flag was checked, so both finish and are closed.
	client.OnFetch = func() {
		if client.FetchCalls == 2 {
			cancel.Set()
		}
	}

	first := archive.NewArchiver("somebody", layout, store, client, cancel, nil)
	outcome, err := first.Archive()
	if err != nil {
		t.Fatalf("first Archive() error = %v", err)
	}
	if outcome != archive.OutcomeStopped {
		t.Fatalf("first Archive() outcome = %v, want stopped", outcome)
	}

	open, _ := store.CountOpen()
	if open != scriptedElementCount-2 {
		t.Fatalf("CountOpen() after stop = %d, want %d", open, scriptedElementCount-2)
	}

	// Fresh run over the same store finishes the rest without refetching
	// anything already archived.
	client.OnFetch = nil
	client.FetchCalls = 0
	second := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	outcome, err = second.Archive()
	if err != nil {
		t.Fatalf("second Archive() error = %v", err)
	}
	if outcome != archive.OutcomeCompleted {
		t.Fatalf("second Archive() outcome = %v, want completed", outcome)
	}
	if client.FetchCalls != scriptedElementCount-2 {
		t.Errorf("second run fetched %d elements, want %d", client.FetchCalls, scriptedElementCount-2)
	}

	got := listFiles(t, layout.BaseDir)
	if len(got) != len(scriptedFiles) {
		t.Fatalf("archive contains %v, want %v", got, scriptedFiles)
	}
	open, _ = store.CountOpen()
	if open != 0 {
		t.Errorf("CountOpen() = %d, want 0 after resume", open)
	}
}

func TestArchiver_FetchFailureLeavesElementOpen(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()

	broken := errors.New("server melted")
	client.FailFetch[1] = broken

	a := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	_, err := a.Archive()
	if !errors.Is(err, broken) {
		t.Fatalf("Archive() error = %v, want wrapped %v", err, broken)
	}

	// The failed element stays open and nothing after it was touched.
	open, _ := store.CountOpen()
	if open != scriptedElementCount {
		t.Fatalf("CountOpen() = %d, want %d", open, scriptedElementCount)
	}

	// Clearing the fault lets a later run claim it again and finish.
	delete(client.FailFetch, 1)
	retry := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	if _, err := retry.Archive(); err != nil {
		t.Fatalf("retry Archive() error = %v", err)
	}
	open, _ = store.CountOpen()
	if open != 0 {
		t.Errorf("CountOpen() after retry = %d, want 0", open)
	}
}

func TestArchiver_UnknownKindIsInvariantViolation(t *testing.T) {
	layout := newTestLayout(t)
	store, exec := openTestStoreRaw(t)
	client := newScriptedClient()

	// Plant state no run could have produced: all categories flagged done
	// and one queue row with a kind the dispatcher has never heard of.
	exec("INSERT INTO state (key, value) VALUES ('artist', 'somebody')")
	for _, cat := range archive.Categories() {
		exec("INSERT INTO state (key, value) VALUES (?, 1)", archive.CollectionFlag(cat))
	}
	exec("INSERT INTO archive_element (kind, remote_id, archived) VALUES ('daguerreotype', 9, 0)")

	a := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	_, err := a.Archive()
	if !errors.Is(err, archive.ErrInvariant) {
		t.Fatalf("Archive() error = %v, want ErrInvariant", err)
	}

	// The poisoned element must not have been closed.
	open, _ := store.CountOpen()
	if open != 1 {
		t.Errorf("CountOpen() = %d, want 1", open)
	}
}

func TestArchiver_MissingExtension(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()
	log := testutil.NewRecordingLogger()

	// A payload URL with no recognizable extension.
	client.Submissions[1].FileURL = "https://d.example/download/1"

	a := archive.NewArchiver("somebody", layout, store, client, nil, log)
	if _, err := a.Archive(); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(layout.GalleryDir, "1f")); err != nil {
		t.Errorf("extensionless payload file not written: %v", err)
	}
	if len(log.Warnings()) == 0 {
		t.Error("no warning logged for the missing extension")
	}
}

package archive_test

import (
	"errors"
	"testing"

	"faarc/internal/archive"
	"faarc/internal/database"
	"faarc/internal/database/migrations"
	"faarc/internal/testutil"
)

// newTestLayout creates a throwaway archive directory tree.
func newTestLayout(t *testing.T) archive.Layout {
	t.Helper()
	layout := archive.NewLayout(t.TempDir())
	if err := layout.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	return layout
}

// newScriptedClient returns a mock with one small but full artist: two
// gallery items (one with a thumbnail), one scraps item with a thumbnail,
// and one journal.
func newScriptedClient() *testutil.MockClient {
	client := testutil.NewMockClient()
	client.Users["somebody"] = &archive.UserInfo{Name: "somebody", Status: "~"}

	client.Pages[archive.CategoryGallery] = [][]archive.ListedItem{
		{{ID: 1, ThumbnailURL: "https://t.example/1.jpg"}, {ID: 2}},
	}
	client.Pages[archive.CategoryScraps] = [][]archive.ListedItem{
		{{ID: 3, ThumbnailURL: "https://t.example/3.jpg"}},
	}
	client.Pages[archive.CategoryJournals] = [][]archive.ListedItem{
		{{ID: 5}},
	}

	client.Submissions[1] = &archive.Submission{ID: 1, Title: "one", FileURL: "https://d.example/1.png"}
	client.Submissions[2] = &archive.Submission{ID: 2, Title: "two", FileURL: "https://d.example/2.jpg"}
	client.Submissions[3] = &archive.Submission{ID: 3, Title: "three", FileURL: "https://d.example/3.gif"}
	client.Payloads[1] = []byte("payload-1")
	client.Payloads[2] = []byte("payload-2")
	client.Payloads[3] = []byte("payload-3")
	client.Raw["https://t.example/1.jpg"] = []byte("thumb-1")
	client.Raw["https://t.example/3.jpg"] = []byte("thumb-3")
	client.Journals[5] = &archive.Journal{ID: 5, Title: "hello"}

	return client
}

// scriptedElementCount is the queue size newScriptedClient's listings
// produce: 2 gallery + 1 gallery thumb + 1 scraps + 1 scraps thumb + 1 journal.
const scriptedElementCount = 6

func TestArchiver_CollectIsIdempotent(t *testing.T) {
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

	total, err := store.CountTotal()
	if err != nil {
		t.Fatalf("CountTotal() error = %v", err)
	}
	if total != scriptedElementCount {
		t.Fatalf("CountTotal() = %d, want %d", total, scriptedElementCount)
	}

	// Second full run against the same store: no listing calls at all, and
	// no new queue entries.
	for cat := range client.ListCalls {
		client.ListCalls[cat] = 0
	}
	second := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	if _, err := second.Archive(); err != nil {
		t.Fatalf("second Archive() error = %v", err)
	}

	for _, cat := range archive.Categories() {
		if n := client.ListCalls[cat]; n != 0 {
			t.Errorf("second run issued %d listing calls for %s, want 0", n, cat)
		}
	}
	total, _ = store.CountTotal()
	if total != scriptedElementCount {
		t.Errorf("CountTotal() after second run = %d, want %d", total, scriptedElementCount)
	}
}

func TestArchiver_PaginationViolation(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()
	client.BrokenPagination[archive.CategoryGallery] = true

	a := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	_, err := a.Archive()
	if !errors.Is(err, archive.ErrProtocol) {
		t.Fatalf("Archive() error = %v, want ErrProtocol", err)
	}

	// The broken category must not have enqueued anything or been flagged.
	total, _ := store.CountTotal()
	if total != 0 {
		t.Errorf("CountTotal() = %d, want 0", total)
	}
	flagged, _ := store.GetFlag(archive.CollectionFlag(archive.CategoryGallery))
	if flagged {
		t.Error("gallery was flagged collected despite the protocol violation")
	}
}

func TestArchiver_CancelDuringListing(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()
	client.Pages[archive.CategoryGallery] = [][]archive.ListedItem{
		{{ID: 1}},
		{{ID: 2}},
	}
	cancel := archive.NewCancelFlag()

	// Trip the flag during the first page fetch; the check before page 2
	// must discard the whole category accumulation.
	client.OnListPage = func() { cancel.Set() }

	a := archive.NewArchiver("somebody", layout, store, client, cancel, nil)
	outcome, err := a.Archive()
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if outcome != archive.OutcomeStopped {
		t.Fatalf("Archive() outcome = %v, want stopped", outcome)
	}

	total, _ := store.CountTotal()
	if total != 0 {
		t.Errorf("CountTotal() = %d, want 0 after cancelled collection", total)
	}
	for _, cat := range archive.Categories() {
		if flagged, _ := store.GetFlag(archive.CollectionFlag(cat)); flagged {
			t.Errorf("%s was flagged collected despite cancellation", cat)
		}
	}
}

func TestArchiver_MultiPageListing(t *testing.T) {
	layout := newTestLayout(t)
	store := testutil.NewTestStore(t)
	client := newScriptedClient()
	client.Pages[archive.CategoryGallery] = [][]archive.ListedItem{
		{{ID: 1}},
		{{ID: 2}},
	}

	a := archive.NewArchiver("somebody", layout, store, client, nil, nil)
	if _, err := a.Archive(); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if n := client.ListCalls[archive.CategoryGallery]; n != 2 {
		t.Errorf("gallery listing calls = %d, want 2", n)
	}
	// 2 gallery + 1 scraps + 1 scraps thumb + 1 journal.
	total, _ := store.CountTotal()
	if total != 5 {
		t.Errorf("CountTotal() = %d, want 5", total)
	}
}

func TestArchiver_ArtistBinding(t *testing.T) {
	t.Run("unknown artist fails before any state exists", func(t *testing.T) {
		layout := newTestLayout(t)
		store := testutil.NewTestStore(t)
		client := newScriptedClient()

		a := archive.NewArchiver("nobody", layout, store, client, nil, nil)
		_, err := a.Archive()
		if !errors.Is(err, archive.ErrNotFound) {
			t.Fatalf("Archive() error = %v, want ErrNotFound", err)
		}

		if _, ok, _ := archive.BoundArtist(store); ok {
			t.Error("artist was bound despite failed verification")
		}
	})

	t.Run("mismatched artist is fatal", func(t *testing.T) {
		layout := newTestLayout(t)
		store := testutil.NewTestStore(t)
		client := newScriptedClient()

		first := archive.NewArchiver("somebody", layout, store, client, nil, nil)
		if _, err := first.Archive(); err != nil {
			t.Fatalf("Archive() error = %v", err)
		}

		other := archive.NewArchiver("intruder", layout, store, client, nil, nil)
		_, err := other.Archive()
		if !errors.Is(err, archive.ErrArtistMismatch) {
			t.Fatalf("Archive() error = %v, want ErrArtistMismatch", err)
		}
	})

	t.Run("case differences are not a mismatch", func(t *testing.T) {
		layout := newTestLayout(t)
		store := testutil.NewTestStore(t)
		client := newScriptedClient()

		first := archive.NewArchiver("somebody", layout, store, client, nil, nil)
		if _, err := first.Archive(); err != nil {
			t.Fatalf("Archive() error = %v", err)
		}

		again := archive.NewArchiver("SomeBody", layout, store, client, nil, nil)
		if _, err := again.Archive(); err != nil {
			t.Fatalf("Archive() with different case error = %v", err)
		}
	})
}

// openTestStoreRaw builds a store over a raw connection so tests can plant
// rows the public API would never produce.
func openTestStoreRaw(t *testing.T) (*database.SQLiteStore, func(query string, args ...any)) {
	t.Helper()
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.MigrateUp(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("exec %q: %v", query, err)
		}
	}
	return database.FromDB(db), exec
}

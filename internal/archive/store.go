package archive

// Store is the durable state every resumability guarantee derives from:
// scalar flags plus the archive element work queue. The archiver is the only
// writer for the duration of a run; implementations do not need to support
// concurrent mutation, but FinishCategory must be transactional.
type Store interface {
	// GetString returns the scalar stored under key, or ok=false if absent.
	GetString(key string) (value string, ok bool, err error)

	// SetString upserts a scalar value.
	SetString(key, value string) error

	// GetFlag reports whether a boolean flag is set. Absent means false.
	GetFlag(key string) (bool, error)

	// FinishCategory enqueues all elements and sets the completion flag in
	// one transaction, so a crash can never leave a category flagged done
	// with missing elements or vice versa. Elements already present (same
	// kind and remote id) are skipped, not treated as fatal.
	FinishCategory(flag string, elements []Element) error

	// NextOpen returns the open element with the smallest id, or nil when
	// the queue is drained.
	NextOpen() (*Element, error)

	// CloseElement marks an element archived. Closing an already-closed
	// element is a no-op.
	CloseElement(id int64) error

	// CountOpen returns the number of elements not yet archived.
	CountOpen() (int, error)

	Close() error
}

// State store keys reserved by the archiver.
const (
	stateKeyArtist = "artist"
	flagPrefix     = "collected_"
)

// BoundArtist returns the artist a state store is bound to, if any.
func BoundArtist(store Store) (string, bool, error) {
	return store.GetString(stateKeyArtist)
}

// CollectionFlag is the state store key recording that a category's
// enumeration finished. Set exactly once, never cleared.
func CollectionFlag(c Category) string { return flagPrefix + string(c) }

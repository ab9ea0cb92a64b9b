package archive

import (
	"fmt"
	"strings"
)

// Outcome is the result of a run: either everything finished, or the caller
// asked to stop and the run ended at a safe checkpoint. It is meaningful
// only when the accompanying error is nil.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStopped
)

func (o Outcome) String() string {
	if o == OutcomeStopped {
		return "stopped"
	}
	return "completed"
}

// Archiver drives one artist's archive: the collection phase enumerates the
// artist's content into the durable work queue, then the download phase
// drains the queue by fetching and persisting every element. Both phases
// resume across process restarts from the state in the Store. A single
// Archiver owns its store and layout exclusively for the duration of a run.
type Archiver struct {
	artist string
	layout Layout
	store  Store
	client Client
	cancel *CancelFlag
	log    Logger
}

// NewArchiver wires an archiver. The layout directories must already exist
// and the store must be migrated. cancel and log may be nil.
func NewArchiver(artist string, layout Layout, store Store, client Client, cancel *CancelFlag, log Logger) *Archiver {
	if cancel == nil {
		cancel = NewCancelFlag()
	}
	if log == nil {
		log = NewNopLogger()
	}
	return &Archiver{
		artist: artist,
		layout: layout,
		store:  store,
		client: client,
		cancel: cancel,
		log:    log,
	}
}

// Archive runs the full collect-then-download pipeline. OutcomeStopped means
// cancellation was honored at a checkpoint; that is an expected result, not
// an error, and the next run picks up where this one left off.
func (a *Archiver) Archive() (Outcome, error) {
	if a.cancel.Stopped() {
		return OutcomeStopped, nil
	}
	a.log.Info("archiving artist", "artist", a.artist)

	if err := a.checkArtist(); err != nil {
		return OutcomeCompleted, err
	}
	if out, err := a.collect(); err != nil || out == OutcomeStopped {
		return out, err
	}
	if out, err := a.download(); err != nil || out == OutcomeStopped {
		return out, err
	}

	a.log.Info("done archiving artist", "artist", a.artist)
	a.log.Info("split the archive into chunks before importing it elsewhere")
	return OutcomeCompleted, nil
}

// checkArtist binds the archive directory to the artist on the first run and
// rejects a mismatched artist on later runs. The binding is permanent and
// compared case-insensitively. Verification happens before any queue state
// is created, so an unknown artist leaves the directory untouched.
func (a *Archiver) checkArtist() error {
	bound, ok, err := a.store.GetString(stateKeyArtist)
	if err != nil {
		return fmt.Errorf("reading bound artist: %w", err)
	}
	if !ok {
		return a.bindArtist()
	}
	if strings.EqualFold(bound, a.artist) {
		a.log.Debug("artist already bound", "artist", bound)
		return nil
	}
	return fmt.Errorf("directory already contains data for artist %q: %w", bound, ErrArtistMismatch)
}

func (a *Archiver) bindArtist() error {
	user, err := a.client.VerifyIdentity(a.artist)
	if err != nil {
		return fmt.Errorf("artist %q: %w", a.artist, err)
	}
	a.log.Info("target artist", "artist", user.Status+user.Name)
	if err := a.store.SetString(stateKeyArtist, a.artist); err != nil {
		return fmt.Errorf("binding artist: %w", err)
	}
	return nil
}

package archive

// Kind identifies both the content category an element belongs to and the
// sub-resource it represents. Values are persisted verbatim in the work
// queue, so they must never change for existing archives.
type Kind string

const (
	KindGallery      Kind = "gallery"
	KindGalleryThumb Kind = "gallery_thumb"
	KindScraps       Kind = "scraps"
	KindScrapsThumb  Kind = "scraps_thumb"
	KindJournal      Kind = "journals"
)

// Element is one unit of archival work in the durable queue. Elements are
// created during collection, flipped to archived exactly once after all of
// their files have been written, and never deleted.
type Element struct {
	ID       int64 // synthetic, assigned by the store; defines processing order
	Kind     Kind
	RemoteID int64  // the site's identifier for the item
	AuxData  string // thumbnail URL captured at enumeration time, "" otherwise
	Archived bool
}

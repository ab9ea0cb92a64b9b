package archive

import "errors"

var (
	// ErrNotFound indicates the artist does not exist on the remote site.
	ErrNotFound = errors.New("not found")

	// ErrArtistMismatch indicates the archive directory is already bound to
	// a different artist.
	ErrArtistMismatch = errors.New("archive belongs to a different artist")

	// ErrProtocol indicates the remote listing violated the pagination
	// contract: the next page number must strictly increase.
	ErrProtocol = errors.New("pagination protocol violation")

	// ErrInvariant indicates corrupt queue state reached the download
	// dispatcher. This is a programming or data-corruption fault, never a
	// transient one, and the run is not retried.
	ErrInvariant = errors.New("archive invariant violation")

	// ErrIncompleteArchive indicates chunking was requested while elements
	// are still waiting to be downloaded.
	ErrIncompleteArchive = errors.New("incomplete archive")

	// ErrNoArchive indicates chunking or status was requested for a
	// directory that was never archived into.
	ErrNoArchive = errors.New("no archive in directory")
)

package archive

// Category is one of the fixed content types enumerated per artist.
type Category string

const (
	CategoryGallery  Category = "gallery"
	CategoryScraps   Category = "scraps"
	CategoryJournals Category = "journals"
)

// UserInfo describes the remote account an identity check resolved to.
type UserInfo struct {
	Name   string
	Status string // the site's account status prefix, e.g. "~"
}

// ListedItem is one entry of a paginated category listing.
type ListedItem struct {
	ID           int64
	ThumbnailURL string // "" when the listing exposes no thumbnail
}

// Submission is the metadata document archived for a gallery or scraps item.
// Field order is the serialization order of the JSON document on disk.
type Submission struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Category     string    `json:"category"`
	Rating       string    `json:"rating"`
	PostedAt     Timestamp `json:"posted_at"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	FileURL      string    `json:"file_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// Journal is the metadata document archived for a journal entry.
type Journal struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	PostedAt Timestamp `json:"posted_at"`
	Content  string    `json:"content"`
}

// Client is the remote-source capability the archiver depends on.
// Implementations own authentication and minimum-delay throttling; the
// archiver never assumes back-to-back requests are acceptable.
type Client interface {
	// VerifyIdentity checks that the artist exists on the site, returning
	// an error wrapping ErrNotFound if it does not.
	VerifyIdentity(artist string) (*UserInfo, error)

	// ListPage fetches one page of a category listing. next is the page to
	// fetch after page, or 0 when the listing is exhausted. A next value
	// that does not strictly increase is a contract breach and aborts
	// enumeration for the category.
	ListPage(category Category, artist string, page int) (items []ListedItem, next int, err error)

	// FetchSubmission fetches a submission's metadata together with its
	// binary payload.
	FetchSubmission(id int64) (*Submission, []byte, error)

	// FetchJournal fetches a journal's metadata. Journals have no payload.
	FetchJournal(id int64) (*Journal, error)

	// FetchRaw fetches the bytes behind a URL captured during listing.
	FetchRaw(url string) ([]byte, error)
}

package testutil

import (
	"fmt"

	"faarc/internal/archive"
)

// MockClient is a scripted archive.Client. Listings are served from Pages,
// item fetches from Submissions/Payloads/Journals/Raw. Call counters and
// hooks let tests observe and interrupt the archiver mid-run.
type MockClient struct {
	Users       map[string]*archive.UserInfo
	Pages       map[archive.Category][][]archive.ListedItem // Pages[cat][i] is page i+1
	Submissions map[int64]*archive.Submission
	Payloads    map[int64][]byte
	Journals    map[int64]*archive.Journal
	Raw         map[string][]byte

	// BrokenPagination makes ListPage return next == page for the category,
	// simulating a listing that never advances.
	BrokenPagination map[archive.Category]bool

	// FailFetch makes FetchSubmission/FetchJournal fail for a remote id.
	FailFetch map[int64]error

	ListCalls  map[archive.Category]int
	FetchCalls int

	// OnListPage and OnFetch run before each listing call and after each
	// successful item fetch, e.g. to trip a cancel flag mid-phase.
	OnListPage func()
	OnFetch    func()
}

var _ archive.Client = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{
		Users:            make(map[string]*archive.UserInfo),
		Pages:            make(map[archive.Category][][]archive.ListedItem),
		Submissions:      make(map[int64]*archive.Submission),
		Payloads:         make(map[int64][]byte),
		Journals:         make(map[int64]*archive.Journal),
		Raw:              make(map[string][]byte),
		BrokenPagination: make(map[archive.Category]bool),
		FailFetch:        make(map[int64]error),
		ListCalls:        make(map[archive.Category]int),
	}
}

func (m *MockClient) VerifyIdentity(artist string) (*archive.UserInfo, error) {
	if user, ok := m.Users[artist]; ok {
		return user, nil
	}
	return nil, archive.ErrNotFound
}

func (m *MockClient) ListPage(category archive.Category, artist string, page int) ([]archive.ListedItem, int, error) {
	if m.OnListPage != nil {
		m.OnListPage()
	}
	m.ListCalls[category]++

	if m.BrokenPagination[category] {
		return nil, page, nil
	}

	pages := m.Pages[category]
	if page > len(pages) {
		return nil, 0, nil
	}
	next := page + 1
	if page == len(pages) {
		next = 0
	}
	return pages[page-1], next, nil
}

func (m *MockClient) FetchSubmission(id int64) (*archive.Submission, []byte, error) {
	if err := m.FailFetch[id]; err != nil {
		return nil, nil, err
	}
	info, ok := m.Submissions[id]
	if !ok {
		return nil, nil, fmt.Errorf("no scripted submission %d", id)
	}
	m.FetchCalls++
	if m.OnFetch != nil {
		m.OnFetch()
	}
	return info, m.Payloads[id], nil
}

func (m *MockClient) FetchJournal(id int64) (*archive.Journal, error) {
	if err := m.FailFetch[id]; err != nil {
		return nil, err
	}
	info, ok := m.Journals[id]
	if !ok {
		return nil, fmt.Errorf("no scripted journal %d", id)
	}
	m.FetchCalls++
	if m.OnFetch != nil {
		m.OnFetch()
	}
	return info, nil
}

func (m *MockClient) FetchRaw(url string) ([]byte, error) {
	data, ok := m.Raw[url]
	if !ok {
		return nil, fmt.Errorf("no scripted raw response for %s", url)
	}
	m.FetchCalls++
	if m.OnFetch != nil {
		m.OnFetch()
	}
	return data, nil
}

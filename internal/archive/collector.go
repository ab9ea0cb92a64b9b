package archive

import "fmt"

// categorySpec fixes the enumeration order and the queue kinds each content
// category produces. The order and flag keys must stay stable so state from
// older runs keeps its meaning.
type categorySpec struct {
	category  Category
	kind      Kind
	thumbKind Kind // "" when the category has no thumbnails
}

var categories = []categorySpec{
	{CategoryGallery, KindGallery, KindGalleryThumb},
	{CategoryScraps, KindScraps, KindScrapsThumb},
	{CategoryJournals, KindJournal, ""},
}

// Categories returns the fixed category enumeration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = c.category
	}
	return out
}

// collect enumerates every category into the work queue, each one exactly
// once per archive. The completion flag is the only durability boundary: a
// cancelled or failed category discards its in-memory accumulation and is
// retried in full from page 1 on the next run.
func (a *Archiver) collect() (Outcome, error) {
	for _, spec := range categories {
		if a.cancel.Stopped() {
			return OutcomeStopped, nil
		}
		out, err := a.collectCategory(spec)
		if err != nil || out == OutcomeStopped {
			return out, err
		}
	}
	return OutcomeCompleted, nil
}

func (a *Archiver) collectCategory(spec categorySpec) (Outcome, error) {
	flag := CollectionFlag(spec.category)
	done, err := a.store.GetFlag(flag)
	if err != nil {
		return OutcomeCompleted, fmt.Errorf("reading flag %s: %w", flag, err)
	}
	if done {
		a.log.Debug("already collected", "category", spec.category)
		return OutcomeCompleted, nil
	}

	a.log.Info("collecting", "category", spec.category)
	items, out, err := a.listAllPages(spec.category)
	if err != nil || out == OutcomeStopped {
		return out, err
	}

	elements := make([]Element, 0, len(items)*2)
	for _, item := range items {
		elements = append(elements, Element{Kind: spec.kind, RemoteID: item.ID})
		if spec.thumbKind != "" && item.ThumbnailURL != "" {
			elements = append(elements, Element{
				Kind:     spec.thumbKind,
				RemoteID: item.ID,
				AuxData:  item.ThumbnailURL,
			})
		}
	}
	if err := a.store.FinishCategory(flag, elements); err != nil {
		return OutcomeCompleted, fmt.Errorf("enqueueing %s: %w", spec.category, err)
	}
	return OutcomeCompleted, nil
}

// listAllPages accumulates a whole category listing in memory. The
// accumulation is bounded by one artist's item count, which is acceptable
// for the one-shot, one-artist scope.
func (a *Archiver) listAllPages(category Category) ([]ListedItem, Outcome, error) {
	var all []ListedItem
	page := 1
	for {
		if a.cancel.Stopped() {
			return nil, OutcomeStopped, nil
		}
		items, next, err := a.client.ListPage(category, a.artist, page)
		if err != nil {
			return nil, OutcomeCompleted, fmt.Errorf("listing %s page %d: %w", category, page, err)
		}
		a.log.Debug("listing page fetched", "category", category, "page", page, "results", len(items))
		all = append(all, items...)
		switch {
		case next == 0:
			a.log.Debug("listing complete", "category", category, "results", len(all))
			return all, OutcomeCompleted, nil
		case next > page:
			page = next
		default:
			return nil, OutcomeCompleted, fmt.Errorf(
				"listing %s: next page %d <= current page %d: %w", category, next, page, ErrProtocol)
		}
	}
}

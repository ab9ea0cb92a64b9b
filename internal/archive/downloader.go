package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// extensionRE extracts the trailing dot-extension of a payload URL.
var extensionRE = regexp.MustCompile(`(\.[^./]+)$`)

// download drains the work queue, oldest element first. Cancellation is
// checked before claiming, so the in-flight element is always finished and
// closed before a stop is honored. Any fetch or write error propagates
// without closing the element, leaving it open for retry on the next run.
func (a *Archiver) download() (Outcome, error) {
	for {
		if a.cancel.Stopped() {
			return OutcomeStopped, nil
		}
		el, err := a.store.NextOpen()
		if err != nil {
			return OutcomeCompleted, fmt.Errorf("claiming next element: %w", err)
		}
		if el == nil {
			return OutcomeCompleted, nil
		}
		if err := a.downloadElement(el); err != nil {
			return OutcomeCompleted, err
		}
		if err := a.store.CloseElement(el.ID); err != nil {
			return OutcomeCompleted, fmt.Errorf("closing element %d: %w", el.ID, err)
		}
	}
}

func (a *Archiver) downloadElement(el *Element) error {
	switch el.Kind {
	case KindGallery:
		a.log.Info("downloading gallery submission", "id", el.RemoteID)
		return a.downloadSubmission(el.RemoteID, a.layout.GalleryDir)
	case KindGalleryThumb:
		a.log.Info("downloading gallery thumbnail", "id", el.RemoteID)
		return a.downloadThumbnail(el.RemoteID, el.AuxData, a.layout.GalleryDir)
	case KindScraps:
		a.log.Info("downloading scraps submission", "id", el.RemoteID)
		return a.downloadSubmission(el.RemoteID, a.layout.ScrapsDir)
	case KindScrapsThumb:
		a.log.Info("downloading scraps thumbnail", "id", el.RemoteID)
		return a.downloadThumbnail(el.RemoteID, el.AuxData, a.layout.ScrapsDir)
	case KindJournal:
		a.log.Info("downloading journal", "id", el.RemoteID)
		return a.downloadJournal(el.RemoteID)
	default:
		// Only reachable through corrupt queue state.
		return fmt.Errorf("element %d has unknown kind %q: %w", el.ID, el.Kind, ErrInvariant)
	}
}

func (a *Archiver) downloadSubmission(id int64, dir string) error {
	info, payload, err := a.client.FetchSubmission(id)
	if err != nil {
		return fmt.Errorf("fetching submission %d: %w", id, err)
	}
	if err := a.writeMetadata(dir, id, info); err != nil {
		return err
	}
	ext := a.extractExtension(info.FileURL)
	return a.writeBytes(filepath.Join(dir, fmt.Sprintf("%df%s", id, ext)), payload)
}

func (a *Archiver) downloadThumbnail(id int64, url, dir string) error {
	data, err := a.client.FetchRaw(url)
	if err != nil {
		return fmt.Errorf("fetching thumbnail %d: %w", id, err)
	}
	ext := a.extractExtension(url)
	return a.writeBytes(filepath.Join(dir, fmt.Sprintf("%dt%s", id, ext)), data)
}

func (a *Archiver) downloadJournal(id int64) error {
	info, err := a.client.FetchJournal(id)
	if err != nil {
		return fmt.Errorf("fetching journal %d: %w", id, err)
	}
	return a.writeMetadata(a.layout.JournalsDir, id, info)
}

func (a *Archiver) writeMetadata(dir string, id int64, v any) error {
	path := filepath.Join(dir, fmt.Sprintf("%dd.json", id))
	a.log.Debug("writing", "path", path)
	return writeJSONFile(path, v)
}

func (a *Archiver) writeBytes(path string, data []byte) error {
	a.log.Debug("writing", "path", path)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// extractExtension pulls the trailing dot-extension off a source URL. An
// unresolvable extension is a warning, never fatal: the file is written
// without one.
func (a *Archiver) extractExtension(url string) string {
	if m := extensionRE.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	a.log.Warn("unknown file extension", "url", url)
	return ""
}

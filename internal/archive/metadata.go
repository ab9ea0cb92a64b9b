package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// timestampLayout is the fixed, timezone-naive, second-precision rendering
// of archived times.
const timestampLayout = "2006-01-02T15:04:05"

// Timestamp renders without sub-second precision or timezone so that
// re-running the archiver produces byte-identical metadata documents.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON accepts both RFC 3339 (what the site API emits) and the
// archive's own naive layout, so archived documents round-trip.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	for _, layout := range []string{time.RFC3339, timestampLayout} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

// writeJSONFile writes v with deterministic key ordering and fixed two-space
// indentation. Struct fields serialize in declaration order and map keys are
// sorted, so repeated runs produce byte-stable documents.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

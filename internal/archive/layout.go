package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFileName is the durable-state file kept at the archive root.
const DBFileName = "archive.db"

// Layout is the fixed directory structure of one archive.
type Layout struct {
	BaseDir     string
	GalleryDir  string
	ScrapsDir   string
	JournalsDir string
}

func NewLayout(baseDir string) Layout {
	return Layout{
		BaseDir:     baseDir,
		GalleryDir:  filepath.Join(baseDir, "gallery"),
		ScrapsDir:   filepath.Join(baseDir, "scraps"),
		JournalsDir: filepath.Join(baseDir, "journals"),
	}
}

// DBPath returns the state store location for this archive.
func (l Layout) DBPath() string { return filepath.Join(l.BaseDir, DBFileName) }

// Ensure creates the archive directories, reusing any that already exist.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.BaseDir, l.GalleryDir, l.ScrapsDir, l.JournalsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// chunkFileRE matches archive payload filenames: remote id, a role character
// (d = metadata, f = payload, t = thumbnail), then a dot extension.
var chunkFileRE = regexp.MustCompile(`^([0-9]+)([dft])\.`)

// Bounds for the chunk size accepted by Chunk.
const (
	MinChunkSize = 1
	MaxChunkSize = 99999
)

// ValidateChunkSize rejects batch sizes outside [MinChunkSize, MaxChunkSize].
func ValidateChunkSize(size int) error {
	if size < MinChunkSize || size > MaxChunkSize {
		return fmt.Errorf("invalid chunk size %d, must be between %d and %d",
			size, MinChunkSize, MaxChunkSize)
	}
	return nil
}

// chunkItem is one completed item reassembled from the filesystem: up to
// three files grouped by remote id, plus the category directory they live in.
type chunkItem struct {
	id       int64
	location string // "gallery" or "scraps"
	data     string // metadata document path
	file     string // payload path
	thumb    string // thumbnail path
}

// Chunker repartitions a fully drained archive into fixed-size batches for
// bulk import into another tool. It reads the completed filesystem layout,
// not the work queue; the store is only consulted to verify the archive has
// nothing left to download.
type Chunker struct {
	layout Layout
	store  Store
	log    Logger
}

func NewChunker(layout Layout, store Store, log Logger) *Chunker {
	if log == nil {
		log = NewNopLogger()
	}
	return &Chunker{layout: layout, store: store, log: log}
}

// Chunk splits the archive into batches of size items each, written under
// chunk<size>/ in the archive directory. Batches are numbered from 00001 and
// hold items in ascending remote-id order across both payload directories.
func (c *Chunker) Chunk(size int) error {
	if err := ValidateChunkSize(size); err != nil {
		return err
	}
	open, err := c.store.CountOpen()
	if err != nil {
		return fmt.Errorf("counting open elements: %w", err)
	}
	if open != 0 {
		return fmt.Errorf("%d element(s) left to download: %w", open, ErrIncompleteArchive)
	}

	items, err := c.gather()
	if err != nil {
		return err
	}
	if err := c.writeChunks(items, size); err != nil {
		return err
	}
	c.log.Info("done splitting archive into chunks",
		"items", len(items), "chunks", (len(items)+size-1)/size)
	return nil
}

// gather scans both payload directories and groups matched files into items,
// sorted by remote id across the two directories.
func (c *Chunker) gather() ([]chunkItem, error) {
	var items []chunkItem
	for _, src := range []struct{ dir, location string }{
		{c.layout.GalleryDir, "gallery"},
		{c.layout.ScrapsDir, "scraps"},
	} {
		found, err := c.gatherFrom(src.dir, src.location)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })
	return items, nil
}

func (c *Chunker) gatherFrom(dir, location string) ([]chunkItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	byID := make(map[int64]*chunkItem)
	var order []int64
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		m := chunkFileRE.FindStringSubmatch(entry.Name())
		if m == nil {
			c.log.Warn("not an archive file", "path", path)
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			c.log.Warn("not an archive file", "path", path)
			continue
		}

		item := byID[id]
		if item == nil {
			item = &chunkItem{id: id, location: location}
			byID[id] = item
			order = append(order, id)
		}
		switch m[2] {
		case "d":
			item.data = path
		case "f":
			item.file = path
		case "t":
			item.thumb = path
		}
	}

	items := make([]chunkItem, 0, len(order))
	for _, id := range order {
		items = append(items, *byID[id])
	}
	return items, nil
}

func (c *Chunker) writeChunks(items []chunkItem, size int) error {
	baseDir := filepath.Join(c.layout.BaseDir, fmt.Sprintf("chunk%d", size))
	if err := os.Mkdir(baseDir, 0755); err != nil {
		return fmt.Errorf("creating chunk directory: %w", err)
	}
	for index := 0; index*size < len(items); index++ {
		end := (index + 1) * size
		if end > len(items) {
			end = len(items)
		}
		if err := c.writeChunk(baseDir, index, items[index*size:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunker) writeChunk(baseDir string, index int, items []chunkItem) error {
	chunkDir := filepath.Join(baseDir, fmt.Sprintf("%05d", index+1))
	c.log.Info("creating chunk", "dir", chunkDir)

	galleryDir := filepath.Join(chunkDir, "gallery")
	scrapsDir := filepath.Join(chunkDir, "scraps")
	for _, dir := range []string{chunkDir, galleryDir, scrapsDir} {
		if err := os.Mkdir(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	marker := filepath.Join(chunkDir, "archive.chunk")
	if err := os.WriteFile(marker, []byte(fmt.Sprintf("%d\n", index)), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", marker, err)
	}

	for _, item := range items {
		target := galleryDir
		if item.location == "scraps" {
			target = scrapsDir
		}
		for _, src := range []string{item.data, item.file, item.thumb} {
			if src == "" {
				continue
			}
			if err := copyFile(src, filepath.Join(target, filepath.Base(src))); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

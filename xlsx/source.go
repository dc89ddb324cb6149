package xlsx

import (
	"os"
	"sync"
	"time"
)

// Source supplies the current rows of the local spreadsheet.
type Source interface {
	Rows() ([]Row, error)
}

// File re-parses the spreadsheet on every call.
type File struct {
	Path  string
	Sheet string
}

func (f File) Rows() ([]Row, error) {
	return Load(f.Path, f.Sheet)
}

// Cache keeps the parsed rows until the file changes on disk or Invalidate is called. The returned
// rows are shared and must not be modified.
type Cache struct {
	File

	mu    sync.RWMutex
	valid bool
	size  int64
	mtime time.Time
	rows  []Row
}

func NewCache(path, sheet string) *Cache {
	return &Cache{
		File: File{
			Path:  path,
			Sheet: sheet,
		},
	}
}

func (c *Cache) Rows() ([]Row, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	if c.valid && c.size == info.Size() && c.mtime.Equal(info.ModTime()) {
		rows := c.rows
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.size == info.Size() && c.mtime.Equal(info.ModTime()) {
		return c.rows, nil
	}

	rows, err := c.File.Rows()
	if err != nil {
		c.valid = false
		c.rows = nil
		return nil, err
	}

	c.valid = true
	c.size = info.Size()
	c.mtime = info.ModTime()
	c.rows = rows

	return rows, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.rows = nil
}

// Package sink stores diagnostic crops produced during an analysis.
package sink

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/menta2k/ph-analyzer/internal/utils"
	"github.com/menta2k/ph-analyzer/pkg/processing"
)

// Options controls how crops are encoded
type Options struct {
	Format   string
	Quality  int
	Lossless bool
}

// DefaultOptions encodes crops as JPEG at quality 95.
func DefaultOptions() Options {
	return Options{Format: processing.FormatJPEG, Quality: 95}
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = processing.FormatJPEG
	}
	if o.Quality <= 0 {
		o.Quality = 95
	}
	return o
}

// objectName returns a unique name such as "pad_<uuid>.jpg".
func objectName(label string, o Options) string {
	return fmt.Sprintf("%s_%s%s", utils.SanitizeFilename(label), uuid.New().String(), processing.Extension(o.Format))
}

// File writes crops into a directory and returns their paths.
type File struct {
	dir       string
	options   Options
	processor *processing.Processor
}

// NewFile creates a file sink rooted at dir, creating it if needed.
func NewFile(dir string, options Options) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("sink directory is required")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	return &File{
		dir:       dir,
		options:   options.withDefaults(),
		processor: processing.NewProcessor(),
	}, nil
}

// Save writes img to a uniquely named file.
func (f *File) Save(img image.Image, label string) (string, error) {
	path := filepath.Join(f.dir, objectName(label, f.options))
	if err := f.processor.SaveImage(img, path, f.options.Format, f.options.Quality, f.options.Lossless); err != nil {
		return "", fmt.Errorf("failed to save %s crop: %w", label, err)
	}
	return path, nil
}

// Item is one crop held by a Memory sink.
type Item struct {
	Handle string
	Label  string
	Image  image.Image
	Data   []byte
}

// Memory keeps encoded crops in memory. It is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	options   Options
	processor *processing.Processor
	items     []Item
}

// NewMemory creates an in-memory sink.
func NewMemory(options Options) *Memory {
	return &Memory{
		options:   options.withDefaults(),
		processor: processing.NewProcessor(),
	}
}

// Save encodes img and stores it under a "mem://" handle.
func (m *Memory) Save(img image.Image, label string) (string, error) {
	var buf bytes.Buffer
	if err := m.processor.EncodeImage(&buf, img, m.options.Format, m.options.Quality, m.options.Lossless); err != nil {
		return "", fmt.Errorf("failed to encode %s crop: %w", label, err)
	}

	handle := "mem://" + objectName(label, m.options)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, Item{Handle: handle, Label: label, Image: img, Data: buf.Bytes()})
	return handle, nil
}

// Items returns a copy of the stored crops in save order.
func (m *Memory) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...)
}

// Get returns the crop stored under handle.
func (m *Memory) Get(handle string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Handle == handle {
			return it, true
		}
	}
	return Item{}, false
}

// Reset drops all stored crops.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
}

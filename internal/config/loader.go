package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/extreg/internal/ctxlog"
	"github.com/specialistvlad/extreg/internal/fsutil"
)

// Loader reads descriptor files into a Model.
type Loader interface {
	// Load reads every supported file found under paths. Paths may name
	// directories or single files.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// FileDecoder is implemented by each format adapter.
type FileDecoder interface {
	// Extensions lists the file suffixes the decoder handles, e.g. ".yaml".
	Extensions() []string
	// DecodeFile decodes the content of one file.
	DecodeFile(ctx context.Context, filename string, src []byte) (*Model, error)
}

// Multi is a Loader dispatching each file to the decoder owning its extension.
type Multi struct {
	decoders map[string]FileDecoder
	exts     []string
}

var _ Loader = (*Multi)(nil)

// NewMulti builds a loader from decoders. Later decoders win when two claim
// the same extension.
func NewMulti(decoders ...FileDecoder) *Multi {
	m := &Multi{decoders: make(map[string]FileDecoder)}
	for _, d := range decoders {
		for _, ext := range d.Extensions() {
			if _, ok := m.decoders[ext]; !ok {
				m.exts = append(m.exts, ext)
			}
			m.decoders[ext] = d
		}
	}
	return m
}

// Extensions returns every supported file suffix.
func (m *Multi) Extensions() []string {
	return append([]string(nil), m.exts...)
}

// Load implements Loader.
func (m *Multi) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Config loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, m.exts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered descriptor files.", "count", len(files))

	model := NewModel()
	for _, file := range files {
		dec := m.decoderFor(file)
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		part, err := dec.DecodeFile(ctx, file, src)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		logger.Debug("Loaded descriptor file.", "file", file, "resources", len(part.Resources))
	}

	logger.Debug("Config loading complete.", "files", len(files), "resources", len(model.Resources), "extensions", len(model.Options))
	return model, nil
}

func (m *Multi) decoderFor(file string) FileDecoder {
	if d, ok := m.decoders[filepath.Ext(file)]; ok {
		return d
	}
	// Multi-dot suffixes such as ".extreg.json".
	for _, ext := range m.exts {
		if strings.HasSuffix(file, ext) {
			return m.decoders[ext]
		}
	}
	return nil
}

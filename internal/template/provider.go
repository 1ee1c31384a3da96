package template

// Package template supplies PDF template bytes to the fill pipeline. The
// asset is logically read-only: providers cache immutable bytes and hand out
// a fresh copy per request, so no parsed document is ever shared between
// concurrent fills.

import (
	"context"
	"fmt"
	"os"
	"sync"

	"elysium/internal/pdf"
)

// Provider yields the bytes of a sheet template.
type Provider interface {
	// Bytes returns a copy of the template document the caller may freely
	// hand to the filler.
	Bytes(ctx context.Context) ([]byte, error)
}

// Local serves a template bundled with the service from the local
// filesystem. The file is read and validated once; later calls reuse the
// cached bytes.
type Local struct {
	path string

	once sync.Once
	data []byte
	err  error
}

// NewLocal creates a provider for the template asset at path. The file is
// not touched until the first request.
func NewLocal(path string) *Local {
	return &Local{path: path}
}

// Bytes loads the template on first use and returns a copy of it.
func (l *Local) Bytes(ctx context.Context) ([]byte, error) {
	l.once.Do(func() {
		data, err := os.ReadFile(l.path)
		if err != nil {
			l.err = fmt.Errorf("%w: reading %s: %v", pdf.ErrTemplateLoad, l.path, err)
			return
		}
		// Reject assets that are not form documents up front instead of on
		// every generation request.
		if _, err := pdf.Inspect(data); err != nil {
			l.err = fmt.Errorf("template asset %s: %w", l.path, err)
			return
		}
		l.data = data
	})
	if l.err != nil {
		return nil, l.err
	}
	out := make([]byte, len(l.data))
	copy(out, l.data)
	return out, nil
}

// Static serves fixed in-memory template bytes. Useful for tests and for
// registry templates already fetched from object storage.
type Static struct {
	data []byte
}

// NewStatic wraps template bytes in a Provider.
func NewStatic(data []byte) *Static {
	return &Static{data: data}
}

// Bytes returns a copy of the wrapped template.
func (s *Static) Bytes(ctx context.Context) ([]byte, error) {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

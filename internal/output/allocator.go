// Package output manages the output namespace: one uniquely named file per
// successfully classified document.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Allocator hands out unique output names within a single directory.
// Multiple documents may classify to the identical code within one batch,
// so the check-then-reserve sequence is a critical section: the mutex
// serializes concurrent allocations and the O_EXCL placeholder is the
// reservation itself, not the suffix arithmetic.
type Allocator struct {
	root    string
	ceiling int

	mu sync.Mutex
}

// New creates an allocator over the given output directory, creating it if
// needed. ceiling bounds the duplicate suffix search to catch pathological
// repeats rather than loop unbounded.
func New(root string, ceiling int) (*Allocator, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %w", ErrWrite, err)
	}
	return &Allocator{root: root, ceiling: ceiling}, nil
}

// Allocate reserves a free output name for the given code base and
// extension. The first holder of a code gets "<base><ext>"; collisions get
// "<base>__001<ext>", "<base>__002<ext>", and so on with no gaps. The
// returned path points at a zero-byte placeholder the caller must fill.
func (a *Allocator) Allocate(base, ext string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; n <= a.ceiling; n++ {
		name := base + ext
		if n > 0 {
			name = fmt.Sprintf("%s__%03d%s", base, n, ext)
		}
		path := filepath.Join(a.root, name)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("%w: reserve %s: %w", ErrWrite, name, err)
		}
	}

	return "", fmt.Errorf("%w: code %s exceeded %d duplicates", ErrExhausted, base, a.ceiling)
}

// Place copies the source document into the reserved slot. On failure the
// placeholder is removed so the namespace holds no partial entries.
func (a *Allocator) Place(src, reserved string) error {
	in, err := os.Open(src)
	if err != nil {
		return a.fail(reserved, fmt.Errorf("%w: open source: %w", ErrWrite, err))
	}
	defer in.Close()

	out, err := os.OpenFile(reserved, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return a.fail(reserved, fmt.Errorf("%w: open reservation: %w", ErrWrite, err))
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return a.fail(reserved, fmt.Errorf("%w: copy document: %w", ErrWrite, err))
	}

	if err := out.Close(); err != nil {
		return a.fail(reserved, fmt.Errorf("%w: close output: %w", ErrWrite, err))
	}
	return nil
}

// Release removes a reservation that will not be filled.
func (a *Allocator) Release(reserved string) {
	os.Remove(reserved)
}

func (a *Allocator) fail(reserved string, err error) error {
	a.Release(reserved)
	return err
}

package window

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// DefaultMaxLength bounds the window length a table accepts (1M samples)
const DefaultMaxLength = 1 << 20

// Table computes and caches window coefficients. It is used during setup;
// the real-time path reads the FrozenTable returned by Freeze.
type Table struct {
	mu        sync.RWMutex
	entries   map[Spec]*Buffer
	maxLength int
	frozen    *FrozenTable
	logger    logging.Logger
}

// TableOption configures a Table
type TableOption func(*Table)

// WithMaxLength sets the largest accepted window length
func WithMaxLength(n int) TableOption {
	return func(t *Table) {
		if n > 0 {
			t.maxLength = n
		}
	}
}

// WithLogger replaces the table logger
func WithLogger(logger logging.Logger) TableOption {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTable creates an empty, unfrozen window table
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		entries:   make(map[Spec]*Buffer),
		maxLength: DefaultMaxLength,
		logger: logging.WithFields(logging.Fields{
			"component": "window_table",
		}),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// MaxLength returns the largest accepted window length
func (t *Table) MaxLength() int {
	return t.maxLength
}

// GetOrCompute returns the buffer for spec, computing it on first request.
// Repeated calls with an equal spec return the same *Buffer. Computing a new
// spec allocates and takes the write lock, so it must only happen during setup.
func (t *Table) GetOrCompute(spec Spec) (*Buffer, error) {
	t.mu.RLock()
	buf, ok := t.entries[spec]
	t.mu.RUnlock()
	if ok {
		return buf, nil
	}

	if spec.Length < 1 || spec.Length > t.maxLength {
		return nil, &InvalidLengthError{Length: spec.Length, Max: t.maxLength}
	}
	if !spec.Type.valid() {
		panic(&UnsupportedWindowTypeError{Type: spec.Type})
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if buf, ok := t.entries[spec]; ok {
		return buf, nil
	}

	if t.frozen != nil {
		return nil, fmt.Errorf("%w: cannot add %s", ErrFrozen, spec)
	}

	logger := t.logger.WithFields(logging.Fields{
		"function":        "GetOrCompute",
		"window_type":     spec.Type.String(),
		"window_size":     spec.Length,
		"window_symmetry": spec.Symmetry.String(),
	})

	values, err := Compute(spec)
	if err != nil {
		logger.Error(err, "Failed to generate window coefficients")
		return nil, err
	}

	buf = newBuffer(spec, values)
	t.entries[spec] = buf

	logger.Debug("Window generated", logging.Fields{
		"coherent_gain": buf.CoherentGain(),
		"enbw":          buf.ENBW(),
		"cached":        len(t.entries),
	})

	return buf, nil
}

// Prewarm computes every spec, stopping at the first error
func (t *Table) Prewarm(specs ...Spec) error {
	for _, spec := range specs {
		if _, err := t.GetOrCompute(spec); err != nil {
			return fmt.Errorf("failed to prewarm window %s: %w", spec, err)
		}
	}
	return nil
}

// Freeze stops further insertions and returns an immutable view of the
// table. Calling Freeze again returns the same view.
func (t *Table) Freeze() *FrozenTable {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen == nil {
		t.frozen = &FrozenTable{entries: maps.Clone(t.entries)}
		t.logger.Debug("Window table frozen", logging.Fields{
			"entries": len(t.entries),
		})
	}
	return t.frozen
}

// Frozen reports whether Freeze has been called
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen != nil
}

// Len returns the number of cached buffers
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// FrozenTable is the read-only lookup produced by Table.Freeze. Its mapping
// never changes, so lookups need no synchronization.
type FrozenTable struct {
	entries map[Spec]*Buffer
}

// Lookup returns the buffer for spec if it was computed before the freeze
func (f *FrozenTable) Lookup(spec Spec) (*Buffer, bool) {
	buf, ok := f.entries[spec]
	return buf, ok
}

// MustLookup is Lookup for specs known to be pre-warmed. It panics otherwise.
func (f *FrozenTable) MustLookup(spec Spec) *Buffer {
	buf, ok := f.entries[spec]
	if !ok {
		panic(fmt.Sprintf("window %s was not pre-warmed", spec))
	}
	return buf
}

// Len returns the number of frozen buffers
func (f *FrozenTable) Len() int {
	return len(f.entries)
}

// Specs returns the frozen specs ordered by type, length and symmetry
func (f *FrozenTable) Specs() []Spec {
	specs := slices.Collect(maps.Keys(f.entries))
	slices.SortFunc(specs, func(a, b Spec) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Length, b.Length),
			cmp.Compare(a.Symmetry, b.Symmetry),
		)
	})
	return specs
}

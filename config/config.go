// Package config loads pool-manager tuning knobs from YAML, giving an
// operator driving many pools through the registry a way to adjust
// growth behavior without recompiling.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/segmentlab/mempool/internal/backing"
	"github.com/segmentlab/mempool/pool"
)

// Tuning holds the growable-array parameters a Pool is opened with.
// Zero values are replaced by Defaults() before use.
type Tuning struct {
	// InitialNodeCapacity is the node arena's starting size.
	InitialNodeCapacity int `yaml:"initialNodeCapacity"`
	// InitialGapCapacity is the gap index's starting size.
	InitialGapCapacity int `yaml:"initialGapCapacity"`
	// MaxNodeCapacity caps node-arena growth; 0 means unbounded. A
	// non-zero value models a host allocator that can refuse further
	// growth, surfacing ErrOutOfMemory instead of growing forever.
	MaxNodeCapacity int `yaml:"maxNodeCapacity"`
	// MaxGapCapacity caps gap-index growth; 0 means unbounded.
	MaxGapCapacity int `yaml:"maxGapCapacity"`
	// BackingKind selects how the backing buffer is acquired: "heap" or
	// "mmap". Empty means "heap".
	BackingKind string `yaml:"backingKind"`
}

// Defaults returns the tuning spec section 4.6 describes: initial
// capacity 40 for both the node arena and the gap index, no caps, heap
// backing.
func Defaults() Tuning {
	return Tuning{
		InitialNodeCapacity: 40,
		InitialGapCapacity:  40,
		BackingKind:         "heap",
	}
}

// WithDefaults fills any zero-valued field of t from Defaults().
func (t Tuning) WithDefaults() Tuning {
	d := Defaults()

	if t.InitialNodeCapacity == 0 {
		t.InitialNodeCapacity = d.InitialNodeCapacity
	}

	if t.InitialGapCapacity == 0 {
		t.InitialGapCapacity = d.InitialGapCapacity
	}

	if t.BackingKind == "" {
		t.BackingKind = d.BackingKind
	}

	return t
}

// Load reads a YAML tuning document from path, applying defaults to
// any field the document omits.
func Load(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, errors.Wrapf(err, "config: read %v", path)
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, errors.Wrapf(err, "config: parse %v", path)
	}

	return t.WithDefaults(), nil
}

// PoolOptions converts a loaded Tuning document, plus a placement
// policy (which is chosen per call site, not persisted in the tuning
// document), into the pool.Options a registry opens a pool with. This
// is the operator-facing path spec section 4.2/4.3's growth knobs are
// tunable through without recompiling.
func (t Tuning) PoolOptions(policy pool.Policy) (pool.Options, error) {
	t = t.WithDefaults()

	opts := pool.DefaultOptions()
	opts.Policy = policy
	opts.InitialNodeCapacity = t.InitialNodeCapacity
	opts.InitialGapCapacity = t.InitialGapCapacity
	opts.MaxNodeCapacity = t.MaxNodeCapacity
	opts.MaxGapCapacity = t.MaxGapCapacity

	switch t.BackingKind {
	case "heap":
		opts.BackingKind = backing.Heap
	case "mmap":
		opts.BackingKind = backing.Mmap
	default:
		return pool.Options{}, errors.Errorf("config: unknown backingKind %q", t.BackingKind)
	}

	return opts, nil
}

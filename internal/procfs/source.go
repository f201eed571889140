// Package procfs reads raw counters from a proc-format filesystem.
//
// Every reader takes one pass over one file and returns values exactly
// as the kernel reports them. Rate math and aggregation live upstream;
// nothing here keeps state between calls.
package procfs

import (
	"errors"

	"github.com/rs/zerolog"
)

// DefaultRoot is where the kernel mounts procfs.
const DefaultRoot = "/proc"

// ErrMalformed reports content that does not match the expected
// format. Callers treat it like any read failure: skip the value for
// this cycle.
var ErrMalformed = errors.New("malformed procfs content")

// Source reads counters from one procfs tree. The root is fixed at
// construction; tests point it at a fixture directory.
type Source struct {
	root string
	log  zerolog.Logger
}

// New returns a Source rooted at root, or DefaultRoot when empty.
func New(root string, log zerolog.Logger) *Source {
	if root == "" {
		root = DefaultRoot
	}
	return &Source{root: root, log: log}
}

// Root returns the procfs mount this source reads from.
func (s *Source) Root() string { return s.root }

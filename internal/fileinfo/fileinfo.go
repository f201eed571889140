// Package fileinfo reads file and directory metadata for the files
// view: long-listing entries, a bounded directory tree, and name
// search. Owners and groups resolve through the shared ident table.
package fileinfo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"procscope/internal/ident"
)

// Walk bounds. Trees deeper than a few levels and unbounded searches
// make the UI unusable long before they finish.
const (
	DefaultMaxTreeDepth     = 3
	DefaultMaxSearchResults = 100
)

// Entry is one filesystem object as shown in a long listing.
type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
	SizeLabel   string    `json:"size_label"`
	Permissions string    `json:"permissions"`
	Octal       string    `json:"octal"`
	Owner       string    `json:"owner"`
	Group       string    `json:"group"`
	Modified    time.Time `json:"modified"`
	Accessed    time.Time `json:"accessed"`
	Changed     time.Time `json:"changed"`
	IsDir       bool      `json:"is_dir"`
	IsLink      bool      `json:"is_link"`
	LinkTarget  string    `json:"link_target,omitempty"`
	Inode       uint64    `json:"inode"`
	Links       uint64    `json:"links"`
	Kind        string    `json:"kind"`
}

// TreeNode is one directory in a depth-bounded tree.
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Children []TreeNode `json:"children"`
}

// Browser reads metadata anywhere on the filesystem. The caps are
// fields so tests and callers can narrow them.
type Browser struct {
	idents *ident.Table
	log    zerolog.Logger

	MaxTreeDepth     int
	MaxSearchResults int
}

// NewBrowser returns a Browser resolving ownership through idents.
func NewBrowser(idents *ident.Table, log zerolog.Logger) *Browser {
	return &Browser{
		idents:           idents,
		log:              log,
		MaxTreeDepth:     DefaultMaxTreeDepth,
		MaxSearchResults: DefaultMaxSearchResults,
	}
}

// Stat describes one path without following symlinks.
func (b *Browser) Stat(path string) (Entry, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}

	e := Entry{
		Name:        filepath.Base(path),
		Path:        path,
		SizeBytes:   st.Size,
		SizeLabel:   formatSize(float64(st.Size)),
		Permissions: permString(st.Mode),
		Octal:       fmt.Sprintf("%03o", st.Mode&0o777),
		Owner:       b.idents.User(st.Uid),
		Group:       b.idents.Group(st.Gid),
		Modified:    time.Unix(st.Mtim.Unix()),
		Accessed:    time.Unix(st.Atim.Unix()),
		Changed:     time.Unix(st.Ctim.Unix()),
		IsDir:       st.Mode&unix.S_IFMT == unix.S_IFDIR,
		IsLink:      st.Mode&unix.S_IFMT == unix.S_IFLNK,
		Inode:       st.Ino,
		Links:       uint64(st.Nlink),
	}

	if e.IsLink {
		if target, err := os.Readlink(path); err == nil {
			e.LinkTarget = target
		} else {
			e.LinkTarget = "?"
		}
	}

	switch {
	case e.IsDir:
		e.Kind = "directory"
	case e.IsLink:
		e.Kind = "link"
	default:
		if ext := strings.TrimPrefix(filepath.Ext(e.Name), "."); ext != "" {
			e.Kind = strings.ToUpper(ext) + " file"
		} else {
			e.Kind = "file"
		}
	}
	return e, nil
}

// List returns a directory's entries, directories first, each group in
// case-insensitive name order. Entries that cannot be stat'ed and
// directories that cannot be read yield what could be read, silently.
func (b *Browser) List(dir string) []Entry {
	names, err := os.ReadDir(dir)
	if err != nil {
		b.log.Debug().Str("dir", dir).Err(err).Msg("directory unreadable")
		return nil
	}

	entries := make([]Entry, 0, len(names))
	for _, de := range names {
		e, err := b.Stat(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries
}

// Tree builds the directory tree under root. Hidden directories are
// skipped and recursion stops below MaxTreeDepth; deeper directories
// appear as leaves.
func (b *Browser) Tree(root string) TreeNode {
	return b.tree(root, 0)
}

func (b *Browser) tree(path string, depth int) TreeNode {
	node := TreeNode{Name: filepath.Base(path), Path: path}
	if depth > b.MaxTreeDepth {
		return node
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return node
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		node.Children = append(node.Children, b.tree(filepath.Join(path, name), depth+1))
	}
	return node
}

// Search walks dir for files whose name contains pattern, case
// insensitively, skipping hidden directories and stopping at
// MaxSearchResults. Unreadable subtrees are skipped, not errors.
func (b *Browser) Search(dir, pattern string) []Entry {
	pattern = strings.ToLower(pattern)
	var results []Entry

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.Contains(strings.ToLower(d.Name()), pattern) {
			return nil
		}
		e, statErr := b.Stat(path)
		if statErr != nil {
			return nil
		}
		results = append(results, e)
		if len(results) >= b.MaxSearchResults {
			return filepath.SkipAll
		}
		return nil
	})
	return results
}

// permString renders the classic ls mode column: a type letter and
// three rwx triplets. Setuid and sticky bits are not shown.
func permString(mode uint32) string {
	var b [10]byte
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		b[0] = 'd'
	case unix.S_IFLNK:
		b[0] = 'l'
	case unix.S_IFREG:
		b[0] = '-'
	case unix.S_IFBLK:
		b[0] = 'b'
	case unix.S_IFCHR:
		b[0] = 'c'
	case unix.S_IFIFO:
		b[0] = 'p'
	case unix.S_IFSOCK:
		b[0] = 's'
	default:
		b[0] = '?'
	}
	const bits = "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if mode&(1<<uint(8-i)) != 0 {
			b[i+1] = bits[i]
		} else {
			b[i+1] = '-'
		}
	}
	return string(b[:])
}

// formatSize renders a byte count with one decimal and a binary unit.
func formatSize(size float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", size)
}

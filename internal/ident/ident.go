// Package ident resolves numeric user and group ids to names.
//
// The passwd and group databases are read once at startup into an
// in-memory table that is injected wherever names are displayed, so
// per-process lookups during a sampling cycle never touch the
// filesystem.
package ident

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	passwdPath = "/etc/passwd"
	groupPath  = "/etc/group"
)

// Table maps uids and gids to names. Immutable after Load.
type Table struct {
	users  map[uint32]string
	groups map[uint32]string
}

// Load builds a Table from the system databases. Either database being
// unreadable is tolerated: lookups then fall back to numeric labels.
func Load(log zerolog.Logger) *Table {
	return LoadPaths(log, passwdPath, groupPath)
}

// LoadPaths is Load with explicit database paths, for tests.
func LoadPaths(log zerolog.Logger, passwd, group string) *Table {
	t := &Table{
		users:  parseColonDB(passwd, 2),
		groups: parseColonDB(group, 2),
	}
	if len(t.users) == 0 {
		log.Warn().Str("path", passwd).Msg("no users loaded, owners will show numeric uids")
	}
	log.Debug().Int("users", len(t.users)).Int("groups", len(t.groups)).Msg("identity table loaded")
	return t
}

// parseColonDB reads a passwd-format file and maps the numeric id in
// column idCol to the name in column 0. Lines that do not parse are
// skipped.
func parseColonDB(path string, idCol int) map[uint32]string {
	out := make(map[uint32]string)
	f, err := os.Open(path)
	if err != nil {
		return out
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) <= idCol {
			continue
		}
		id, err := strconv.ParseUint(parts[idCol], 10, 32)
		if err != nil {
			continue
		}
		out[uint32(id)] = parts[0]
	}
	return out
}

// User returns the name for uid, or "UID:<n>" when unknown.
func (t *Table) User(uid uint32) string {
	if name, ok := t.users[uid]; ok {
		return name
	}
	return fmt.Sprintf("UID:%d", uid)
}

// Group returns the name for gid, or "GID:<n>" when unknown.
func (t *Table) Group(gid uint32) string {
	if name, ok := t.groups[gid]; ok {
		return name
	}
	return fmt.Sprintf("GID:%d", gid)
}

package proctable

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"procscope/internal/model"
)

// fdInfoExcerpt bounds how much of a kernel fdinfo entry rides along
// with a semaphore-like descriptor.
const fdInfoExcerpt = 256

// Details returns the full status table and command line for one
// process. ok is false when the process is gone or its status is
// unreadable; a kernel thread's empty command line is simply absent.
func (c *Catalog) Details(pid uint32) (model.ProcessDetails, bool) {
	dir := c.procDir(pid)

	f, err := os.Open(filepath.Join(dir, "status"))
	if err != nil {
		return model.ProcessDetails{}, false
	}
	defer f.Close()

	status := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if key, value, ok := splitStatusLine(sc.Text()); ok {
			status[key] = value
		}
	}

	return model.ProcessDetails{PID: pid, Status: status, CommandLine: c.CommandLine(pid)}, true
}

// CommandLine returns a process's command line with the NUL separators
// replaced by spaces. Kernel threads and vanished processes yield "".
func (c *Catalog) CommandLine(pid uint32) string {
	raw, err := os.ReadFile(filepath.Join(c.procDir(pid), "cmdline"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(string(raw), "\x00", " "))
}

// ResidentKB returns the resident set size of one process.
func (c *Catalog) ResidentKB(pid uint32) (uint64, bool) {
	f, err := os.Open(filepath.Join(c.procDir(pid), "status"))
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := splitStatusLine(sc.Text())
		if !ok || key != "VmRSS" {
			continue
		}
		if kb, ok := firstUint(value, 64); ok {
			return kb, true
		}
		return 0, false
	}
	return 0, false
}

// PageUsage buckets a process's mappings from <pid>/smaps. Every Size
// line counts toward the total; a [heap], [stack] or .text region
// header routes the next Size value into its bucket as well. An
// unreadable file (permission, exit race) yields the zero value.
func (c *Catalog) PageUsage(pid uint32) model.PageUsage {
	f, err := os.Open(filepath.Join(c.procDir(pid), "smaps"))
	if err != nil {
		return model.PageUsage{}
	}
	defer f.Close()

	var usage model.PageUsage
	var bucket *uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "Size:"):
			kb, ok := firstUint(strings.TrimPrefix(line, "Size:"), 64)
			if !ok {
				bucket = nil
				continue
			}
			usage.TotalKB += kb
			if bucket != nil {
				*bucket += kb
				bucket = nil
			}
		case strings.Contains(line, "[heap]"):
			bucket = &usage.HeapKB
		case strings.Contains(line, "[stack]"):
			bucket = &usage.StackKB
		case strings.Contains(line, ".text"):
			bucket = &usage.CodeKB
		}
	}
	return usage
}

// AllPageUsage maps every enumerable PID with at least one nonzero
// bucket to its page usage. This walks smaps for the whole table, so
// it is for on-demand views, not the sampling loop.
func (c *Catalog) AllPageUsage() map[uint32]model.PageUsage {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil
	}
	out := make(map[uint32]model.PageUsage)
	for _, e := range entries {
		pid, err := strconv.ParseUint(e.Name(), 10, 32)
		if err != nil {
			continue
		}
		usage := c.PageUsage(uint32(pid))
		if usage != (model.PageUsage{}) {
			out[uint32(pid)] = usage
		}
	}
	return out
}

// OpenResources classifies a process's open descriptors by their link
// targets: sockets by the socket:[inode] form, semaphores by POSIX
// named-semaphore backing files or eventfd descriptors, everything
// else as a plain open file. Reading another user's fd table needs
// privilege; failure yields the zero value.
func (c *Catalog) OpenResources(pid uint32) model.OpenResources {
	fdDir := filepath.Join(c.procDir(pid), "fd")
	entries, err := os.ReadDir(fdDir)
	if err != nil {
		c.log.Debug().Uint32("pid", pid).Err(err).Msg("fd table unreadable")
		return model.OpenResources{}
	}

	fds := make([]int, 0, len(entries))
	for _, e := range entries {
		fd, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		fds = append(fds, fd)
	}
	sort.Ints(fds)

	var res model.OpenResources
	for _, fd := range fds {
		name := strconv.Itoa(fd)
		target, err := os.Readlink(filepath.Join(fdDir, name))
		if err != nil {
			continue
		}
		info := model.FDInfo{FD: name, Target: target}
		switch {
		case strings.HasPrefix(target, "socket:["):
			res.Sockets = append(res.Sockets, info)
		case strings.Contains(target, "/dev/shm/sem."):
			info.Info = c.readFDInfo(pid, name)
			res.Semaphores = append(res.Semaphores, info)
		case strings.HasPrefix(target, "anon_inode:") && strings.Contains(target, "eventfd"):
			info.Info = c.readFDInfo(pid, name)
			res.Semaphores = append(res.Semaphores, info)
		default:
			res.OpenFiles = append(res.OpenFiles, info)
		}
	}
	return res
}

// readFDInfo returns a bounded excerpt of <pid>/fdinfo/<fd>.
func (c *Catalog) readFDInfo(pid uint32, fd string) string {
	b, err := os.ReadFile(filepath.Join(c.procDir(pid), "fdinfo", fd))
	if err != nil {
		return ""
	}
	s := strings.TrimSpace(string(b))
	if len(s) > fdInfoExcerpt {
		s = s[:fdInfoExcerpt]
	}
	return s
}

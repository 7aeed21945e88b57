// Package lock makes a profile directory single-writer across processes.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file created inside a profile directory.
const FileName = "LOCK"

// Owner is what the holder writes into the lock file.
type Owner struct {
	PID     int
	Program string
	Since   time.Time
}

func (o Owner) encode() string {
	return fmt.Sprintf("pid=%d\nprogram=%s\nsince=%s\n", o.PID, o.Program, o.Since.UTC().Format(time.RFC3339))
}

func parseOwner(content string) Owner {
	var o Owner
	for line := range strings.SplitSeq(content, "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.PID, _ = strconv.Atoi(val)
		case "program":
			o.Program = val
		case "since":
			o.Since, _ = time.Parse(time.RFC3339, val)
		}
	}
	return o
}

// HeldError is returned when another process already has the profile open.
type HeldError struct {
	Owner
	Path string
}

func (e *HeldError) Error() string {
	if e.Program != "" {
		return fmt.Sprintf("profile in use by %s (PID %d, %s)", e.Program, e.PID, e.Path)
	}
	return fmt.Sprintf("profile in use by PID %d (%s)", e.PID, e.Path)
}

// Lock is an acquired profile lock. Holding it makes this process the only
// writer of the profile's session record and outbox.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking flock on dir/LOCK and records
// the current process as owner.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		data, _ := os.ReadFile(path)
		_ = f.Close()
		return nil, &HeldError{Owner: parseOwner(string(data)), Path: path}
	}

	me := Owner{PID: os.Getpid(), Program: filepath.Base(os.Args[0]), Since: time.Now()}
	if err := writeOwner(f, me); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

func writeOwner(f *os.File, o Owner) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(o.encode()), 0)
	return err
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. Safe to call on a nil receiver and more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

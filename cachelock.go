package sailfish

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// depsEndMarker terminates a .deps sentinel file, so a reader polling
// WaitForDeps can tell a fully-written file from one another process is
// still writing.
const depsEndMarker = "END"

// CacheLock implements this build-time artifact coordination: the
// first process to compile a given template creates LockPath exclusively,
// compiles, then writes DepsPath (ending in the END marker) and removes
// the lock; any concurrent process instead polls for DepsPath to appear.
// Grounded on pongo2's package-level mutex-guarded TemplateSet cache
// (template_sets.go's Execute locking pattern), adapted from an in-process
// mutex to a filesystem lock since sailfish's cache is shared across
// separate compiler invocations (parallel `go build` actions), not goroutines
// in one process.
type CacheLock struct {
	LockPath string
	DepsPath string

	// RetryCount and RetryInterval bound WaitForDeps's poll loop.
	RetryCount    int
	RetryInterval time.Duration
}

// NewCacheLock derives the lock and deps sentinel paths from a compiled
// artifact's path (artifactPath + ".lock", artifactPath + ".deps").
func NewCacheLock(artifactPath string) *CacheLock {
	return &CacheLock{
		LockPath:      artifactPath + ".lock",
		DepsPath:      artifactPath + ".deps",
		RetryCount:    100,
		RetryInterval: 10 * time.Millisecond,
	}
}

// Acquire attempts to become the compiling process for this artifact. won
// is true if the caller now holds the lock and must call Release when
// done; false means another process already holds it and the caller
// should call WaitForDeps instead.
func (c *CacheLock) Acquire() (won bool, err error) {
	f, err := os.OpenFile(c.LockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, WrapIOError(err)
	}
	return true, f.Close()
}

// Release writes the dependency list to DepsPath and removes the lock
// file, in that order, so a waiter never observes a removed lock before
// the deps file it's about to read exists.
func (c *CacheLock) Release(deps []string) error {
	var b strings.Builder
	for _, d := range deps {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	b.WriteString(depsEndMarker + "\n")

	if err := os.WriteFile(c.DepsPath, []byte(b.String()), 0o644); err != nil {
		return WrapIOError(err)
	}
	if err := os.Remove(c.LockPath); err != nil {
		return WrapIOError(err)
	}
	return nil
}

// WaitForDeps polls for another process's Release to finish, returning the
// dependency list it wrote. Returns a KindIOError-tagged timeout error if
// RetryCount attempts pass without seeing the END marker.
func (c *CacheLock) WaitForDeps() ([]string, error) {
	for i := 0; i < c.RetryCount; i++ {
		deps, complete, err := c.readDeps()
		if err != nil {
			return nil, err
		}
		if complete {
			return deps, nil
		}
		time.Sleep(c.RetryInterval)
	}
	return nil, WrapIOError(errTimeout(c.DepsPath))
}

func (c *CacheLock) readDeps() (deps []string, complete bool, err error) {
	f, err := os.Open(c.DepsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == depsEndMarker {
			return deps, true, nil
		}
		deps = append(deps, line)
	}
	return nil, false, scanner.Err()
}

type timeoutError string

func errTimeout(path string) error { return timeoutError("timed out waiting for " + path) }

func (e timeoutError) Error() string { return string(e) }

// Package serverlock keeps a single `weekplan serve` instance per config
// directory using a PID lockfile.
package serverlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/weekplan/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid

	ErrAlreadyRunning = errors.New("weekplan server is already running")
	ErrNotRunning     = errors.New("weekplan server is not running")
)

// Info is what the lockfile records about a running server.
type Info struct {
	Addr string
	PID  int
}

// Lock is held by the running server until Release.
type Lock struct {
	path string
	Info Info
}

func Path(dir string) string {
	return filepath.Join(dir, constants.ServerLockfileName)
}

// Acquire writes the lockfile for addr. A stale lockfile (dead or foreign
// process) is replaced.
func Acquire(dir, addr string) (*Lock, error) {
	if info, err := Running(dir); err == nil {
		return nil, fmt.Errorf("%w on %s (pid %d)", ErrAlreadyRunning, info.Addr, info.PID)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	info := Info{Addr: addr, PID: getpidFunc()}
	path := Path(dir)
	content := fmt.Sprintf("%s|%d\n", info.Addr, info.PID)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return &Lock{path: path, Info: info}, nil
}

// Release removes the lockfile if it still belongs to this process.
func (l *Lock) Release() error {
	info, err := read(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.PID != l.Info.PID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Running returns the live server recorded in dir, or ErrNotRunning.
func Running(dir string) (Info, error) {
	info, err := read(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, ErrNotRunning
		}
		return Info{}, err
	}

	process, err := findProcessFunc(info.PID)
	if err != nil || process == nil {
		return Info{}, ErrNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return Info{}, fmt.Errorf("%w: pid %d is %s", ErrNotRunning, info.PID, process.Executable())
	}
	return info, nil
}

func read(path string) (Info, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return Info{}, errors.New("lockfile is malformed")
	}
	if strings.TrimSpace(parts[0]) == "" {
		return Info{}, errors.New("address in lockfile is empty")
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil || pid <= 0 {
		return Info{}, errors.New("invalid process ID in lockfile")
	}
	return Info{Addr: parts[0], PID: pid}, nil
}

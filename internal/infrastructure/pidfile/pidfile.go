// Package pidfile enforces single-instance execution of the serve
// command through a PID file on disk. A live owner blocks acquisition;
// stale or malformed files are swept and reclaimed.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// PIDFile guards one on-disk path. The zero value is not usable; build
// one with New.
type PIDFile struct {
	path string
}

func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// currentOwner reports the PID recorded in the file and whether that
// process is still alive. A missing, unreadable or malformed file has
// no owner.
func (p *PIDFile) currentOwner() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, processAlive(pid)
}

// Acquire claims the PID file for this process. If a live owner holds
// it, Acquire returns an InvalidState status naming the owner's PID;
// leftovers from a dead or garbled owner are swept first. The claim
// itself is an exclusive create, so two racing processes cannot both
// win.
func (p *PIDFile) Acquire() error {
	if pid, alive := p.currentOwner(); alive {
		return asset.New(asset.StatusCodeInvalidState, fmt.Sprintf("asset pipeline already running (pid %d)", pid))
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return asset.New(asset.StatusCodeError, "sweeping stale pid file: "+err.Error())
	}

	f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return asset.New(asset.StatusCodeError, "claiming pid file: "+err.Error())
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return asset.New(asset.StatusCodeError, "writing pid file: "+err.Error())
	}
	return nil
}

// KillExisting terminates the file's live owner, if any, and removes
// the file. Used by the serve command's --force flag.
func (p *PIDFile) KillExisting() error {
	if pid, alive := p.currentOwner(); alive {
		proc, err := os.FindProcess(pid)
		if err != nil {
			return asset.New(asset.StatusCodeError, fmt.Sprintf("finding pid %d: %v", pid, err))
		}
		if err := proc.Signal(syscall.SIGTERM); err != nil && err != syscall.ESRCH {
			return asset.New(asset.StatusCodeError, fmt.Sprintf("terminating pid %d: %v", pid, err))
		}
	}
	return p.Release()
}

// Release removes the PID file. Releasing an already-removed file is
// not an error.
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return asset.New(asset.StatusCodeError, "releasing pid file: "+err.Error())
	}
	return nil
}

// processAlive probes pid with a null signal. EPERM still counts as
// alive: the process exists, it just belongs to someone else.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

//go:build linux || darwin || freebsd
// +build linux darwin freebsd

// Package sockets implements an instance.Backend for sessions without an
// X server: the exclusive token is a flock(2)-ed lock file and the messages
// are delivered through a unix-domain socket next to it.
package sockets

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/shirou/gopsutil/process"
	"github.com/xaionaro-go/notespanel/pkg/instance"
	"golang.org/x/sys/unix"
)

const (
	lockSuffix     = ".lock"
	socketSuffix   = ".sock"
	messageTimeout = 5 * time.Second
)

type Backend struct {
	Dir string
}

var _ instance.Backend = (*Backend)(nil)

// DefaultDir returns "$XDG_RUNTIME_DIR/<appName>", falling back to the
// temporary directory if XDG_RUNTIME_DIR is not set.
func DefaultDir(appName string) string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", appName, os.Getuid()))
		return base
	}
	return filepath.Join(base, appName)
}

func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("unable to create directory '%s': %w", dir, err)
	}
	return &Backend{
		Dir: dir,
	}, nil
}

func (b *Backend) lockPath(name instance.ChannelName) string {
	return filepath.Join(b.Dir, string(name)+lockSuffix)
}

func (b *Backend) socketPath(name instance.ChannelName) string {
	return filepath.Join(b.Dir, string(name)+socketSuffix)
}

func (b *Backend) Claim(
	ctx context.Context,
	name instance.ChannelName,
) (_ret instance.Receiver, _err error) {
	logger.Debugf(ctx, "Claim(ctx, '%s')", name)
	defer func() { logger.Debugf(ctx, "/Claim(ctx, '%s'): %v", name, _err) }()

	lockPath := b.lockPath(name)
	lockFile, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open the lock file '%s': %w", instance.ErrReceiverCreationFailed, lockPath, err)
	}

	err = unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	switch {
	case err == nil:
	case errors.Is(err, unix.EWOULDBLOCK):
		lockFile.Close()
		return nil, instance.ErrAlreadyOwned
	default:
		lockFile.Close()
		return nil, fmt.Errorf("%w: unable to lock '%s': %w", instance.ErrReceiverCreationFailed, lockPath, err)
	}

	socketPath := b.socketPath(name)
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		logger.Warnf(ctx, "unable to remove the stale socket '%s': %v", socketPath, err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
		lockFile.Close()
		return nil, fmt.Errorf("%w: unable to listen '%s': %w", instance.ErrReceiverCreationFailed, socketPath, err)
	}

	if err := writePID(lockFile, os.Getpid()); err != nil {
		logger.Warnf(ctx, "unable to write the PID to '%s': %v", lockPath, err)
	}

	r := newReceiver(lockFile, listener, socketPath)
	r.start(context.WithoutCancel(ctx))
	return r, nil
}

func writePID(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0)
	return err
}

// Owner must not lock the lock file: Claim treats any held lock as an owner.
func (b *Backend) Owner(
	ctx context.Context,
	name instance.ChannelName,
) (*instance.Owner, error) {
	socketPath := b.socketPath(name)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to connect to '%s': %w", socketPath, err)
	}
	conn.Close()

	lockPath := b.lockPath(name)
	owner := &instance.Owner{
		ID: socketPath,
	}

	b2, err := os.ReadFile(lockPath)
	if err != nil {
		logger.Debugf(ctx, "unable to read '%s': %v", lockPath, err)
		return owner, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b2)))
	if err != nil {
		logger.Debugf(ctx, "unable to parse the PID in '%s': %v", lockPath, err)
		return owner, nil
	}
	owner.PID = pid

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		logger.Debugf(ctx, "unable to get the process info for PID %d: %v", pid, err)
		return owner, nil
	}
	owner.ProcessName, err = proc.Name()
	if err != nil {
		logger.Debugf(ctx, "unable to get the process name for PID %d: %v", pid, err)
	}
	return owner, nil
}

func (b *Backend) Send(
	ctx context.Context,
	name instance.ChannelName,
	msg instance.Message,
) error {
	socketPath := b.socketPath(name)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) {
			return fmt.Errorf("%w: %w", instance.ErrNotOwned, err)
		}
		return fmt.Errorf("unable to connect to '%s': %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(messageTimeout))
	}
	if err := gob.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("unable to encode&send the message %#+v: %w", msg, err)
	}
	return nil
}

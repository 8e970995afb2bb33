//go:build unix

package upstream

import (
	"os"

	"golang.org/x/sys/unix"
)

// FlockLocker uses flock(2), shared by every process that opens the same file
type FlockLocker struct{}

func (FlockLocker) Lock(f *os.File) error {
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			return err
		}
	}
}

func (FlockLocker) Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

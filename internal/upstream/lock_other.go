//go:build !unix

package upstream

import "os"

// FlockLocker is a no-op where flock(2) is unavailable; pacing is then per process only
type FlockLocker struct{}

func (FlockLocker) Lock(*os.File) error { return nil }

func (FlockLocker) Unlock(*os.File) error { return nil }

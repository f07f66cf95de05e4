package decoration

import "golang.org/x/sys/unix"

// unixMemfdCreate wraps memfd_create(2), the anonymous-file primitive
// wl_shm clients use to hand the compositor a shareable buffer without
// a backing path on disk.
func unixMemfdCreate(name string) (int, error) {
	return unix.MemfdCreate(name, 0)
}

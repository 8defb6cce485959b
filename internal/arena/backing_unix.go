//go:build unix

package arena

import "golang.org/x/sys/unix"

// backing is one page backing an arena, either mmap'd directly or (if
// mmap failed, e.g. under a restrictive sandbox) a plain Go allocation.
type backing struct {
	buf    []byte
	mapped bool
}

func newBacking(n int) (backing, error) {
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return backing{}, err
	}
	return backing{buf: buf, mapped: true}, nil
}

func goBacking(buf []byte) backing { return backing{buf: buf} }

func (b backing) bytes() []byte { return b.buf }
func (b backing) len() int      { return len(b.buf) }

func (b backing) release() {
	if b.mapped {
		_ = unix.Munmap(b.buf)
	}
}

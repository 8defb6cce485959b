// Package arena provides a bulk allocator with scoped lifetimes: memory
// handed out by Alloc lives until Free releases every page as a unit. Each
// graph owns one Arena and frees it with the graph; node records,
// attribute blobs, backedge bitmaps and the CSE table are ordinary Go heap
// values and are not allocated from it.
package arena

import "github.com/dustin/go-humanize"

const pageSize = 4096

// Arena is a bump allocator over a list of backing pages. It is not safe
// for concurrent use — each graph owns exactly one arena and the core is
// single-threaded with respect to any one graph (spec §5).
type Arena struct {
	pages     []page
	allocated uint64 // bytes handed out, for Stats()
	freed     bool
}

type page struct {
	backing backing
	off     int
}

// New creates an empty arena. Pages are obtained lazily on first
// allocation so that graphs which are never mutated cost nothing.
func New() *Arena {
	return &Arena{}
}

// Alloc returns n zeroed bytes with the lifetime of the arena. The
// returned slice must not be retained past Free.
func (a *Arena) Alloc(n int) []byte {
	if a.freed {
		panic("arena: alloc after free")
	}
	if n == 0 {
		return nil
	}
	if len(a.pages) == 0 || a.pages[len(a.pages)-1].off+n > a.pages[len(a.pages)-1].backing.len() {
		size := pageSize
		if n > size {
			size = n
		}
		b, err := newBacking(size)
		if err != nil {
			// Fall back to a plain Go allocation; an mmap failure
			// (e.g. sandboxed environments without mmap rights)
			// must not be fatal to the IR kernel.
			b = goBacking(make([]byte, size))
		}
		a.pages = append(a.pages, page{backing: b})
	}
	p := &a.pages[len(a.pages)-1]
	buf := p.backing.bytes()[p.off : p.off+n]
	p.off += n
	a.allocated += uint64(n)
	return buf
}

// Free releases every page the arena holds in one step. Objects allocated
// from a freed arena must never be referenced again.
func (a *Arena) Free() {
	if a.freed {
		return
	}
	for _, p := range a.pages {
		p.backing.release()
	}
	a.pages = nil
	a.freed = true
}

// Stats returns a human-readable summary of the arena's bulk usage,
// e.g. "3 pages, 9.4 kB allocated".
func (a *Arena) Stats() string {
	return humanize.Comma(int64(len(a.pages))) + " pages, " + humanize.Bytes(a.allocated) + " allocated"
}

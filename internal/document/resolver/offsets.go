package resolver

import (
	"sort"

	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

// span records that output bytes [out, out+n) are a copy of input bytes
// [in, in+n).
type span struct {
	out, in, n int
}

// offsetMap maps positions of a rewritten part back to the part it was
// rewritten from. Output bytes outside every span were inserted.
type offsetMap []span

// origin returns the input position of output position pos. Inserted bytes
// map to the input position they were inserted at.
func (m offsetMap) origin(pos int) int {
	if len(m) == 0 {
		return pos
	}
	i := sort.Search(len(m), func(i int) bool { return m[i].out+m[i].n > pos })
	if i < len(m) && m[i].out <= pos {
		return m[i].in + pos - m[i].out
	}
	if i == 0 {
		return m[0].in
	}
	prev := m[i-1]
	return prev.in + prev.n
}

type mapBuilder struct {
	spans offsetMap
	out   int
}

func (b *mapBuilder) copied(in, n int) {
	if n <= 0 {
		return
	}
	if k := len(b.spans) - 1; k >= 0 {
		last := &b.spans[k]
		if last.out+last.n == b.out && last.in+last.n == in {
			last.n += n
			b.out += n
			return
		}
	}
	b.spans = append(b.spans, span{out: b.out, in: in, n: n})
	b.out += n
}

func (b *mapBuilder) inserted(n int) {
	b.out += n
}

// rewrites is the chain of maps from the template part to the part being
// linted, oldest first.
type rewrites []offsetMap

func (r rewrites) origin(pos int) int {
	for i := len(r) - 1; i >= 0; i-- {
		pos = r[i].origin(pos)
	}
	return pos
}

// relocate points every located syntax error in err at the template part.
func (r rewrites) relocate(err error, template []byte) error {
	if len(r) == 0 {
		return err
	}
	for _, e := range docerrors.SyntaxErrors(err) {
		if e.Offset < 0 {
			continue
		}
		at := r.origin(int(e.Offset))
		e.Offset = int64(at)
		e.Context = excerpt(template, at)
	}
	return err
}

package resolver

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

var (
	textRe  = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	paraRe  = regexp.MustCompile(`<(/?)w:p(?:\s[^>]*?)?(/?)>`)
	tokenRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)
)

const (
	closeText    = "</w:t>"
	contextBytes = 40
)

// fragment is one <w:t> element. Offsets index the part.
type fragment struct {
	elemStart int // '<' of <w:t
	start     int // first content byte
	end       int // '<' of </w:t>
	para      int // enclosing paragraph, -1 outside any
}

func (f fragment) openTag(part []byte) string {
	return string(part[f.elemStart:f.start])
}

// scanFragments returns every text fragment in document order, each tagged
// with its innermost enclosing paragraph.
func scanFragments(part []byte) []fragment {
	texts := textRe.FindAllSubmatchIndex(part, -1)
	paras := paraRe.FindAllSubmatchIndex(part, -1)

	var (
		frags = make([]fragment, 0, len(texts))
		stack []int
		next  int
		p     int
	)
	for _, m := range texts {
		for p < len(paras) && paras[p][0] < m[0] {
			pm := paras[p]
			closing := pm[3] > pm[2]
			selfClosing := pm[5] > pm[4]
			switch {
			case closing:
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			case !selfClosing:
				stack = append(stack, next)
				next++
			}
			p++
		}
		para := -1
		if len(stack) > 0 {
			para = stack[len(stack)-1]
		}
		frags = append(frags, fragment{elemStart: m[0], start: m[2], end: m[3], para: para})
	}
	return frags
}

// mergeFragments moves every complete token whose bytes span several
// fragments of one paragraph into the fragment where it starts. The returned
// map is nil when the part is unchanged.
func mergeFragments(part []byte) ([]byte, offsetMap) {
	frags := scanFragments(part)

	contents := make([][]byte, len(frags))
	origins := make([][]int, len(frags))
	changed := make([]bool, len(frags))
	for i, f := range frags {
		contents[i] = part[f.start:f.end]
		origins[i] = make([]int, f.end-f.start)
		for k := range origins[i] {
			origins[i][k] = f.start + k
		}
	}

	for _, group := range groupByParagraph(frags) {
		if len(group) < 2 {
			continue
		}
		var (
			joined []byte
			from   []int
			owner  []int
		)
		for _, i := range group {
			joined = append(joined, contents[i]...)
			from = append(from, origins[i]...)
			for range contents[i] {
				owner = append(owner, i)
			}
		}

		moved := false
		for _, m := range tokenRe.FindAllIndex(joined, -1) {
			first, last := owner[m[0]], owner[m[1]-1]
			if first == last {
				continue
			}
			for k := m[0]; k < m[1]; k++ {
				owner[k] = first
			}
			moved = true
		}
		if !moved {
			continue
		}

		rebuilt := make(map[int][]byte, len(group))
		rebuiltFrom := make(map[int][]int, len(group))
		for k, b := range joined {
			rebuilt[owner[k]] = append(rebuilt[owner[k]], b)
			rebuiltFrom[owner[k]] = append(rebuiltFrom[owner[k]], from[k])
		}
		for _, i := range group {
			if !bytes.Equal(rebuilt[i], contents[i]) {
				contents[i] = rebuilt[i]
				origins[i] = rebuiltFrom[i]
				changed[i] = true
			}
		}
	}

	var (
		out       bytes.Buffer
		m         mapBuilder
		last      int
		rewritten bool
	)
	for i, f := range frags {
		if !changed[i] {
			continue
		}
		rewritten = true
		out.Write(part[last:f.elemStart])
		m.copied(last, f.elemStart-last)

		open := f.openTag(part)
		tag := preserveSpace(open)
		out.WriteString(tag)
		if tag == open {
			m.copied(f.elemStart, len(open))
		} else {
			m.copied(f.elemStart, len(open)-1)
			m.inserted(len(tag) - len(open) + 1)
		}

		out.Write(contents[i])
		for _, at := range origins[i] {
			m.copied(at, 1)
		}
		last = f.end
	}
	if !rewritten {
		return part, nil
	}
	out.Write(part[last:])
	m.copied(last, len(part)-last)
	return out.Bytes(), m.spans
}

func groupByParagraph(frags []fragment) [][]int {
	index := make(map[int]int)
	var groups [][]int
	for i, f := range frags {
		if f.para < 0 {
			continue
		}
		g, ok := index[f.para]
		if !ok {
			g = len(groups)
			index[f.para] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// preserveSpace adds xml:space="preserve" to a <w:t> start tag
func preserveSpace(openTag string) string {
	if strings.Contains(openTag, "xml:space=") {
		return openTag
	}
	return strings.TrimSuffix(openTag, ">") + ` xml:space="preserve">`
}

// tagRef is one well-formed placeholder occurrence
type tagRef struct {
	name  string
	frag  int
	start int // offset of "{{"
	end   int // offset after "}}"
}

// lint checks the delimiters of every text fragment and returns the
// placeholders found. All problems are reported.
func lint(part []byte, file string) ([]tagRef, []error) {
	var (
		tags []tagRef
		errs []error
	)
	syntaxErr := func(offset int, explanation string) *docerrors.TemplateSyntaxError {
		return docerrors.NewTemplateSyntaxError(file, explanation).
			WithLocation(int64(offset), excerpt(part, offset))
	}

	for fi, f := range scanFragments(part) {
		open := -1
		for i := f.start; i < f.end; {
			switch {
			case bytes.HasPrefix(part[i:f.end], []byte("{{")):
				if open >= 0 {
					errs = append(errs, syntaxErr(i, "nested tag: '{{' inside an open tag"))
				}
				open = i
				i += 2
			case bytes.HasPrefix(part[i:f.end], []byte("}}")):
				if open < 0 {
					errs = append(errs, syntaxErr(i, "unopened tag: '}}' without '{{'"))
					i += 2
					continue
				}
				name := strings.TrimSpace(string(part[open+2 : i]))
				if name == "" {
					errs = append(errs, syntaxErr(open, "empty tag"))
				} else {
					tags = append(tags, tagRef{name: name, frag: fi, start: open, end: i + 2})
				}
				open = -1
				i += 2
			default:
				i++
			}
		}
		if open >= 0 {
			errs = append(errs, syntaxErr(open, "unclosed tag: '{{' without '}}'").
				WithTag(strings.TrimSpace(string(part[open+2:f.end]))))
		}
	}
	return tags, errs
}

// excerpt returns up to contextBytes bytes either side of offset, clipped to
// whole UTF-8 sequences.
func excerpt(part []byte, offset int) string {
	start := max(offset-contextBytes, 0)
	end := min(offset+contextBytes, len(part))
	for start < offset && !utf8.RuneStart(part[start]) {
		start++
	}
	for end > offset && end < len(part) && !utf8.RuneStart(part[end]) {
		end--
	}
	return string(part[start:end])
}

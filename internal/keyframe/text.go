package keyframe

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/decker502/chore/internal/mathutil"
)

const (
	sectionHeader  = "header"
	sectionMarkers = "markers"
	sectionNodes   = "keyframe nodes"

	// emptyName stands in for an unnamed track in the text form.
	emptyName = "-"
)

type token struct {
	text string
	line int
}

type tokens struct {
	section string
	list    []token
	pos     int
}

func (ts *tokens) done() bool {
	return ts.pos >= len(ts.list)
}

func (ts *tokens) next() (token, error) {
	if ts.done() {
		line := 0
		if n := len(ts.list); n > 0 {
			line = ts.list[n-1].line
		}
		return token{}, fmt.Errorf("%w: section %q ends early after line %d", ErrSyntax, ts.section, line)
	}
	t := ts.list[ts.pos]
	ts.pos++
	return t, nil
}

func (ts *tokens) expect(word string) error {
	t, err := ts.next()
	if err != nil {
		return err
	}
	if t.text != word {
		return fmt.Errorf("%w: line %d: want %q, have %q", ErrSyntax, t.line, word, t.text)
	}
	return nil
}

func (ts *tokens) word() (string, error) {
	t, err := ts.next()
	return t.text, err
}

func (ts *tokens) uint(bits int) (uint64, error) {
	t, err := ts.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(t.text, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %v", ErrSyntax, t.line, err)
	}
	return v, nil
}

func (ts *tokens) float() (float64, error) {
	t, err := ts.next()
	if err != nil {
		return 0, err
	}
	// Parsed at float32 precision so the text and binary forms agree exactly.
	v, err := strconv.ParseFloat(t.text, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %v", ErrSyntax, t.line, err)
	}
	return v, nil
}

func (ts *tokens) vec3() (v mathutil.Vec3, err error) {
	for i := range v {
		if v[i], err = ts.float(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// splitSections groups whitespace-separated tokens by "section:" lines.
// '#' starts a comment that runs to the end of the line.
func splitSections(data []byte) ([]*tokens, error) {
	var sections []*tokens
	var cur *tokens

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(text, "section:"); ok {
			cur = &tokens{section: strings.Join(strings.Fields(rest), " ")}
			sections = append(sections, cur)
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: line %d: data before first section", ErrSyntax, line)
		}
		for _, f := range strings.Fields(text) {
			cur.list = append(cur.list, token{text: f, line: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return sections, nil
}

// ParseText decodes a textual clip.
func ParseText(name string, data []byte) (*Clip, error) {
	sections, err := splitSections(data)
	if err != nil {
		return nil, fmt.Errorf("clip %q: %w", name, err)
	}

	c := &Clip{Name: name}
	haveHeader := false
	for _, s := range sections {
		switch s.section {
		case sectionHeader:
			err = parseHeader(c, s)
			haveHeader = err == nil
		case sectionMarkers:
			err = parseMarkers(c, s)
		case sectionNodes:
			if !haveHeader {
				err = fmt.Errorf("%w: section %q before %q", ErrSyntax, sectionNodes, sectionHeader)
				break
			}
			err = parseNodes(c, s)
		default:
			err = fmt.Errorf("%w: unknown section %q", ErrSyntax, s.section)
		}
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", name, err)
		}
	}
	if !haveHeader {
		return nil, fmt.Errorf("clip %q: %w: missing section %q", name, ErrSyntax, sectionHeader)
	}
	return c, nil
}

func parseHeader(c *Clip, ts *tokens) error {
	for !ts.done() {
		key, _ := ts.next()
		switch key.text {
		case "flags":
			v, err := ts.uint(32)
			if err != nil {
				return err
			}
			c.Flags = uint32(v)
		case "type":
			v, err := ts.uint(32)
			if err != nil {
				return err
			}
			c.Type = uint32(v)
		case "frames":
			v, err := ts.uint(32)
			if err != nil {
				return err
			}
			c.NumFrames = int(v)
		case "fps":
			v, err := ts.float()
			if err != nil {
				return err
			}
			c.FPS = v
		case "joints":
			v, err := ts.uint(32)
			if err != nil {
				return err
			}
			if v > maxJoints {
				return fmt.Errorf("joint count %d exceeds %d", v, maxJoints)
			}
			c.NumJoints = int(v)
		default:
			return fmt.Errorf("%w: line %d: unknown header key %q", ErrSyntax, key.line, key.text)
		}
	}
	c.Tracks = make([]*Track, c.NumJoints)
	return nil
}

func parseMarkers(c *Clip, ts *tokens) error {
	if err := ts.expect("markers"); err != nil {
		return err
	}
	n, err := ts.uint(32)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	c.Markers = make([]Marker, 0, n)
	for i := uint64(0); i < n; i++ {
		var m Marker
		if m.Frame, err = ts.float(); err != nil {
			return err
		}
		v, err := ts.uint(32)
		if err != nil {
			return err
		}
		m.Value = uint32(v)
		c.Markers = append(c.Markers, m)
	}
	return nil
}

func parseNodes(c *Clip, ts *tokens) error {
	if err := ts.expect("nodes"); err != nil {
		return err
	}
	n, err := ts.uint(32)
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		t, err := parseNode(ts)
		if err != nil {
			return err
		}
		if err := c.addTrack(t); err != nil {
			return err
		}
	}
	if !ts.done() {
		t, _ := ts.next()
		return fmt.Errorf("%w: line %d: trailing token %q", ErrSyntax, t.line, t.text)
	}
	return nil
}

func parseNode(ts *tokens) (*Track, error) {
	t := &Track{}
	if err := ts.expect("node"); err != nil {
		return nil, err
	}
	bone, err := ts.uint(32)
	if err != nil {
		return nil, err
	}
	t.Bone = int(bone)

	if err := ts.expect("name"); err != nil {
		return nil, err
	}
	if t.BoneName, err = ts.word(); err != nil {
		return nil, err
	}
	if t.BoneName == emptyName {
		t.BoneName = ""
	}

	if err := ts.expect("kind"); err != nil {
		return nil, err
	}
	kind, err := ts.word()
	if err != nil {
		return nil, err
	}
	if t.Kind, err = parseKind(kind); err != nil {
		return nil, err
	}

	if err := ts.expect("entries"); err != nil {
		return nil, err
	}
	count, err := ts.uint(32)
	if err != nil {
		return nil, err
	}
	rest := len(ts.list) - ts.pos
	if perEntry := entryTokens(t.Kind); count > uint64(rest/perEntry) {
		return nil, fmt.Errorf("node %d: %d entries: %w", t.Bone, count, ErrTruncated)
	}

	t.Entries = make([]Entry, count)
	for i := range t.Entries {
		label, err := ts.next()
		if err != nil {
			return nil, err
		}
		if label.text != strconv.Itoa(i)+":" {
			return nil, fmt.Errorf("%w: line %d: want entry label %d:, have %q", ErrSyntax, label.line, i, label.text)
		}
		if err := parseEntry(ts, t.Kind, &t.Entries[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func entryTokens(k TrackKind) int {
	if k == KindQuat {
		return 1 + 8
	}
	return 1 + 14
}

func parseEntry(ts *tokens, kind TrackKind, e *Entry) (err error) {
	if e.Frame, err = ts.float(); err != nil {
		return err
	}
	if kind == KindQuat {
		if e.Pos, err = ts.vec3(); err != nil {
			return err
		}
		for i := range e.Rot {
			if e.Rot[i], err = ts.float(); err != nil {
				return err
			}
		}
		return nil
	}
	flags, err := ts.uint(32)
	if err != nil {
		return err
	}
	e.Flags = uint32(flags)
	if e.Pos, err = ts.vec3(); err != nil {
		return err
	}
	if e.Euler, err = ts.vec3(); err != nil {
		return err
	}
	if e.DPos, err = ts.vec3(); err != nil {
		return err
	}
	e.DEuler, err = ts.vec3()
	return err
}

// FormatText writes c in the text clip format.
func FormatText(c *Clip) []byte {
	var b bytes.Buffer
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 32)
	}
	v3 := func(v mathutil.Vec3) string {
		return f(v[0]) + " " + f(v[1]) + " " + f(v[2])
	}

	fmt.Fprintf(&b, "section: header\n")
	fmt.Fprintf(&b, "flags %#x\n", c.Flags)
	fmt.Fprintf(&b, "type %#x\n", c.Type)
	fmt.Fprintf(&b, "frames %d\n", c.NumFrames)
	fmt.Fprintf(&b, "fps %s\n", f(c.FPS))
	fmt.Fprintf(&b, "joints %d\n", c.NumJoints)

	fmt.Fprintf(&b, "\nsection: markers\n")
	fmt.Fprintf(&b, "markers %d\n", len(c.Markers))
	for _, m := range c.Markers {
		fmt.Fprintf(&b, "%s %d\n", f(m.Frame), m.Value)
	}

	fmt.Fprintf(&b, "\nsection: keyframe nodes\n")
	fmt.Fprintf(&b, "nodes %d\n", c.TrackCount())
	for _, t := range c.Tracks {
		if t == nil {
			continue
		}
		name := t.BoneName
		if name == "" {
			name = emptyName
		}
		fmt.Fprintf(&b, "\nnode %d\nname %s\nkind %s\nentries %d\n", t.Bone, name, t.Kind, len(t.Entries))
		for i, e := range t.Entries {
			if t.Kind == KindQuat {
				fmt.Fprintf(&b, "%d: %s %s %s %s %s %s\n", i, f(e.Frame), v3(e.Pos),
					f(e.Rot[0]), f(e.Rot[1]), f(e.Rot[2]), f(e.Rot[3]))
				continue
			}
			fmt.Fprintf(&b, "%d: %s %#x %s %s\n", i, f(e.Frame), e.Flags, v3(e.Pos), v3(e.Euler))
			fmt.Fprintf(&b, "   %s %s\n", v3(e.DPos), v3(e.DEuler))
		}
	}
	return b.Bytes()
}

// Parse decodes either clip format, choosing by the leading magic.
func Parse(name string, data []byte) (*Clip, error) {
	if IsBinary(data) {
		return ParseBinary(name, data)
	}
	return ParseText(name, data)
}

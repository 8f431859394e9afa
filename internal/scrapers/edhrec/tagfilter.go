package edhrec

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"mightstone-backend/lib/textutil"
)

const maxTagLength = 64

// DefaultDenylist holds the page layout labels that show up next to real
// tags in every layout seen so far.
var DefaultDenylist = []string{
	"Themes",
	"Kindred",
	"New Cards",
	"High Synergy",
	"High Synergy Cards",
	"Top Cards",
	"Game Changers",
	"Card Types",
	"Creatures",
	"Instants",
	"Sorceries",
	"Utility Artifacts",
	"Enchantments",
	"Planeswalkers",
	"Utility Lands",
	"Mana Artifacts",
	"Lands",
}

// TagFilter decides which extracted labels are real tags. It is safe for
// concurrent use and can be updated while requests are being served. A nil
// *TagFilter applies DefaultDenylist only.
type TagFilter struct {
	mu   sync.RWMutex
	deny map[string]struct{}
}

func NewTagFilter(extra ...string) *TagFilter {
	f := &TagFilter{}
	f.Replace(extra)
	return f
}

// Replace swaps the extra denylist, DefaultDenylist always stays in effect.
func (f *TagFilter) Replace(extra []string) {
	deny := make(map[string]struct{}, len(DefaultDenylist)+len(extra))
	for _, name := range DefaultDenylist {
		deny[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range extra {
		name = strings.ToLower(textutil.CleanText(name))
		if name != "" {
			deny[name] = struct{}{}
		}
	}

	f.mu.Lock()
	f.deny = deny
	f.mu.Unlock()
}

var defaultFilter = NewTagFilter()

func (f *TagFilter) Denied(name string) bool {
	if f == nil {
		f = defaultFilter
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, denied := f.deny[strings.ToLower(name)]
	return denied
}

// Clean normalizes raw and reports whether the result is an acceptable tag.
func (f *TagFilter) Clean(raw string) (string, bool) {
	name := textutil.CleanText(raw)
	if name == "" || utf8.RuneCountInString(name) > maxTagLength {
		return "", false
	}
	if !textutil.HasLetter(name) {
		return "", false
	}
	if f.Denied(name) {
		return "", false
	}
	return name, true
}

// ReadDenylist reads one tag per line, blank lines and lines starting with
// '#' are ignored.
func ReadDenylist(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

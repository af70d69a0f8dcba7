package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultLabelColor is used when a label colour is missing or unreadable.
const DefaultLabelColor = "#000000"

// Label is a named, coloured tag. Two labels are the same label when their
// keys match, whatever their colour.
type Label struct {
	Name  string
	Color colorful.Color
}

// NewLabel creates a label, falling back to black for an invalid colour.
func NewLabel(name, color string) Label {
	c, err := ParseColor(color)
	if err != nil {
		c, _ = colorful.Hex(DefaultLabelColor)
	}
	return Label{Name: strings.TrimSpace(name), Color: c}
}

// ParseColor reads "#rgb", "#rrggbb", "#rrrrggggbbbb" (16 bits per channel)
// and "rgb(r,g,b)" colour strings.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#") && len(s) == 13:
		var ch [3]float64
		for i := range ch {
			v, err := strconv.ParseUint(s[1+i*4:5+i*4], 16, 16)
			if err != nil {
				return colorful.Color{}, fmt.Errorf("parsing colour %q: %w", s, ErrInvalidInput)
			}
			ch[i] = float64(v) / 0xffff
		}
		return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, nil
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return colorful.Color{}, fmt.Errorf("parsing colour %q: %w", s, ErrInvalidInput)
		}
		var ch [3]float64
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return colorful.Color{}, fmt.Errorf("parsing colour %q: %w", s, ErrInvalidInput)
			}
			ch[i] = float64(v) / 255
		}
		return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("parsing colour %q: %w", s, ErrInvalidInput)
	}
	return c, nil
}

// Key is the identity of the label: its name, accent-stripped and lower-cased.
func (l Label) Key() string {
	return strings.ToLower(StripAccents(l.Name))
}

// ColorString returns the colour as "#rrggbb".
func (l Label) ColorString() string {
	return l.Color.Clamped().Hex()
}

// Equal reports whether both labels share the same key.
func (l Label) Equal(other Label) bool {
	return l.Key() == other.Key()
}

// Compare orders labels by key, then by colour string.
func (l Label) Compare(other Label) int {
	if c := cmp.Compare(l.Key(), other.Key()); c != 0 {
		return c
	}
	return cmp.Compare(l.ColorString(), other.ColorString())
}

// IsLight reports whether dark text reads better than light text on top
// of the label colour.
func (l Label) IsLight() bool {
	c := l.Color.Clamped()
	brightness := c.R*255*0.299 + c.G*255*0.587 + c.B*255*0.114
	return brightness > 186
}

func (l Label) String() string {
	return l.Name
}

// LabelSet is an ordered list of labels, unique by key.
type LabelSet []Label

// Contains reports whether a label with the same key is in the set.
func (s LabelSet) Contains(l Label) bool {
	return s.Index(l) >= 0
}

// Index returns the position of the label with the same key, or -1.
func (s LabelSet) Index(l Label) int {
	key := l.Key()
	for i, other := range s {
		if other.Key() == key {
			return i
		}
	}
	return -1
}

// Add returns the set with l appended, unless a label with the same key
// is already present.
func (s LabelSet) Add(l Label) LabelSet {
	if s.Contains(l) {
		return s
	}
	return append(slices.Clip(s), l)
}

// Remove returns the set without any label sharing the key of l.
func (s LabelSet) Remove(l Label) LabelSet {
	key := l.Key()
	out := make(LabelSet, 0, len(s))
	for _, other := range s {
		if other.Key() != key {
			out = append(out, other)
		}
	}
	return out
}

// Keys returns the set of label keys.
func (s LabelSet) Keys() map[string]Label {
	keys := make(map[string]Label, len(s))
	for _, l := range s {
		keys[l.Key()] = l
	}
	return keys
}

// Names returns the label names in set order.
func (s LabelSet) Names() []string {
	names := make([]string, len(s))
	for i, l := range s {
		names[i] = l.Name
	}
	return names
}

// Sorted returns a sorted copy of the set.
func (s LabelSet) Sorted() LabelSet {
	out := slices.Clone(s)
	slices.SortFunc(out, Label.Compare)
	return out
}

// Clone returns a copy of the set.
func (s LabelSet) Clone() LabelSet {
	return slices.Clone(s)
}

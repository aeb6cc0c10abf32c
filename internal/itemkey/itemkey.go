// Package itemkey encodes human-entered item descriptors into canonical composite keys.
package itemkey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/verte-zerg/tradescan/internal/model"
)

// DefaultNamespace is prepended to materials entered without a namespace.
const DefaultNamespace = "minecraft"

// Separator joins key fields in the canonical string form.
const Separator = "|"

// ErrMalformed is returned by ParseKey for stored keys with too few fields.
var ErrMalformed = errors.New("malformed composite key")

var (
	bareIdentifier = regexp.MustCompile(`(?i)^(minecraft:)?[a-z0-9_]+$`)
	descriptor     = regexp.MustCompile(`^([^(\[{]*?)\s*` +
		`(?:\(\s*"?(.*?)"?\s*\))?\s*` +
		`(?:\[\s*"?(.*?)"?\s*\])?\s*` +
		`(?:\{\s*"?(.*?)"?\s*\})?$`)
)

// Key is the canonical 4-field item descriptor. All fields are lower-case and never contain Separator.
type Key struct {
	Name     string
	Lore     string
	Material string
	Enchants string
}

// Encode normalizes a raw descriptor of the form name("lore")["material"]{"enchants"}.
// Input that does not fit the grammar becomes a name-only key. Separators are
// removed before parsing so the grammar sees the same text Display will produce.
func Encode(raw string) Key {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, Separator, ""))
	if bareIdentifier.MatchString(trimmed) {
		return Key{Material: normalizeMaterial(trimmed)}
	}
	m := descriptor.FindStringSubmatch(trimmed)
	if m == nil {
		return Key{Name: clean(trimmed)}
	}
	return Key{
		Name:     clean(m[1]),
		Lore:     clean(m[2]),
		Material: normalizeMaterial(m[3]),
		Enchants: clean(m[4]),
	}
}

func clean(field string) string {
	field = strings.ReplaceAll(field, Separator, "")
	return strings.ToLower(strings.TrimSpace(field))
}

func normalizeMaterial(material string) string {
	material = clean(material)
	if material == "" || strings.Contains(material, ":") {
		return material
	}
	return DefaultNamespace + ":" + material
}

// IsZero reports whether every field is empty.
func (k Key) IsZero() bool {
	return k == Key{}
}

// MaterialOnly reports whether the key matches by material identifier alone.
func (k Key) MaterialOnly() bool {
	return k.Material != "" && k.Name == "" && k.Lore == "" && k.Enchants == ""
}

// String returns the canonical separator-joined form used for storage.
func (k Key) String() string {
	return strings.Join([]string{k.Name, k.Lore, k.Material, k.Enchants}, Separator)
}

// Display renders the key back into descriptor syntax for user-facing output.
// Encode(k.Display()) == k holds for every key produced by Encode.
func (k Key) Display() string {
	if k.MaterialOnly() && bareIdentifier.MatchString(k.Material) {
		return k.Material
	}
	var b strings.Builder
	b.WriteString(k.Name)
	if k.Lore != "" {
		b.WriteString(`("` + k.Lore + `")`)
	}
	if k.Material != "" {
		b.WriteString(`["` + k.Material + `"]`)
	}
	if k.Enchants != "" {
		b.WriteString(`{"` + k.Enchants + `"}`)
	}
	out := b.String()
	// A lone name shaped like an identifier would read back as a material.
	if out == k.Name && bareIdentifier.MatchString(out) {
		out += "()"
	}
	return out
}

// ParseKey reads the canonical form written by String. Three-field keys from
// older configs are accepted with an empty enchant signature.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, Separator)
	switch len(parts) {
	case 3:
		return Key{Name: parts[0], Lore: parts[1], Material: parts[2]}, nil
	case 4:
		return Key{Name: parts[0], Lore: parts[1], Material: parts[2], Enchants: parts[3]}, nil
	default:
		return Key{}, fmt.Errorf("%w: %q has %d fields", ErrMalformed, s, len(parts))
	}
}

// Matches applies the field-by-field containment checks. Empty key fields always match.
func (k Key) Matches(item model.Item) bool {
	if k.Material != "" && !strings.EqualFold(item.Material, k.Material) {
		return false
	}
	if k.Name != "" && !containsFold(item.Name, k.Name) {
		return false
	}
	if k.Lore != "" {
		found := false
		for _, line := range item.Lore {
			if containsFold(line, k.Lore) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if k.Enchants != "" && !containsFold(item.Enchants, k.Enchants) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

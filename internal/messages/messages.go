// Package messages holds user-facing text templates. Placeholders are written as %name%.
package messages

import (
	_ "embed"
	"errors"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

//go:embed messages.json
var defaultCatalog []byte

// ErrInvalidCatalog reports a catalog that is not a JSON object.
var ErrInvalidCatalog = errors.New("invalid message catalog")

// Catalog looks up templates by dotted key. Values are either a string or an array of lines.
type Catalog struct {
	doc gjson.Result
}

// New parses a catalog document.
func New(doc []byte) (*Catalog, error) {
	if !gjson.ValidBytes(doc) {
		return nil, ErrInvalidCatalog
	}
	res := gjson.ParseBytes(doc)
	if !res.IsObject() {
		return nil, ErrInvalidCatalog
	}
	return &Catalog{doc: res}, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := New(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
	return c.lookup(key).Exists()
}

// Get returns the template for key with its lines joined by newlines.
func (c *Catalog) Get(key string) string {
	v := c.lookup(key)
	if !v.Exists() {
		return "Missing message for key: " + key
	}
	if !v.IsArray() {
		return v.String()
	}
	var lines []string
	v.ForEach(func(_, line gjson.Result) bool {
		lines = append(lines, line.String())
		return true
	})
	return strings.Join(lines, "\n")
}

// Format substitutes every %name% in the template with vars[name]. Unknown placeholders are kept.
func (c *Catalog) Format(key string, vars map[string]string) string {
	text := c.Get(key)
	if len(vars) == 0 {
		return text
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "%"+name+"%", vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (c *Catalog) lookup(key string) gjson.Result {
	return c.doc.Get(escapePath(key))
}

var pathEscaper = strings.NewReplacer(
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
)

// Keys are flat, so gjson path syntax must not apply.
func escapePath(key string) string {
	return pathEscaper.Replace(key)
}

// Package hostfeed decodes recorded scan passes. Each line of a feed is one JSON frame
// holding the items the host reported for that pass.
package hostfeed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/verte-zerg/tradescan/internal/enchant"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/textclean"
)

// ErrMalformed reports a line that is not a JSON object.
var ErrMalformed = errors.New("malformed frame")

const maxLine = 4 << 20

// Frame is one scan pass.
type Frame struct {
	Number int
	Events []model.ScanEvent
}

// ParseFrame decodes a single feed line. Formatting codes are stripped from names and lore
// and enchantment ids collapse into a signature.
func ParseFrame(line string) (Frame, error) {
	if !gjson.Valid(line) {
		return Frame{}, ErrMalformed
	}
	doc := gjson.Parse(line)
	if !doc.IsObject() {
		return Frame{}, ErrMalformed
	}
	f := Frame{Number: int(doc.Get("frame").Int())}
	doc.Get("items").ForEach(func(_, v gjson.Result) bool {
		f.Events = append(f.Events, parseItem(v))
		return true
	})
	return f, nil
}

func parseItem(v gjson.Result) model.ScanEvent {
	var lore, enchants []string
	v.Get("lore").ForEach(func(_, l gjson.Result) bool {
		lore = append(lore, l.String())
		return true
	})
	v.Get("enchants").ForEach(func(_, e gjson.Result) bool {
		enchants = append(enchants, e.String())
		return true
	})
	count := 1
	if c := v.Get("count"); c.Exists() {
		count = int(c.Int())
	}
	ev := model.ScanEvent{
		Slot:        int(v.Get("slot").Int()),
		DisplayName: textclean.Strip(v.Get("name").String()),
		Lore:        textclean.StripAll(lore),
		Material:    strings.ToLower(v.Get("material").String()),
		Enchants:    enchant.Signature(enchants),
		StackSize:   count,
	}
	// Numeric prices keep their source text so Parse sees exactly what was written.
	switch p := v.Get("price"); p.Type {
	case gjson.String:
		ev.RawPrice = p.String()
	case gjson.Number:
		ev.RawPrice = p.Raw
	}
	return ev
}

// Reader yields frames from a JSONL stream.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next frame, skipping blank lines. It returns io.EOF at the end of the stream.
func (r *Reader) Next() (Frame, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		f, err := ParseFrame(text)
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return f, nil
	}
	if err := r.sc.Err(); err != nil {
		return Frame{}, fmt.Errorf("failed to read feed: %w", err)
	}
	return Frame{}, io.EOF
}

// ReadAll decodes every frame in r.
func ReadAll(r io.Reader) ([]Frame, error) {
	fr := NewReader(r)
	var frames []Frame
	for {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

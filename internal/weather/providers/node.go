package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// Node is a read-only view over part of a parsed provider response. Paths use
// gjson syntax ("Temperature.Metric.Value", "weather.0.id").
type Node struct {
	res  gjson.Result
	path string
}

// ParseBody parses a raw response body. Empty or invalid JSON fails with
// weather.ErrEmptyResponse.
func ParseBody(body string) (Node, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || trimmed == "null" || !gjson.Valid(trimmed) {
		return Node{}, &weather.ResponseError{Err: weather.ErrEmptyResponse}
	}
	return Node{res: gjson.Parse(trimmed)}, nil
}

func (n Node) full(path string) string {
	switch {
	case n.path == "":
		return path
	case path == "":
		return n.path
	default:
		return n.path + "." + path
	}
}

func (n Node) lookup(path string) gjson.Result {
	if path == "" {
		return n.res
	}
	return n.res.Get(path)
}

// Get returns the child at path. The child may not exist.
func (n Node) Get(path string) Node {
	return Node{res: n.lookup(path), path: n.full(path)}
}

// Exists reports whether path holds a non-null value.
func (n Node) Exists(path string) bool {
	r := n.lookup(path)
	return r.Exists() && r.Type != gjson.Null
}

// IsArray reports whether the node holds a JSON array.
func (n Node) IsArray() bool { return n.res.IsArray() }

// Items returns the elements at path. An object counts as a one-element
// collection.
func (n Node) Items(path string) ([]Node, error) {
	r := n.lookup(path)
	switch {
	case r.IsArray():
		arr := r.Array()
		out := make([]Node, 0, len(arr))
		for i, item := range arr {
			out = append(out, Node{res: item, path: fmt.Sprintf("%s.%d", n.full(path), i)})
		}
		return out, nil
	case r.IsObject():
		return []Node{{res: r, path: n.full(path)}}, nil
	default:
		return nil, weather.Malformed("", "", n.full(path), fmt.Errorf("expected array or object, got %s", r.Type))
	}
}

// Float reads the number at path.
func (n Node) Float(path string) (float64, error) {
	r := n.lookup(path)
	if !r.Exists() || r.Type != gjson.Number {
		return 0, n.typeErr(path, r, "number")
	}
	return r.Float(), nil
}

// FloatOr returns the number at path, or def when it is absent or not a number.
func (n Node) FloatOr(path string, def float64) float64 {
	r := n.lookup(path)
	if r.Type != gjson.Number {
		return def
	}
	return r.Float()
}

// Int reads the number at path, truncated to an int.
func (n Node) Int(path string) (int, error) {
	r := n.lookup(path)
	if !r.Exists() || r.Type != gjson.Number {
		return 0, n.typeErr(path, r, "number")
	}
	return int(r.Int()), nil
}

// String reads the string at path.
func (n Node) String(path string) (string, error) {
	r := n.lookup(path)
	if !r.Exists() || r.Type != gjson.String {
		return "", n.typeErr(path, r, "string")
	}
	return r.Str, nil
}

// Unix reads a number of seconds since the epoch.
func (n Node) Unix(path string) (time.Time, error) {
	r := n.lookup(path)
	if !r.Exists() || r.Type != gjson.Number {
		return time.Time{}, n.typeErr(path, r, "unix timestamp")
	}
	return time.Unix(r.Int(), 0).UTC(), nil
}

// Time reads an RFC 3339 timestamp string.
func (n Node) Time(path string) (time.Time, error) {
	r := n.lookup(path)
	if !r.Exists() || r.Type != gjson.String {
		return time.Time{}, n.typeErr(path, r, "RFC 3339 time")
	}
	t, err := time.Parse(time.RFC3339, r.Str)
	if err != nil {
		return time.Time{}, weather.Malformed("", "", n.full(path), err)
	}
	return t.UTC(), nil
}

func (n Node) typeErr(path string, r gjson.Result, want string) error {
	if !r.Exists() {
		return weather.Malformed("", "", n.full(path), fmt.Errorf("missing %s", want))
	}
	return weather.Malformed("", "", n.full(path), fmt.Errorf("expected %s, got %s", want, r.Type))
}

// Reader reads several fields from a Node and keeps the first error, so a
// mapper can read everything it needs and check once.
type Reader struct {
	n   Node
	err error
}

// Reader starts an error-accumulating read of n.
func (n Node) Reader() *Reader { return &Reader{n: n} }

// Err returns the first failed read, if any.
func (r *Reader) Err() error { return r.err }

// Float, Int, String and Unix behave like their Node counterparts but return
// the zero value once any read has failed.
func (r *Reader) Float(path string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.n.Float(path)
	r.err = err
	return v
}

func (r *Reader) Int(path string) int {
	if r.err != nil {
		return 0
	}
	v, err := r.n.Int(path)
	r.err = err
	return v
}

func (r *Reader) String(path string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.n.String(path)
	r.err = err
	return v
}

func (r *Reader) Unix(path string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, err := r.n.Unix(path)
	r.err = err
	return v
}

// str renders any value as text; absent values become "".
func (n Node) str() string { return n.res.String() }

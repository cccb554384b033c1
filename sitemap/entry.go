package sitemap

import (
	"bytes"
	"encoding/json"
)

type Property struct {
	Name  string
	Value any
}

// Entry is one page of a sitemap.  Properties keep the order they were put in.
type Entry struct {
	Path string
	URL  string

	properties []Property
	names      map[string]int
}

func NewEntry(path string) *Entry {
	return &Entry{Path: path, names: make(map[string]int)}
}

// PutProperty adds a property unless one with the same name is already present.  It reports
// whether the value was stored.
func (e *Entry) PutProperty(name string, value any) bool {
	if e.names == nil {
		e.names = make(map[string]int)
	}
	if _, ok := e.names[name]; ok {
		return false
	}
	e.names[name] = len(e.properties)
	e.properties = append(e.properties, Property{Name: name, Value: value})
	return true
}

func (e *Entry) Property(name string) (any, bool) {
	i, ok := e.names[name]
	if !ok {
		return nil, false
	}
	return e.properties[i].Value, true
}

func (e *Entry) Properties() []Property {
	return append([]Property(nil), e.properties...)
}

// MarshalJSON writes properties as an object in insertion order.
func (e *Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"path":`)
	if err := writeJSON(&buf, e.Path); err != nil {
		return nil, err
	}
	buf.WriteString(`,"url":`)
	if err := writeJSON(&buf, e.URL); err != nil {
		return nil, err
	}
	buf.WriteString(`,"properties":{`)
	for i, p := range e.properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, p.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, p.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

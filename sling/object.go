package sling

import (
	"encoding/json"
	"fmt"
	"io"
)

// Object is a JSON object that remembers the order of its keys.  Child node order in a Sling
// tree is significant and a plain map would lose it.  Nested objects are *Object, arrays []any.
type Object struct {
	Keys   []string
	Values map[string]any
}

func (o *Object) Str(key string) string {
	s, _ := o.Values[key].(string)
	return s
}

func (o *Object) Child(key string) (*Object, bool) {
	c, ok := o.Values[key].(*Object)
	return c, ok
}

// Plain converts the object into nested map[string]any values.
func (o *Object) Plain() map[string]any {
	m := make(map[string]any, len(o.Keys))
	for _, k := range o.Keys {
		m[k] = plain(o.Values[k])
	}
	return m
}

func plain(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Plain()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	default:
		return v
	}
}

func DecodeObject(r io.Reader) (*Object, error) {
	dec := json.NewDecoder(r)
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("sling: expected a JSON object, got %T", v)
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObjectBody(dec)
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("sling: unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}

func decodeObjectBody(dec *json.Decoder) (*Object, error) {
	obj := &Object{Values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("sling: object key is not a string: %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if _, dup := obj.Values[key]; !dup {
			obj.Keys = append(obj.Keys, key)
		}
		obj.Values[key] = v
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Supported document extensions.
var documentExtensions = []string{".yaml", ".yml", ".toml", ".json", ".jsonc"}

// decode parses data into a generic tree, choosing the format by extension.
func decode(path string, data []byte) (map[string]any, error) {
	var tree map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &tree); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported document extension %q (want one of %s)", ext, strings.Join(documentExtensions, ", "))
	}
	return tree, nil
}

// node wraps one mapping of the generic tree with its location.
type node struct {
	loc    string
	fields map[string]any
}

func asNode(loc string, v any) (node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return node{}, fmt.Errorf("expected a mapping, got %s", typeName(v))
	}
	return node{loc: loc, fields: m}, nil
}

func (n node) at(key string) string {
	if n.loc == "" {
		return key
	}
	return n.loc + "." + key
}

func (n node) has(key string) bool {
	_, ok := n.fields[key]
	return ok
}

// only rejects keys outside allowed.
func (n node) only(allowed ...string) (string, error) {
	for key := range n.fields {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return n.at(key), fmt.Errorf("unknown field %q", key)
		}
	}
	return "", nil
}

func (n node) str(key string) (string, error) {
	v, ok := n.fields[key]
	if !ok || v == nil {
		return "", nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("expected a string, got %s", typeName(v))
	}
}

func (n node) bool(key string) (bool, error) {
	v, ok := n.fields[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected true or false, got %s", typeName(v))
	}
	return b, nil
}

func (n node) list(key string) ([]any, error) {
	v, ok := n.fields[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %s", typeName(v))
	}
	return items, nil
}

func (n node) strings(key string) ([]string, error) {
	items, err := n.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected a string, got %s", key, i, typeName(item))
		}
		out = append(out, s)
	}
	return out, nil
}

// mode reads a permission mode given as an octal string ("0600") or a number.
func (n node) mode(key string) (uint32, error) {
	v, ok := n.fields[key]
	if !ok || v == nil {
		return 0, nil
	}
	var m uint64
	switch x := v.(type) {
	case string:
		parsed, err := strconv.ParseUint(strings.TrimPrefix(x, "0o"), 8, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid mode %q: want an octal string like \"0600\"", x)
		}
		m = parsed
	case int:
		m = uint64(x)
	case int64:
		m = uint64(x)
	case uint64:
		m = x
	case float64:
		m = uint64(x)
	default:
		return 0, fmt.Errorf("invalid mode: got %s", typeName(v))
	}
	if m == 0 || m > 0o777 {
		return 0, fmt.Errorf("invalid mode %#o", m)
	}
	return uint32(m), nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

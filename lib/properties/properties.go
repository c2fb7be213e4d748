package properties

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Properties
// --------------------------------------------------------------------------

// Properties is a set of string key-value pairs with whitespace-normalized
// keys and values. The property names "Foo", "  Foo" and "Foo  " are
// equivalent.
type Properties struct {
	mutex sync.RWMutex
	data  map[string]string
}

// New creates an empty Properties set.
func New() *Properties {
	return &Properties{
		data: make(map[string]string),
	}
}

// Get returns the value for key. The boolean return value indicates whether
// the property is set.
func (p *Properties) Get(key string) (string, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	value, ok := p.data[strings.TrimSpace(key)]
	return value, ok
}

// GetUint64 returns the value for key parsed as an unsigned integer.
func (p *Properties) GetUint64(key string) (uint64, error) {
	value, ok := p.Get(key)
	if !ok {
		return 0, fmt.Errorf("property %q is not set", strings.TrimSpace(key))
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("property %q is not an unsigned integer: %w", strings.TrimSpace(key), err)
	}
	return parsed, nil
}

// Set stores value under key. Leading and trailing whitespace is removed
// from both.
func (p *Properties) Set(key, value string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.data[strings.TrimSpace(key)] = strings.TrimSpace(value)
}

// SetUint64 stores value's decimal representation under key.
func (p *Properties) SetUint64(key string, value uint64) {
	p.Set(key, strconv.FormatUint(value, 10))
}

// Remove deletes the property for key, if set.
func (p *Properties) Remove(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	delete(p.data, strings.TrimSpace(key))
}

// Keys returns all property names in sorted order.
func (p *Properties) Keys() []string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	keys := make([]string, 0, len(p.data))
	for key := range p.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Serialization
// --------------------------------------------------------------------------

// Parse reads a properties set from r. The format is line-oriented:
// one "key = value" entry per line, whitespace around key and value trimmed,
// empty lines skipped. A line without a separator fails with an error; the
// caller decides how to surface it.
func Parse(r io.Reader) (*Properties, error) {
	props := New()
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("malformed property on line %d: %q", lineNo, line)
		}
		props.Set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// Write serializes the properties to w, one "key = value" line per entry,
// ordered by key.
func (p *Properties) Write(w io.Writer) error {
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		if _, err := fmt.Fprintf(w, "%s = %s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}

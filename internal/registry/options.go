package registry

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// Options holds caller supplied settings keyed by extension name. Extensions
// look up their own settings while registering; anything never looked up is
// reported when the registry is frozen.
type Options struct {
	mu     sync.Mutex
	values map[string]map[string]any
	used   map[string]struct{}
}

// NewOptions creates an option set from a per-extension map.
func NewOptions(values map[string]map[string]any) *Options {
	o := &Options{
		values: make(map[string]map[string]any, len(values)),
		used:   make(map[string]struct{}),
	}
	for name, v := range values {
		o.values[name] = maps.Clone(v)
	}
	return o
}

// Lookup returns a copy of the options for the named extension and marks them as used.
func (o *Options) Lookup(extension string) (map[string]any, bool) {
	if o == nil {
		return nil, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.used[extension] = struct{}{}
	v, ok := o.values[extension]
	return maps.Clone(v), ok
}

// Decode looks up the options of extension and decodes them into target,
// a pointer to a struct with mapstructure tags. Keys target does not declare
// are an error. It reports whether any options were set.
func (o *Options) Decode(extension string, target any) (bool, error) {
	values, ok := o.Lookup(extension)
	if !ok {
		return false, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return true, err
	}
	if err := dec.Decode(values); err != nil {
		return true, fmt.Errorf("options of extension %q: %w", extension, err)
	}
	return true, nil
}

// Unused returns the sorted names of extensions whose options were never looked up.
func (o *Options) Unused() []string {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	var unused []string
	for name := range o.values {
		if _, ok := o.used[name]; !ok {
			unused = append(unused, name)
		}
	}
	slices.Sort(unused)
	return unused
}

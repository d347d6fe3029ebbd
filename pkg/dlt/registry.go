package dlt

import "fmt"

// Registry maps link types to the plugin that handles them. One Registry
// is shared read-only across every Session built from the same Config.
type Registry struct {
	plugins map[LinkType]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[LinkType]Plugin)}
}

// Register adds (or replaces) the plugin for its LinkType.
func (r *Registry) Register(p Plugin) {
	r.plugins[p.LinkType()] = p
}

// Lookup returns the plugin registered for lt, if any.
func (r *Registry) Lookup(lt LinkType) (Plugin, error) {
	p, ok := r.plugins[lt]
	if !ok {
		return nil, fmt.Errorf("dlt: no plugin registered for link type %s", lt)
	}
	return p, nil
}

// NewDefaultRegistry returns a registry pre-populated with the four link
// types this editor ships support for: Ethernet, raw IP, Linux cooked
// capture, and IEEE 802.11.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewEthernetPlugin())
	r.Register(NewRawPlugin())
	r.Register(NewLinuxSLLPlugin())
	r.Register(NewIEEE80211Plugin())
	return r
}

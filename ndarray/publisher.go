package ndarray

import (
	"io"
	"log"
	"sync"
)

// Plugin consumes frames.  Process is called synchronously by the publisher;
// a plugin that keeps the array past the call must Reserve it.
type Plugin interface {
	Process(*Array) error
}

// PluginFunc adapts a function to the Plugin interface
type PluginFunc func(*Array) error

// Process calls f(a)
func (f PluginFunc) Process(a *Array) error {
	return f(a)
}

// Publisher fans frames out to attached plugins in attach order
type Publisher struct {
	mu      sync.RWMutex
	names   []string
	plugins map[string]Plugin
	msg     *log.Logger
}

// NewPublisher returns a publisher which logs plugin errors to msg.
// A nil logger discards them.
func NewPublisher(msg *log.Logger) *Publisher {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	return &Publisher{plugins: map[string]Plugin{}, msg: msg}
}

// Attach adds a plugin under name, replacing any plugin with that name
func (p *Publisher) Attach(name string, plugin Plugin) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.plugins[name]; !ok {
		p.names = append(p.names, name)
	}
	p.plugins[name] = plugin
}

// Detach removes a plugin
func (p *Publisher) Detach(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.plugins[name]; !ok {
		return
	}
	delete(p.plugins, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
}

// Plugins returns the names of the attached plugins
func (p *Publisher) Plugins() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.names...)
}

// Publish hands a to every plugin.  A failing plugin is logged and does not
// stop the others.  The caller keeps its own reference to a.
func (p *Publisher) Publish(a *Array) {
	p.mu.RLock()
	names := append([]string(nil), p.names...)
	plugins := make([]Plugin, len(names))
	for i, n := range names {
		plugins[i] = p.plugins[n]
	}
	p.mu.RUnlock()
	for i, plugin := range plugins {
		a.Reserve()
		if err := plugin.Process(a); err != nil {
			p.msg.Printf("plugin %s failed on frame %d: %v", names[i], a.UniqueID, err)
		}
		a.Release()
	}
}

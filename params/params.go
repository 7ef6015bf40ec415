/*Package params holds a table of named, typed parameters.

A Table is the process-variable surface of a driver: each parameter has a
fixed string name, a kind (int32, float64, string), a last-known value, a
status from the last write, and optionally a list of enum choices.
Subscribers are told about every change.

The table has its own lock so readers such as an HTTP server never block
on a driver that is busy talking to hardware.
*/
package params

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknown is returned when a parameter does not exist
	ErrUnknown = errors.New("params: unknown parameter")

	// ErrKind is returned when a parameter is accessed as the wrong kind
	ErrKind = errors.New("params: wrong parameter kind")
)

// Kind is the type of a parameter
type Kind int

const (
	// Int32 is a 32-bit integer parameter
	Int32 Kind = iota

	// Float64 is a double precision parameter
	Float64

	// String is a string parameter
	String
)

func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	case String:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a snapshot of one parameter
type Value struct {
	Name  string  `json:"name"`
	Kind  Kind    `json:"-"`
	Int   int32   `json:"int,omitempty"`
	Float float64 `json:"f64,omitempty"`
	Str   string  `json:"str,omitempty"`

	// Status is the error of the last failed write, empty if it succeeded
	Status string `json:"status,omitempty"`
}

// Enum is the list of choices an integer parameter may take
type Enum struct {
	Strings []string `json:"strings"`
	Values  []int32  `json:"values"`
}

type entry struct {
	Value
	enum *Enum
}

// Table is a set of parameters.  It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	index map[string]int
	list  []*entry
	subs  []func(Value)
}

// New returns an empty table
func New() *Table {
	return &Table{index: map[string]int{}}
}

// Create adds a parameter and returns its index.  Creating a name that
// already exists returns the existing index if the kind matches.
func (t *Table) Create(name string, kind Kind) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[name]; ok {
		if t.list[i].Kind != kind {
			return i, fmt.Errorf("%w: %s is %s", ErrKind, name, t.list[i].Kind)
		}
		return i, nil
	}
	t.list = append(t.list, &entry{Value: Value{Name: name, Kind: kind}})
	i := len(t.list) - 1
	t.index[name] = i
	return i, nil
}

// Index returns the index of a parameter
func (t *Table) Index(name string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[name]
	return i, ok
}

// Has returns true if the parameter exists
func (t *Table) Has(name string) bool {
	_, ok := t.Index(name)
	return ok
}

// KindOf returns the kind of a parameter
func (t *Table) KindOf(name string) (Kind, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(name)
	if err != nil {
		return 0, err
	}
	return e.Kind, nil
}

// lookup must be called with the lock held
func (t *Table) lookup(name string) (*entry, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return t.list[i], nil
}

func (t *Table) lookupKind(name string, kind Kind) (*entry, error) {
	e, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.Kind != kind {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrKind, name, e.Kind, kind)
	}
	return e, nil
}

// SetInt stores an integer value and clears the status
func (t *Table) SetInt(name string, v int32) error {
	t.mu.Lock()
	e, err := t.lookupKind(name, Int32)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	changed := e.Int != v || e.Status != ""
	e.Int = v
	e.Status = ""
	snap := e.Value
	t.mu.Unlock()
	if changed {
		t.notify(snap)
	}
	return nil
}

// SetFloat stores a float value and clears the status
func (t *Table) SetFloat(name string, v float64) error {
	t.mu.Lock()
	e, err := t.lookupKind(name, Float64)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	changed := e.Float != v || e.Status != ""
	e.Float = v
	e.Status = ""
	snap := e.Value
	t.mu.Unlock()
	if changed {
		t.notify(snap)
	}
	return nil
}

// SetString stores a string value and clears the status
func (t *Table) SetString(name string, v string) error {
	t.mu.Lock()
	e, err := t.lookupKind(name, String)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	changed := e.Str != v || e.Status != ""
	e.Str = v
	e.Status = ""
	snap := e.Value
	t.mu.Unlock()
	if changed {
		t.notify(snap)
	}
	return nil
}

// SetStatus records the error of a failed write without touching the value.
// A nil error clears the status.
func (t *Table) SetStatus(name string, status error) error {
	t.mu.Lock()
	e, err := t.lookup(name)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if status == nil {
		e.Status = ""
	} else {
		e.Status = status.Error()
	}
	snap := e.Value
	t.mu.Unlock()
	t.notify(snap)
	return nil
}

// Int returns an integer value
func (t *Table) Int(name string) (int32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookupKind(name, Int32)
	if err != nil {
		return 0, err
	}
	return e.Int, nil
}

// Float returns a float value
func (t *Table) Float(name string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookupKind(name, Float64)
	if err != nil {
		return 0, err
	}
	return e.Float, nil
}

// Str returns a string value
func (t *Table) Str(name string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookupKind(name, String)
	if err != nil {
		return "", err
	}
	return e.Str, nil
}

// Get returns a snapshot of one parameter
func (t *Table) Get(name string) (Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(name)
	if err != nil {
		return Value{}, err
	}
	return e.Value, nil
}

// List returns a snapshot of every parameter, sorted by name
func (t *Table) List() []Value {
	t.mu.RLock()
	out := make([]Value, len(t.list))
	for i, e := range t.list {
		out[i] = e.Value
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetEnum sets the choices of an integer parameter.  strs and vals must
// have the same length.
func (t *Table) SetEnum(name string, strs []string, vals []int32) error {
	if len(strs) != len(vals) {
		return fmt.Errorf("params: enum %s has %d strings and %d values", name, len(strs), len(vals))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookupKind(name, Int32)
	if err != nil {
		return err
	}
	e.enum = &Enum{
		Strings: append([]string(nil), strs...),
		Values:  append([]int32(nil), vals...),
	}
	return nil
}

// Enum returns the choices of a parameter, false if it has none
func (t *Table) Enum(name string) (Enum, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, err := t.lookup(name)
	if err != nil || e.enum == nil {
		return Enum{}, false
	}
	return Enum{
		Strings: append([]string(nil), e.enum.Strings...),
		Values:  append([]int32(nil), e.enum.Values...),
	}, true
}

// Subscribe registers fcn to be called after every change.  Calls happen on
// the goroutine that made the change, without the table lock held.
func (t *Table) Subscribe(fcn func(Value)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, fcn)
}

func (t *Table) notify(v Value) {
	t.mu.RLock()
	subs := t.subs
	t.mu.RUnlock()
	for _, fcn := range subs {
		fcn(v)
	}
}

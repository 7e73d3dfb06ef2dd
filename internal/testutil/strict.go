package testutil

import (
	"errors"
	"fmt"
	"sort"
)

// Func is a replaceable callable on a mock.
type Func func(args ...any) (any, error)

// UnstubbedCallError is returned by a strict mock method that was called
// without an explicit override.
type UnstubbedCallError struct {
	Name string
}

func (e *UnstubbedCallError) Error() string {
	return fmt.Sprintf("%s not implemented", e.Name)
}

// IsUnstubbedCall reports whether err is, or wraps, an UnstubbedCallError.
func IsUnstubbedCall(err error) bool {
	var u *UnstubbedCallError
	return errors.As(err, &u)
}

// MakeStrict replaces every entry of funcs with a callable that fails with
// *UnstubbedCallError naming the entry. Tests then override only the entries
// they expect to be called. funcs is modified in place and returned.
func MakeStrict(funcs map[string]Func) map[string]Func {
	for name := range funcs {
		funcs[name] = unstubbed(name)
	}
	return funcs
}

// StrictMock is a named set of strict callables.
type StrictMock struct {
	funcs map[string]Func
}

// NewStrictMock creates a mock whose methods all fail until overridden.
func NewStrictMock(names ...string) *StrictMock {
	funcs := make(map[string]Func, len(names))
	for _, name := range names {
		funcs[name] = nil
	}
	return &StrictMock{funcs: MakeStrict(funcs)}
}

// Override installs fn for name. Overriding a name the mock was not created
// with adds it.
func (m *StrictMock) Override(name string, fn Func) {
	if fn == nil {
		fn = unstubbed(name)
	}
	m.funcs[name] = fn
}

// Call invokes name. Unknown names fail like unstubbed ones.
func (m *StrictMock) Call(name string, args ...any) (any, error) {
	fn, ok := m.funcs[name]
	if !ok {
		return nil, &UnstubbedCallError{Name: name}
	}
	return fn(args...)
}

// Names returns the mock's method names, sorted.
func (m *StrictMock) Names() []string {
	names := make([]string, 0, len(m.funcs))
	for name := range m.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unstubbed(name string) Func {
	return func(...any) (any, error) {
		return nil, &UnstubbedCallError{Name: name}
	}
}

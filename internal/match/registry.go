// Package match provides deep-equality assertions for playback tests that
// consult domain-specific equality rules before falling back to structural
// comparison.
package match

import (
	"reflect"
	"sync"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/playtest/internal/media"
	"github.com/roach88/playtest/internal/tree"
)

// Tester is a custom equality rule. It returns ok == false when it has no
// opinion on the pair, in which case the next rule, or structural
// comparison, decides. Testers must be symmetric.
type Tester func(actual, expected any) (equal, ok bool)

// Registry holds testers consulted in registration order.
type Registry struct {
	mu      sync.RWMutex
	testers []Tester
}

// NewRegistry creates a registry with the given testers.
func NewRegistry(testers ...Tester) *Registry {
	r := &Registry{}
	for _, t := range testers {
		r.Register(t)
	}
	return r
}

// Default is the registry used by Equal. It knows about segment references
// and markup trees.
var Default = NewRegistry(SegmentReferences, Nodes)

// Register appends a tester. Nil testers are ignored.
func (r *Registry) Register(t Tester) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.testers = append(r.testers, t)
}

// decide returns the verdict of the first tester with an opinion.
func (r *Registry) decide(actual, expected any) (equal, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.testers {
		if eq, ok := t(actual, expected); ok {
			return eq, true
		}
	}
	return false, false
}

// Options returns go-cmp options applying the registry's testers at every
// level of a comparison, so a rule also fires for values nested in structs,
// slices and maps.
//
// Options passed here take precedence: the testers stand aside for any type
// that one of them already compares or transforms, so the combination never
// makes go-cmp report an ambiguous set of options.
func (r *Registry) Options(opts ...cmp.Option) cmp.Options {
	claimed := claimedTypes(opts)
	return cmp.Options{
		cmp.FilterPath(
			func(p cmp.Path) bool { return !claimed(p.Last().Type()) },
			cmp.FilterValues(
				func(x, y any) bool {
					_, ok := r.decide(y, x)
					return ok
				},
				cmp.Comparer(func(x, y any) bool {
					eq, _ := r.decide(y, x)
					return eq
				}),
			),
		),
	}
}

// Equal reports whether actual equals expected under the registry's rules.
// opts win over the registry wherever both would apply.
func (r *Registry) Equal(actual, expected any, opts ...cmp.Option) bool {
	return cmp.Equal(expected, actual, append(cmp.Options{r.Options(opts...)}, opts...)...)
}

// Diff returns a human-readable report of differences between expected and
// actual ("-" lines are expected, "+" lines are actual), or "" if equal.
func (r *Registry) Diff(actual, expected any, opts ...cmp.Option) string {
	return cmp.Diff(expected, actual, append(cmp.Options{r.Options(opts...)}, opts...)...)
}

// claimedTypes returns a predicate reporting whether opts already decide
// values of a type. A type is claimed when comparing its zero value under
// opts plus a catch-all comparer is ambiguous to go-cmp. Interface types are
// never claimed; their dynamic values are checked one level down.
func claimedTypes(opts cmp.Options) func(reflect.Type) bool {
	if len(opts) == 0 {
		return func(reflect.Type) bool { return false }
	}
	var cache sync.Map
	return func(t reflect.Type) bool {
		if t == nil || t.Kind() == reflect.Interface {
			return false
		}
		if v, ok := cache.Load(t); ok {
			return v.(bool)
		}
		claimed := overlaps(t, opts)
		cache.Store(t, claimed)
		return claimed
	}
}

func overlaps(t reflect.Type, opts cmp.Options) (claimed bool) {
	defer func() {
		if recover() != nil {
			claimed = true
		}
	}()
	marker := cmp.FilterPath(
		func(p cmp.Path) bool { return p.Last().Type() == t },
		cmp.Comparer(func(x, y any) bool { return true }),
	)
	zero := reflect.Zero(t).Interface()
	cmp.Equal(zero, zero, append(cmp.Options{marker}, opts...)...)
	return false
}

// SegmentReferences adapts media.Compare to a Tester.
func SegmentReferences(actual, expected any) (equal, ok bool) {
	v := media.Compare(actual, expected)
	return v == media.Equal, v.Applies()
}

// Nodes compares markup trees with the structural diff engine. It applies
// only when both sides are tree values.
func Nodes(actual, expected any) (equal, ok bool) {
	a, aok := actual.(tree.Value)
	e, eok := expected.(tree.Value)
	if !aok || !eok {
		return false, false
	}
	return tree.Diff(a, e) == nil, true
}

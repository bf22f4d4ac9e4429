// Package world holds the facts a planner reasons about: the recorded
// state of every known variable, keyed by state key.
package world

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/dop251/goja"
	"github.com/joeycumines/strips/internal/strips"
)

// Snapshot is a thread-safe store of facts. Every state is cloned on the
// way in and on the way out, so callers never share a State with it.
//
// Usage: Create with new(Snapshot). The internal map is lazily initialized
// on the first write.
type Snapshot struct {
	mu   sync.RWMutex
	data map[string]*strips.State
}

func (w *Snapshot) init() {
	if w.data == nil {
		w.data = make(map[string]*strips.State)
	}
}

// Get returns a copy of the fact stored under key, or nil.
func (w *Snapshot) Get(key string) *strips.State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data[key].Clone()
}

// Set records s under its key, replacing any previous fact. Any live
// lookup attached to s is dropped; the snapshot stores values only.
func (w *Snapshot) Set(s *strips.State) {
	c := s.Clone().SetInquiry(nil)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.init()
	w.data[c.Key()] = c
}

// Has reports whether a fact is stored under key.
func (w *Snapshot) Has(key string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.data[key]
	return ok
}

// Delete removes the fact stored under key.
func (w *Snapshot) Delete(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.data, key)
}

// Keys returns every key, sorted.
func (w *Snapshot) Keys() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.data == nil {
		return nil
	}
	keys := make([]string, 0, len(w.data))
	for k := range w.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of facts.
func (w *Snapshot) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.data)
}

// Clear removes every fact.
func (w *Snapshot) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = make(map[string]*strips.State)
}

// Snapshot returns a copy of every fact, keyed by state key.
func (w *Snapshot) Snapshot() map[string]*strips.State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.data == nil {
		return nil
	}
	out := make(map[string]*strips.State, len(w.data))
	for k, v := range w.data {
		out[k] = v.Clone()
	}
	return out
}

// Clone returns an independent Snapshot holding the same facts.
func (w *Snapshot) Clone() *Snapshot {
	return &Snapshot{data: w.Snapshot()}
}

// Lookup implements strips.WorldState.
func (w *Snapshot) Lookup(s *strips.State) (*strips.State, bool) {
	v := w.Get(s.Key())
	return v, v != nil
}

// Commit records every state, typically the results of an applied attempt.
func (w *Snapshot) Commit(states ...*strips.State) {
	for _, s := range states {
		if s == nil {
			continue
		}
		w.Set(s)
		slog.Debug("world fact committed", "fact", s.String())
	}
}

// Inquiry returns a live lookup for states named name: it answers with the
// value currently recorded for the same owners, or nil when there is none
// or the recorded type differs from valueType.
func (w *Snapshot) Inquiry(name string, valueType strips.ValueType) strips.InquiryFunc {
	return func(owners []strips.Value) strips.Value {
		fact := w.Get(strips.StateKey(name, owners...))
		if fact == nil || fact.ValueType() != valueType {
			return nil
		}
		return fact.Value()
	}
}

// ExposeToJS creates a JavaScript object with read accessors for this
// snapshot. Values are exposed in their canonical string form:
//
//	world.get("battery(robot)") // "80", or null
//	world.has("battery(robot)")
//	world.keys()
//	world.len()
func (w *Snapshot) ExposeToJS(vm *goja.Runtime) goja.Value {
	obj := vm.NewObject()
	_ = obj.Set("get", func(key string) goja.Value {
		fact := w.Get(key)
		if fact == nil {
			return goja.Null()
		}
		return vm.ToValue(strips.Canonical(fact.Value()))
	})
	_ = obj.Set("has", w.Has)
	_ = obj.Set("keys", w.Keys)
	_ = obj.Set("len", w.Len)
	return obj
}

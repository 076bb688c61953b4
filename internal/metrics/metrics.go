package metrics

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry is a set of named int64 counters safe for concurrent use.
// Keys are strings, values are *int64.
type Registry struct {
	counters sync.Map
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Inc increments a counter by 1.
func (r *Registry) Inc(name string) {
	r.Add(name, 1)
}

// Add adds delta to a counter.
func (r *Registry) Add(name string, delta int64) {
	atomic.AddInt64(r.counter(name), delta)
}

// Set overwrites a counter.
func (r *Registry) Set(name string, v int64) {
	atomic.StoreInt64(r.counter(name), v)
}

func (r *Registry) counter(name string) *int64 {
	val, ok := r.counters.Load(name)
	if !ok {
		val, _ = r.counters.LoadOrStore(name, new(int64))
	}
	return val.(*int64)
}

// Get returns the current value of a counter.
func (r *Registry) Get(name string) int64 {
	val, ok := r.counters.Load(name)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(val.(*int64))
}

// Snapshot copies every counter.
func (r *Registry) Snapshot() map[string]int64 {
	snapshot := make(map[string]int64)
	r.counters.Range(func(key, value any) bool {
		snapshot[key.(string)] = atomic.LoadInt64(value.(*int64))
		return true
	})
	return snapshot
}

// Names returns the registered counter names in sorted order.
func (r *Registry) Names() []string {
	var names []string
	r.counters.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Handler is an HTTP handler that exposes all counters as JSON.
func (r *Registry) Handler(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(r.Snapshot())
}

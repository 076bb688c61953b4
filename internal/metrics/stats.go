package metrics

import (
	"context"
	"time"

	"github.com/phuslu/log"
)

// Counter names.
const (
	Records = "records"

	GetOK      = "get_ok"
	GetFail    = "get_fail"
	InsertOK   = "insert_ok"
	InsertFail = "insert_fail"
	DeleteOK   = "delete_ok"
	DeleteFail = "delete_fail"
	UpdateOK   = "update_ok"
	UpdateFail = "update_fail"
)

// Stats counts CRUD outcomes and tracks the number of live records.
// It only observes; it never touches storage.
type Stats struct {
	reg *Registry
}

// NewStats registers every counter at zero so that dumps and /metrics always
// show the full set.
func NewStats(reg *Registry) *Stats {
	for _, name := range []string{Records, GetOK, GetFail, InsertOK, InsertFail, DeleteOK, DeleteFail, UpdateOK, UpdateFail} {
		reg.Add(name, 0)
	}
	return &Stats{reg: reg}
}

func (s *Stats) Registry() *Registry {
	return s.reg
}

// SetRecords seeds the record count, e.g. from an existing log at startup.
func (s *Stats) SetRecords(n int) {
	s.reg.Set(Records, int64(n))
}

func (s *Stats) Get(ok bool) {
	s.count(ok, GetOK, GetFail)
}

// Insert may increment the record count.
func (s *Stats) Insert(ok bool) {
	if ok {
		s.reg.Inc(Records)
	}
	s.count(ok, InsertOK, InsertFail)
}

// Delete may decrement the record count.
func (s *Stats) Delete(ok bool) {
	if ok {
		s.reg.Add(Records, -1)
	}
	s.count(ok, DeleteOK, DeleteFail)
}

func (s *Stats) Update(ok bool) {
	s.count(ok, UpdateOK, UpdateFail)
}

func (s *Stats) count(ok bool, okName, failName string) {
	if ok {
		s.reg.Inc(okName)
		return
	}
	s.reg.Inc(failName)
}

// Dump writes every counter as one structured log line.
func (s *Stats) Dump(logger *log.Logger) {
	e := logger.Info()
	for _, name := range s.reg.Names() {
		e = e.Int64(name, s.reg.Get(name))
	}
	e.Msg("stats")
}

// Run dumps the statistics every interval until ctx is cancelled.
func (s *Stats) Run(ctx context.Context, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Dump(logger)
		}
	}
}

// Package registry receives the records produced by a mirror run.
//
// Sinks only record what was synced. Nothing here is read back when deciding
// whether a file needs downloading; that decision is made from the local
// filesystem alone.
package registry

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dl-alexandre/gdmirror/internal/types"
)

// Sink accepts one record per synced leaf. Implementations must be safe for
// concurrent use.
type Sink interface {
	Register(ctx context.Context, record types.SyncedRecord) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, record types.SyncedRecord) error

func (f SinkFunc) Register(ctx context.Context, record types.SyncedRecord) error {
	return f(ctx, record)
}

// Collector keeps records in memory in registration order
type Collector struct {
	mu      sync.Mutex
	records []types.SyncedRecord
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Register(ctx context.Context, record types.SyncedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
	return nil
}

// Records returns a copy of everything registered so far
func (c *Collector) Records() []types.SyncedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.SyncedRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of registered records
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Multi forwards every record to each sink in order, stopping at the first error
type Multi struct {
	sinks []Sink
}

// NewMulti combines sinks; nil entries are ignored
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Register(ctx context.Context, record types.SyncedRecord) error {
	for _, s := range m.sinks {
		if err := s.Register(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that implements io.Closer
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

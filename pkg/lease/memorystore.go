package lease

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/k8s-leaselock/pkg/system"
)

// MemoryStore implements Store in process. It backs the `memory` backend for
// running without a cluster and is the fake the election tests race against.
//
// Stored timestamps are kept in their serialized wire form and decoded on
// every read, so the timestamp parsing path is exercised exactly as it is
// against a real API server. Version tokens are a monotonic counter; a
// CompareAndReplace with a stale token loses, same as a Kubernetes Conflict.
type MemoryStore struct {
	mu        sync.Mutex
	name      string
	namespace string
	duration  time.Duration
	log       *zap.SugaredLogger

	exists  bool
	version uint64
	stored  storedLease

	pending []error
}

// storedLease is the serialized form of the record, mirroring what the API
// server keeps on the wire.
type storedLease struct {
	holder          string
	durationSeconds int32
	acquireTime     string
	renewTime       string
}

// NewMemoryStore returns an empty store for the named lease.
func NewMemoryStore(name, namespace string, leaseDuration time.Duration, log *zap.SugaredLogger) *MemoryStore {
	return &MemoryStore{
		name:      name,
		namespace: namespace,
		duration:  leaseDuration,
		log:       log.With(system.NamespacedFields(name, namespace)...),
	}
}

// FailNext queues errors to be returned, one per subsequent store call, in
// order. Used by tests to drive the loop's retry and demotion paths.
func (s *MemoryStore) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, errs...)
}

func (s *MemoryStore) takePending() error {
	if len(s.pending) == 0 {
		return nil
	}
	err := s.pending[0]
	s.pending = s.pending[1:]
	return err
}

// ReadOrCreate implements Store.
func (s *MemoryStore) ReadOrCreate(_ context.Context, initialHolder string, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takePending(); err != nil {
		return nil, err
	}
	if !s.exists {
		s.exists = true
		s.version++
		s.stored = storedLease{
			holder:          initialHolder,
			durationSeconds: int32(s.duration / time.Second),
			acquireTime:     FormatTime(now),
			renewTime:       FormatTime(now),
		}
	}
	return s.decode(), nil
}

// CompareAndReplace implements Store.
func (s *MemoryStore) CompareAndReplace(_ context.Context, rec *Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takePending(); err != nil {
		return false, err
	}
	if !s.exists || rec.ResourceVersion != strconv.FormatUint(s.version, 10) {
		return false, nil
	}
	s.version++
	s.stored = storedLease{
		holder:          rec.HolderIdentity,
		durationSeconds: rec.LeaseDurationSeconds,
		acquireTime:     FormatTime(rec.AcquireTime),
		renewTime:       FormatTime(rec.RenewTime),
	}
	return true, nil
}

// Snapshot returns the current record, or nil if the lease was never
// created. Test helper; observers in production read the elector, not the
// store.
func (s *MemoryStore) Snapshot() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return nil
	}
	return s.decode()
}

func (s *MemoryStore) decode() *Record {
	return &Record{
		Name:                 s.name,
		Namespace:            s.namespace,
		HolderIdentity:       s.stored.holder,
		LeaseDurationSeconds: s.stored.durationSeconds,
		AcquireTime:          ParseTime(s.stored.acquireTime, s.log),
		RenewTime:            ParseTime(s.stored.renewTime, s.log),
		ResourceVersion:      strconv.FormatUint(s.version, 10),
	}
}

package lease

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	coordinationv1 "k8s.io/api/coordination/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/telekom/k8s-leaselock/pkg/system"
)

// defaultRequestTimeout bounds every API call so a Stop() on the election
// loop is not held up by a hung connection.
const defaultRequestTimeout = 5 * time.Second

// KubeStore implements Store on a coordination.k8s.io/v1 Lease object. The
// Lease's resourceVersion is the compare-and-replace token: an Update with a
// stale resourceVersion fails with a Conflict, which CompareAndReplace maps
// to a lost race.
type KubeStore struct {
	client         kubernetes.Interface
	name           string
	namespace      string
	duration       time.Duration
	requestTimeout time.Duration
	log            *zap.SugaredLogger
}

// NewKubeStore returns a store bound to the named Lease. leaseDuration is
// recorded on leases this store creates or acquires.
func NewKubeStore(client kubernetes.Interface, name, namespace string, leaseDuration time.Duration, log *zap.SugaredLogger) *KubeStore {
	return &KubeStore{
		client:         client,
		name:           name,
		namespace:      namespace,
		duration:       leaseDuration,
		requestTimeout: defaultRequestTimeout,
		log:            log.With(system.NamespacedFields(name, namespace)...),
	}
}

func (s *KubeStore) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.requestTimeout)
}

// ReadOrCreate implements Store. A create that loses the race to another
// replica (the API answers AlreadyExists) falls back to reading what the
// winner wrote.
func (s *KubeStore) ReadOrCreate(ctx context.Context, initialHolder string, now time.Time) (*Record, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	leases := s.client.CoordinationV1().Leases(s.namespace)
	obj, err := leases.Get(callCtx, s.name, metav1.GetOptions{})
	if err == nil {
		return s.toRecord(obj), nil
	}
	if !apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("reading lease %s/%s: %w", s.namespace, s.name, err)
	}

	created, err := leases.Create(callCtx, s.newLease(initialHolder, now), metav1.CreateOptions{})
	if err == nil {
		s.log.Infow("Created lease", "holder", initialHolder)
		return s.toRecord(created), nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return nil, fmt.Errorf("creating lease %s/%s: %w", s.namespace, s.name, err)
	}

	// Another replica created it first; read theirs.
	obj, err = leases.Get(callCtx, s.name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("re-reading lease %s/%s after create conflict: %w", s.namespace, s.name, err)
	}
	return s.toRecord(obj), nil
}

// CompareAndReplace implements Store. A Conflict response means another
// writer updated the lease since it was read and reports false, nil.
func (s *KubeStore) CompareAndReplace(ctx context.Context, rec *Record) (bool, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.client.CoordinationV1().Leases(s.namespace).Update(callCtx, s.fromRecord(rec), metav1.UpdateOptions{})
	if err == nil {
		return true, nil
	}
	if apierrors.IsConflict(err) {
		return false, nil
	}
	return false, fmt.Errorf("updating lease %s/%s: %w", s.namespace, s.name, err)
}

func (s *KubeStore) newLease(holder string, now time.Time) *coordinationv1.Lease {
	micro := metav1.NewMicroTime(now)
	seconds := int32(s.duration / time.Second)
	return &coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{
			Name:      s.name,
			Namespace: s.namespace,
		},
		Spec: coordinationv1.LeaseSpec{
			HolderIdentity:       &holder,
			LeaseDurationSeconds: &seconds,
			AcquireTime:          &micro,
			RenewTime:            &micro,
		},
	}
}

func (s *KubeStore) toRecord(obj *coordinationv1.Lease) *Record {
	rec := &Record{
		Name:            obj.Name,
		Namespace:       obj.Namespace,
		ResourceVersion: obj.ResourceVersion,
	}
	if obj.Spec.HolderIdentity != nil {
		rec.HolderIdentity = *obj.Spec.HolderIdentity
	}
	if obj.Spec.LeaseDurationSeconds != nil {
		rec.LeaseDurationSeconds = *obj.Spec.LeaseDurationSeconds
	} else {
		rec.LeaseDurationSeconds = int32(s.duration / time.Second)
	}
	if obj.Spec.AcquireTime != nil {
		rec.AcquireTime = obj.Spec.AcquireTime.Time.UTC()
	}
	if obj.Spec.RenewTime != nil {
		rec.RenewTime = obj.Spec.RenewTime.Time.UTC()
	}
	return rec
}

func (s *KubeStore) fromRecord(rec *Record) *coordinationv1.Lease {
	obj := &coordinationv1.Lease{
		ObjectMeta: metav1.ObjectMeta{
			Name:            rec.Name,
			Namespace:       rec.Namespace,
			ResourceVersion: rec.ResourceVersion,
		},
	}
	if rec.HolderIdentity != "" {
		holder := rec.HolderIdentity
		obj.Spec.HolderIdentity = &holder
	}
	if rec.LeaseDurationSeconds > 0 {
		seconds := rec.LeaseDurationSeconds
		obj.Spec.LeaseDurationSeconds = &seconds
	}
	if !rec.AcquireTime.IsZero() {
		micro := metav1.NewMicroTime(rec.AcquireTime)
		obj.Spec.AcquireTime = &micro
	}
	if !rec.RenewTime.IsZero() {
		micro := metav1.NewMicroTime(rec.RenewTime)
		obj.Spec.RenewTime = &micro
	}
	return obj
}

package election

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/k8s-leaselock/pkg/lease"
)

var (
	t0            = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	leaseDuration = 15 * time.Second
)

func TestDecideRenewsOwnLease(t *testing.T) {
	rec := &lease.Record{
		HolderIdentity: "p1",
		AcquireTime:    t0,
		RenewTime:      t0,
	}

	next, held := decide(rec, "p1", t0.Add(10*time.Second), leaseDuration)
	require.NotNil(t, next)
	assert.True(t, held)
	assert.Equal(t, "p1", next.HolderIdentity)
	assert.True(t, next.RenewTime.Equal(t0.Add(10*time.Second)))
	assert.True(t, next.AcquireTime.Equal(t0), "renewing must not touch the acquire time")
}

func TestDecideAcquiresUnheldLease(t *testing.T) {
	rec := &lease.Record{}

	next, held := decide(rec, "p1", t0, leaseDuration)
	require.NotNil(t, next)
	assert.True(t, held)
	assert.Equal(t, "p1", next.HolderIdentity)
	assert.True(t, next.AcquireTime.Equal(t0))
	assert.True(t, next.RenewTime.Equal(t0))
	assert.EqualValues(t, 15, next.LeaseDurationSeconds)
}

func TestDecideAcquiresExpiredLease(t *testing.T) {
	rec := &lease.Record{
		HolderIdentity: "p1",
		AcquireTime:    t0,
		RenewTime:      t0,
	}

	next, held := decide(rec, "p2", t0.Add(16*time.Second), leaseDuration)
	require.NotNil(t, next)
	assert.True(t, held)
	assert.Equal(t, "p2", next.HolderIdentity)
	assert.True(t, next.AcquireTime.Equal(t0.Add(16*time.Second)), "new holder gets a fresh acquire time")
}

func TestDecideAcquiresReleasedLease(t *testing.T) {
	// A holder that released gracefully leaves its renew time behind but
	// clears its identity; the lease is free immediately.
	rec := &lease.Record{
		RenewTime: t0,
	}

	next, held := decide(rec, "p2", t0.Add(time.Second), leaseDuration)
	require.NotNil(t, next)
	assert.True(t, held)
	assert.Equal(t, "p2", next.HolderIdentity)
}

func TestDecideHonorsRecordDuration(t *testing.T) {
	// The record carries a shorter duration than ours; expiry follows the
	// record.
	rec := &lease.Record{
		HolderIdentity:       "p1",
		RenewTime:            t0,
		LeaseDurationSeconds: 5,
	}

	next, held := decide(rec, "p2", t0.Add(6*time.Second), leaseDuration)
	require.NotNil(t, next)
	assert.True(t, held)
	assert.Equal(t, "p2", next.HolderIdentity)
	assert.EqualValues(t, 15, next.LeaseDurationSeconds, "acquiring writes our own duration")
}

func TestDecideCedesToLiveHolder(t *testing.T) {
	rec := &lease.Record{
		HolderIdentity: "p1",
		AcquireTime:    t0,
		RenewTime:      t0,
	}

	next, held := decide(rec, "p2", t0.Add(5*time.Second), leaseDuration)
	assert.Nil(t, next, "no write must be attempted against a live lease")
	assert.False(t, held)
}

func TestDecideExpiryBoundary(t *testing.T) {
	rec := &lease.Record{
		HolderIdentity: "p1",
		RenewTime:      t0,
	}
	expiry := t0.Add(leaseDuration)

	next, held := decide(rec, "p2", expiry.Add(-time.Second), leaseDuration)
	assert.Nil(t, next, "one second before expiry the lease is still live")
	assert.False(t, held)

	next, held = decide(rec, "p2", expiry, leaseDuration)
	assert.Nil(t, next, "expiry itself is not yet past the deadline")
	assert.False(t, held)

	next, held = decide(rec, "p2", expiry.Add(time.Second), leaseDuration)
	require.NotNil(t, next)
	assert.True(t, held, "one second after expiry the lease is up for grabs")
	assert.Equal(t, "p2", next.HolderIdentity)
}

func TestDecideDoesNotMutateInput(t *testing.T) {
	rec := &lease.Record{HolderIdentity: "p1", RenewTime: t0}

	_, _ = decide(rec, "p1", t0.Add(time.Second), leaseDuration)
	assert.True(t, rec.RenewTime.Equal(t0), "decision must be pure")
}

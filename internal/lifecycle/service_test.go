package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ellie/internal/inventory"
	"github.com/mesh-intelligence/ellie/internal/jsonfile"
	"github.com/mesh-intelligence/ellie/internal/memory"
	"github.com/mesh-intelligence/ellie/internal/telemetry"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

var t0 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// fakeClock is a settable clock for tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newBackend(t *testing.T, name string) types.Backend {
	t.Helper()
	var b types.Backend
	switch name {
	case types.BackendMemory:
		b = memory.NewBackend()
	case types.BackendJSON:
		b = jsonfile.NewBackend()
	default:
		t.Fatalf("unknown backend %q", name)
	}
	require.NoError(t, b.Attach(types.Config{Backend: name, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// backends runs fn against every file-free and file-backed backend.
func backends(t *testing.T, fn func(t *testing.T, b types.Backend)) {
	for _, name := range []string{types.BackendMemory, types.BackendJSON} {
		t.Run(name, func(t *testing.T) { fn(t, newBackend(t, name)) })
	}
}

type fixture struct {
	svc   *Service
	clock *fakeClock
	drill string
	alice string
	bob   string
}

func setup(t *testing.T, b types.Backend, opts ...Option) fixture {
	t.Helper()
	clock := &fakeClock{now: t0}
	opts = append([]Option{WithClock(clock.Now), WithLogger(log.New(&bytes.Buffer{}, "", 0))}, opts...)
	svc := New(b, opts...)
	ctx := context.Background()

	drill, err := svc.AddEquipment(ctx, inventory.EquipmentInput{Name: "Drill"})
	require.NoError(t, err)
	alice, err := svc.AddPerson(ctx, inventory.PersonInput{Name: "Alice"})
	require.NoError(t, err)
	bob, err := svc.AddPerson(ctx, inventory.PersonInput{Name: "Bob"})
	require.NoError(t, err)

	return fixture{svc: svc, clock: clock, drill: drill.ID, alice: alice.ID, bob: bob.ID}
}

func TestCheckoutCheckinScenario(t *testing.T) {
	backends(t, func(t *testing.T, b types.Backend) {
		f := setup(t, b)
		ctx := context.Background()

		e, err := f.svc.GetEquipment(ctx, f.drill)
		require.NoError(t, err)
		assert.Equal(t, types.StatusAvailable, e.Status)

		c, err := f.svc.Checkout(ctx, f.drill, f.alice)
		require.NoError(t, err)
		assert.Equal(t, t0, c.CheckedOutAt)
		assert.Equal(t, t0.Add(24*time.Hour), c.DueAt)
		assert.Nil(t, c.CheckedInAt)

		e, err = f.svc.GetEquipment(ctx, f.drill)
		require.NoError(t, err)
		assert.Equal(t, types.StatusCheckedOut, e.Status)

		f.clock.Set(t0.Add(time.Hour))
		closed, err := f.svc.Checkin(ctx, f.drill)
		require.NoError(t, err)
		require.NotNil(t, closed.CheckedInAt)
		assert.Equal(t, t0.Add(time.Hour), *closed.CheckedInAt)

		e, err = f.svc.GetEquipment(ctx, f.drill)
		require.NoError(t, err)
		assert.Equal(t, types.StatusAvailable, e.Status)
		assert.Nil(t, e.CheckedOutTo)
		assert.Nil(t, e.DueAt)

		history, err := f.svc.History(ctx, f.drill)
		require.NoError(t, err)
		assert.Len(t, history, 1)

		f.clock.Set(t0.Add(2 * time.Hour))
		_, err = f.svc.Transfer(ctx, f.drill, f.bob)
		assert.ErrorIs(t, err, types.ErrNoActiveCheckout)
	})
}

func TestTransferScenario(t *testing.T) {
	backends(t, func(t *testing.T, b types.Backend) {
		f := setup(t, b)
		ctx := context.Background()

		_, err := f.svc.Checkout(ctx, f.drill, f.alice)
		require.NoError(t, err)

		f.clock.Set(t0.Add(2 * time.Hour))
		next, err := f.svc.Transfer(ctx, f.drill, f.bob)
		require.NoError(t, err)
		assert.Equal(t, t0.Add(2*time.Hour), next.CheckedOutAt)
		assert.Equal(t, t0.Add(26*time.Hour), next.DueAt)
		require.NotNil(t, next.HandoffFrom)
		assert.Equal(t, f.alice, *next.HandoffFrom)

		history, err := f.svc.History(ctx, f.drill)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, f.alice, history[0].PersonID)
		assert.True(t, history[0].Handoff)
		require.NotNil(t, history[0].CheckedInAt)
		assert.Equal(t, t0.Add(2*time.Hour), *history[0].CheckedInAt)
		assert.Equal(t, next, history[1])

		e, err := f.svc.GetEquipment(ctx, f.drill)
		require.NoError(t, err)
		assert.True(t, e.HeldBy(f.bob))
	})
}

func TestDeleteBlockedWhileCheckedOut(t *testing.T) {
	backends(t, func(t *testing.T, b types.Backend) {
		f := setup(t, b)
		ctx := context.Background()

		_, err := f.svc.Checkout(ctx, f.drill, f.alice)
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.DeleteEquipment(ctx, f.drill), types.ErrEquipmentCheckedOut)
		assert.ErrorIs(t, f.svc.DeletePerson(ctx, f.alice), types.ErrPersonHoldsEquipment)

		_, err = f.svc.Checkin(ctx, f.drill)
		require.NoError(t, err)

		require.NoError(t, f.svc.DeletePerson(ctx, f.alice))
		require.NoError(t, f.svc.DeleteEquipment(ctx, f.drill))

		list, err := f.svc.ListEquipment(ctx, inventory.EquipmentFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestFailedOperationPersistsNothing(t *testing.T) {
	backends(t, func(t *testing.T, b types.Backend) {
		f := setup(t, b)
		ctx := context.Background()

		before, err := b.Load(ctx)
		require.NoError(t, err)

		_, err = f.svc.Checkout(ctx, f.drill, "nobody")
		assert.ErrorIs(t, err, types.ErrPersonNotFound)
		_, err = f.svc.UpdatePerson(ctx, f.alice, inventory.PersonPatch{})
		assert.ErrorIs(t, err, types.ErrNoFields)
		_, err = f.svc.Checkin(ctx, f.drill)
		assert.ErrorIs(t, err, types.ErrNoActiveCheckout)

		after, err := b.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestEachCallLoadsFreshState(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendJSON, DataDir: dir}

	b1 := jsonfile.NewBackend()
	require.NoError(t, b1.Attach(config))
	defer b1.Detach()
	b2 := jsonfile.NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	ctx := context.Background()
	s1 := New(b1)
	s2 := New(b2)

	e, err := s1.AddEquipment(ctx, inventory.EquipmentInput{Name: "Drill"})
	require.NoError(t, err)
	p, err := s1.AddPerson(ctx, inventory.PersonInput{Name: "Alice"})
	require.NoError(t, err)

	_, err = s2.Checkout(ctx, e.ID, p.ID)
	require.NoError(t, err)

	_, err = s1.Checkout(ctx, e.ID, p.ID)
	assert.ErrorIs(t, err, types.ErrAlreadyCheckedOut)
}

func TestConcurrentCheckoutsSerialize(t *testing.T) {
	b := newBackend(t, types.BackendJSON)
	f := setup(t, b, WithLockTimeout(10*time.Second))
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Checkout(ctx, f.drill, f.alice)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, types.ErrAlreadyCheckedOut)
	}
	assert.Equal(t, 1, succeeded)

	history, err := f.svc.History(ctx, f.drill)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestBusyWhenLockHeld(t *testing.T) {
	b := newBackend(t, types.BackendMemory)
	f := setup(t, b, WithLockTimeout(20*time.Millisecond))
	ctx := context.Background()

	// A second service on the same location shares the lock.
	other := New(b)
	require.NoError(t, other.lock.Acquire(ctx, 1))

	_, err := f.svc.Checkout(ctx, f.drill, f.alice)
	assert.ErrorIs(t, err, types.ErrBusy)

	other.lock.Release(1)
	_, err = f.svc.Checkout(ctx, f.drill, f.alice)
	assert.NoError(t, err)
}

func TestInitTakesTheLockAndKeepsData(t *testing.T) {
	backends(t, func(t *testing.T, b types.Backend) {
		f := setup(t, b, WithLockTimeout(20*time.Millisecond))
		ctx := context.Background()
		_, err := f.svc.Checkout(ctx, f.drill, f.alice)
		require.NoError(t, err)

		other := New(b)
		require.NoError(t, other.lock.Acquire(ctx, 1))
		assert.ErrorIs(t, f.svc.Init(ctx), types.ErrBusy)
		other.lock.Release(1)

		before, err := b.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, f.svc.Init(ctx))
		after, err := b.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, b.Location(), f.svc.Location())
	})
}

func TestCanceledContextWhileWaiting(t *testing.T) {
	b := newBackend(t, types.BackendMemory)
	f := setup(t, b, WithLockTimeout(0))

	require.NoError(t, f.svc.lock.Acquire(context.Background(), 1))
	defer f.svc.lock.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.svc.Checkout(ctx, f.drill, f.alice)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, types.ErrBusy))
}

func TestInconsistentStateIsRefusedAndLogged(t *testing.T) {
	b := newBackend(t, types.BackendMemory)
	ctx := context.Background()

	holder := "alice"
	due := t0.Add(24 * time.Hour)
	snap := types.NewSnapshot()
	snap.Equipment = append(snap.Equipment,
		types.Equipment{ID: "drill", Name: "Drill", Status: types.StatusCheckedOut, CheckedOutTo: &holder, DueAt: &due},
		types.Equipment{ID: "saw", Name: "Saw", Status: types.StatusAvailable},
	)
	snap.People = append(snap.People, types.Person{ID: "alice", Name: "Alice"})
	require.NoError(t, b.Save(ctx, snap))

	var logs bytes.Buffer
	svc := New(b, WithLogger(log.New(&logs, "", 0)))

	_, err := svc.Checkin(ctx, "drill")
	assert.ErrorIs(t, err, types.ErrLedgerMismatch)
	assert.Contains(t, logs.String(), "INCONSISTENT checkin")

	logs.Reset()
	_, err = svc.Checkout(ctx, "drill", "alice")
	assert.ErrorIs(t, err, types.ErrLedgerMismatch)
	assert.NotErrorIs(t, err, types.ErrConflict)
	assert.Contains(t, logs.String(), "INCONSISTENT checkout")

	logs.Reset()
	_, err = svc.Checkout(ctx, "saw", "alice")
	assert.ErrorIs(t, err, types.ErrInconsistent)
	assert.Contains(t, logs.String(), "refusing to save")

	stored, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAvailable, stored.Equipment[1].Status)
	assert.Empty(t, stored.Checkouts)
}

func TestOverdue(t *testing.T) {
	b := newBackend(t, types.BackendMemory)
	f := setup(t, b)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.drill, f.alice)
	require.NoError(t, err)

	late, err := f.svc.Overdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, late)

	f.clock.Set(t0.Add(25 * time.Hour))
	late, err = f.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, f.drill, late[0].EquipmentID)
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := newBackend(t, types.BackendMemory)
	f := setup(t, b, WithMetrics(telemetry.NewMetrics(reg)))
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.drill, f.alice)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.drill, f.bob)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "ellie_operations_total")
	assert.Contains(t, names, "ellie_operation_duration_seconds")

	count, err := testutil.GatherAndCount(reg, "ellie_operations_total")
	require.NoError(t, err)
	// add_equipment, add_person ok, checkout ok, checkout conflict
	assert.Equal(t, 4, count)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, outcomeOK},
		{types.ErrNameRequired, outcomeValidation},
		{types.ErrPersonNotFound, outcomeNotFound},
		{types.ErrAlreadyCheckedOut, outcomeConflict},
		{types.ErrLedgerMismatch, outcomeInconsistent},
		{types.ErrBusy, outcomeBusy},
		{errors.New("disk full"), outcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcomeOf(tt.err))
	}
}

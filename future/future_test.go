package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveOnce(t *testing.T) {
	f, resolve, reject := New[int]()
	resolve(1)
	resolve(2)
	reject(errors.New("late"))

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_RejectOnce(t *testing.T) {
	errFirst := errors.New("first")
	f, resolve, reject := New[string]()
	reject(errFirst)
	resolve("ignored")

	v, err := f.Await(context.Background())
	assert.Same(t, errFirst, err)
	assert.Empty(t, v)
}

func TestFuture_NilRejection(t *testing.T) {
	_, err := Rejected[int](nil).Await(context.Background())
	assert.ErrorIs(t, err, ErrNilRejection)
}

func TestFuture_AwaitHonorsContext(t *testing.T) {
	f, _, _ := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuture_ThenBeforeAndAfterSettle(t *testing.T) {
	f, resolve, _ := New[int]()

	var got []int
	f.Then(func(v int, err error) { got = append(got, v) })
	assert.Empty(t, got, "continuation waits for settlement")

	resolve(7)
	f.Then(func(v int, err error) { got = append(got, v*10) })

	assert.Equal(t, []int{7, 70}, got)
}

func TestFuture_ThenRunsOnce(t *testing.T) {
	f, resolve, _ := New[int]()
	calls := 0
	f.Then(func(int, error) { calls++ })

	resolve(1)
	resolve(2)
	assert.Equal(t, 1, calls)
}

func TestFuture_Observe(t *testing.T) {
	f := Resolved("done")

	var value any
	var gotErr error
	f.Observe(func(v any, err error) { value, gotErr = v, err })

	assert.Equal(t, "done", value)
	assert.NoError(t, gotErr)
}

func TestGo(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not settle")
	}
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGo_Error(t *testing.T) {
	errLoad := errors.New("load failed")
	_, err := Go(context.Background(), func(context.Context) (int, error) {
		return 0, errLoad
	}).Await(context.Background())
	assert.Same(t, errLoad, err)
}

func TestGo_Panic(t *testing.T) {
	_, err := Go(context.Background(), func(context.Context) (int, error) {
		panic("bad")
	}).Await(context.Background())
	assert.ErrorIs(t, err, ErrPanicked)
	assert.Contains(t, err.Error(), "bad")
}

func TestFuture_ConcurrentSettle(t *testing.T) {
	f, resolve, _ := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolve(i)
		}()
	}
	wg.Wait()

	first, err := f.Await(context.Background())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		v, _ := f.Await(context.Background())
		assert.Equal(t, first, v)
	}
}

func TestAll(t *testing.T) {
	f1, r1, _ := New[int]()
	f2 := Resolved(2)
	f3 := Go(context.Background(), func(context.Context) (int, error) { return 3, nil })

	go r1(1)

	got, err := All(context.Background(), f1, f2, f3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestAll_FirstRejection(t *testing.T) {
	errBoom := errors.New("boom")
	pending, _, _ := New[int]()

	got, err := All(context.Background(), Resolved(1), Rejected[int](errBoom), pending)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, got)
}

func TestAll_Empty(t *testing.T) {
	got, err := All[int](context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

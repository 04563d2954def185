package vgrid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type job struct {
	n    int
	gate chan struct{} // accessor blocks until closed
}

func jobPipeline(t *testing.T) Pipeline[job] {
	t.Helper()
	cols, err := NewColumnSet[job](
		NewColumn("n", Value(func(j job) any {
			if j.gate != nil {
				<-j.gate
			}
			return j.n
		})),
	)
	require.NoError(t, err)
	return Pipeline[job]{Columns: cols}
}

func TestWorkerDispatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(jobPipeline(t), nil)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := w.Dispatch(ctx, Request[job]{
		Records: []job{{n: 3}, {n: 1}, {n: 2}},
		Sort:    SortState{{ColumnID: "n"}},
	})
	require.NotZero(t, id)
	assert.True(t, w.IsLatest(id))

	res, err := w.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, res.ID)
	require.NoError(t, res.Err)
	require.Equal(t, 3, res.Model.Len())
	assert.Equal(t, 1, res.Model.At(0).Record.n)
}

func TestWorkerLatestWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(jobPipeline(t), nil)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gate := make(chan struct{})
	first := w.Dispatch(ctx, Request[job]{Records: []job{{n: 1, gate: gate}}})
	second := w.Dispatch(ctx, Request[job]{Records: []job{{n: 2}, {n: 3}}})
	assert.False(t, w.IsLatest(first))
	assert.True(t, w.IsLatest(second))

	// the first run is stuck in an accessor; releasing it must not
	// deliver its now stale result
	close(gate)
	res, err := w.Wait(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, second, res.ID)
	assert.Equal(t, 2, res.Model.Len())

	select {
	case extra := <-w.Results():
		require.Failf(t, "stale result delivered", "id %d", extra.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWorkerManyDispatches(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(jobPipeline(t), nil)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last uint64
	for i := 1; i <= 20; i++ {
		records := make([]job, i)
		last = w.Dispatch(ctx, Request[job]{Records: records})
	}
	res, err := w.Wait(ctx, last)
	require.NoError(t, err)
	assert.Equal(t, last, res.ID)
	assert.Equal(t, 20, res.Model.Len())
}

func TestWorkerComputeCancelled(t *testing.T) {
	w := NewWorker(jobPipeline(t), nil)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := w.Compute(ctx, Request[job]{Records: []job{{n: 1}}})
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Nil(t, res.Model)

	res = w.Compute(context.Background(), Request[job]{Records: []job{{n: 1}}})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Model.Len())
}

func TestWorkerClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(jobPipeline(t), nil)
	gate := make(chan struct{})
	id := w.Dispatch(context.Background(), Request[job]{Records: []job{{gate: gate}}})
	require.NotZero(t, id)

	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()
	close(gate)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	w.Close()

	assert.Zero(t, w.Dispatch(context.Background(), Request[job]{}))
	assert.False(t, w.IsLatest(0))

	_, err := w.Wait(context.Background(), id)
	assert.ErrorIs(t, err, ErrWorkerClosed)
}

func TestWorkerWaitTimeout(t *testing.T) {
	w := NewWorker(jobPipeline(t), nil)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := w.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerFeedsGrid(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := newPersonGrid(t, statusRecords(), WithBackgroundRows(true))
	first := g.Model()
	_, pending := g.PendingRequest()
	assert.False(t, pending, "the first model is built inline")

	w := NewWorker(g.Pipeline(), nil)
	defer w.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.True(t, g.ToggleSort("age", false))
	require.True(t, g.ToggleSort("age", false))
	assert.Same(t, first, g.Model(), "sorting waits for the worker")

	req, ok := g.PendingRequest()
	require.True(t, ok)
	res, err := w.Wait(ctx, w.Dispatch(ctx, req))
	require.NoError(t, err)
	require.True(t, g.Install(res.Request, res.Model, res.Took))
	assert.Equal(t, []int{3, 2, 1}, ages(g.Rows()))

	_, pending = g.PendingRequest()
	assert.False(t, pending)
}

func TestGridInstallRejectsStaleModel(t *testing.T) {
	g := newPersonGrid(t, statusRecords(), WithBackgroundRows(true))
	g.Model()
	p := g.Pipeline()

	require.True(t, g.ToggleGrouping("status"))
	req, ok := g.PendingRequest()
	require.True(t, ok)
	m := p.Compute(req.Records, req.Sort, req.Grouping, req.Expansion)

	require.True(t, g.ToggleSort("age", false))
	assert.False(t, g.Install(req, m, 0), "sort changed after the request")
	assert.False(t, g.Model().Grouped())
	assert.False(t, g.Install(Request[person]{}, m, 0), "request not taken from the grid")

	req, ok = g.PendingRequest()
	require.True(t, ok)
	require.True(t, g.Install(req, p.Compute(req.Records, req.Sort, req.Grouping, req.Expansion), 0))
	assert.True(t, g.Model().Grouped())
	assert.Equal(t, []int{1, 3, 2}, ages(g.Rows()))
}

func TestGridInstallKeepsExpansion(t *testing.T) {
	g := newPersonGrid(t, statusRecords(), WithBackgroundRows(true))
	require.True(t, g.ToggleGrouping("status"))
	require.Equal(t, 5, g.Model().Len())
	p := g.Pipeline()

	require.True(t, g.ToggleSort("age", false))
	require.True(t, g.ToggleSort("age", false))
	req, ok := g.PendingRequest()
	require.True(t, ok)

	// collapsed while the next model is being built
	require.True(t, g.ToggleExpanded("status:a"))

	require.True(t, g.Install(req, p.Compute(req.Records, req.Sort, req.Grouping, req.Expansion), 0))
	rows := g.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "status:a", rows[0].ID)
	assert.False(t, rows[0].Expanded)
	assert.Equal(t, []int{2}, ages(rows))
}

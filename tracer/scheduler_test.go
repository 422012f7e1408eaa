package tracer

import (
	"testing"
	"time"
)

func TestEvenScheduler(t *testing.T) {
	type spec struct {
		workers   int
		rayCount  int
		expBlocks []int
	}
	specs := []spec{
		{2, 10, []int{5, 5}},
		{3, 10, []int{4, 3, 3}},
		{1, 7, []int{7}},
	}

	sch := NewEvenScheduler()
	for index, s := range specs {
		blocks := sch.Schedule(s.workers, s.rayCount, nil)
		assertBlocks(t, index, blocks, s.expBlocks)
	}
}

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		workers   int
		rayCount  int
		last      []WorkerStat
		expBlocks []int
	}
	specs := []spec{
		// Without feedback behaves like the even scheduler
		{2, 10, nil, []int{5, 5}},
		// Worker 0 was 5 times faster
		{2, 10, []WorkerStat{{Rays: 5, Time: time.Duration(1)}, {Rays: 5, Time: time.Duration(5)}}, []int{9, 1}},
		// This time worker 1 performed much better
		{2, 10, []WorkerStat{{Rays: 9, Time: time.Duration(5)}, {Rays: 1, Time: time.Duration(1)}}, []int{7, 3}},
		// Every worker gets at least one ray
		{3, 3, []WorkerStat{{Rays: 1000, Time: time.Duration(1)}, {Rays: 1, Time: time.Duration(1000)}, {Rays: 1, Time: time.Duration(1000)}}, []int{1, 1, 1}},
		// Stats from a different worker count are ignored
		{3, 9, []WorkerStat{{Rays: 5, Time: time.Duration(1)}}, []int{3, 3, 3}},
	}

	sch := NewPerfectScheduler()
	for index, s := range specs {
		blocks := sch.Schedule(s.workers, s.rayCount, s.last)
		assertBlocks(t, index, blocks, s.expBlocks)
	}
}

func assertBlocks(t *testing.T, index int, blocks, expBlocks []int) {
	t.Helper()
	if len(blocks) != len(expBlocks) {
		t.Fatalf("[spec %d] expected %d blocks; got %d", index, len(expBlocks), len(blocks))
	}
	for worker := range blocks {
		if blocks[worker] != expBlocks[worker] {
			t.Fatalf("[spec %d] expected worker %d to be assigned %d rays; got %d", index, worker, expBlocks[worker], blocks[worker])
		}
	}
}

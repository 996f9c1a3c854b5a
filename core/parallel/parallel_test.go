package parallel

import (
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

func TestParallelizeWithWorkers_CoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000} {
		for _, workers := range []int{1, 3, 16} {
			hits := make([]int32, items)
			ParallelizeWithWorkers(items, workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				assert.Equal(t, int32(1), h, "items=%d workers=%d index=%d", items, workers, i)
			}
		}
	}
}

func TestParallelizeWithWorkers_Bounds(t *testing.T) {
	var calls int32
	ParallelizeWithWorkers(10, 0, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls)

	calls = 0
	ParallelizeWithWorkers(3, 16, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 1, end-start)
	})
	assert.Equal(t, int32(3), calls)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 4}, {4, 8}, {8, 10}}, chunks(10, 3))
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}}, chunks(4, 2))
	assert.Equal(t, [][2]int{{0, 5}}, chunks(5, -1))
}

func TestParallelizeErr(t *testing.T) {
	out := make([]int, 500)
	err := ParallelizeErr(len(out), func(start, end int) error {
		for i := start; i < end; i++ {
			out[i] = i * i
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 499*499, out[499])

	// 全区間が失敗しても最小の添字の区間のエラーを返す
	err = ParallelizeErr(500, func(start, end int) error {
		return errors.New("range starting at " + strconv.Itoa(start))
	})
	assert.EqualError(t, err, "range starting at 0")

	boom := errors.New("boom")
	assert.NoError(t, ParallelizeErr(0, func(int, int) error { return boom }))
}

func TestParallelizeErr_SmallInputRunsOnce(t *testing.T) {
	var calls int32
	err := ParallelizeErr(SequentialThreshold, func(start, end int) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, SequentialThreshold, end)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeWithWorkers_PanicReachesCaller(t *testing.T) {
	var finished int32
	err := bkerrors.SafeExecute("grow", func() error {
		ParallelizeWithWorkers(100, 4, func(start, end int) {
			if start == 50 {
				panic("bad split")
			}
			atomic.AddInt32(&finished, 1)
		})
		return nil
	})

	var pe *bkerrors.PanicError
	require.True(t, bkerrors.As(err, &pe), "got %v", err)
	assert.Contains(t, err.Error(), "bad split")
	// 他の区間は最後まで実行される
	assert.Equal(t, int32(3), atomic.LoadInt32(&finished))
}

func TestParallelizeErr_PanicBecomesError(t *testing.T) {
	for _, items := range []int{SequentialThreshold, 500} {
		err := ParallelizeErr(items, func(start, end int) error {
			if end == items {
				var m map[string]int
				m["x"] = 1
			}
			return nil
		})
		var pe *bkerrors.PanicError
		require.True(t, bkerrors.As(err, &pe), "items=%d got %v", items, err)
	}

	// 添字の小さい区間のエラーが panic より優先される
	err := ParallelizeErr(500, func(start, end int) error {
		if start == 0 {
			return errors.New("first")
		}
		panic("later")
	})
	assert.EqualError(t, err, "first")
}

// Package parallel は [0, items) を連続した区間に分けてゴルーチンで処理する。
// 区間は呼び出しごとに同じなので、添字で結果を書く呼び出し側の出力は
// スケジューリングに依存しない。
//
// ワーカー内の panic は呼び出し元のゴルーチンに戻るので、
// 呼び出し側の recover（errors.SafeExecute 等）で捕捉できる。
package parallel

import (
	"fmt"
	"runtime"
	"sync"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// SequentialThreshold 以下の件数はゴルーチンを起こさず呼び出し元で処理する
const SequentialThreshold = 32

// chunks returns the contiguous ranges used for items split over workers.
func chunks(items, workers int) [][2]int {
	workers = max(1, min(workers, items))
	size := (items + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < items; start += size {
		out = append(out, [2]int{start, min(start+size, items)})
	}
	return out
}

func rangeOp(start, end int) string {
	return fmt.Sprintf("parallel range [%d, %d)", start, end)
}

// ParallelizeWithWorkers runs fn over at most workers contiguous ranges
// covering [0, items) exactly once and waits for all of them.
// If any range panics, the panic of the lowest range is re-raised on the
// calling goroutine as a *errors.PanicError after every range has finished.
func ParallelizeWithWorkers(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	ranges := chunks(items, workers)
	if len(ranges) == 1 {
		fn(0, items)
		return
	}
	panics := make([]error, len(ranges))
	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for i, r := range ranges {
		go func(i, start, end int) {
			defer wg.Done()
			defer bkerrors.Recover(&panics[i], rangeOp(start, end))
			fn(start, end)
		}(i, r[0], r[1])
	}
	wg.Wait()

	for _, p := range panics {
		if p != nil {
			panic(p)
		}
	}
}

// ParallelizeErr は失敗しうる fn を CPU 数の区間で実行する。
// 全区間を最後まで実行し、最も小さい添字の区間のエラーを返す。
// items が SequentialThreshold 以下なら fn(0, items) を一度だけ呼ぶ。
// fn の panic はその区間のエラー（*errors.PanicError）として扱う。
func ParallelizeErr(items int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= SequentialThreshold {
		return bkerrors.SafeExecute(rangeOp(0, items), func() error { return fn(0, items) })
	}
	ranges := chunks(items, runtime.NumCPU())
	errs := make([]error, len(ranges))
	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for i, r := range ranges {
		go func(i, start, end int) {
			defer wg.Done()
			defer bkerrors.Recover(&errs[i], rangeOp(start, end))
			errs[i] = fn(start, end)
		}(i, r[0], r[1])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

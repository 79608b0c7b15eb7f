// Package operation wraps long-running transfers in deferred,
// cancellable, progress-observable handles.
//
// # Handles
//
// [New] builds a [Handle] without starting any work. Subscribers
// attached before the work starts receive every progress event:
//
//	h := operation.New(ctx, work)
//	h.Subscribe(func(n, total int64) { fmt.Printf("%d/%d\n", n, total) })
//	result, err := h.Run() // starts the work on first access
//
// The work runs at most once; later calls to [Handle.Run] return the
// memoized result.
//
// # Queues
//
// A [Queue] runs many independent handles concurrently with an
// optional concurrency limit:
//
//	q := operation.NewQueue(4)
//	q.Add(ctx, h1)
//	q.Add(ctx, h2)
//	err := q.Wait() // joined errors of every handle
package operation

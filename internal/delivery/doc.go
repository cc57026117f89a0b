// Package delivery provides the single-threaded execution context on which
// scan and click callbacks are delivered.
//
// A Loop owns one goroutine and runs posted functions strictly in post
// order, so callback code never races with other callbacks delivered on the
// same loop. Post is fire-and-forget and never blocks the poster:
//
//	loop := delivery.NewLoop("ui")
//	defer loop.Close()
//
//	loop.Post(func() { view.Refresh() })
//
// Shared returns the process-wide loop used when a component is not given an
// explicit Poster. Any type with a Post(func()) method (for example an
// adapter around a UI toolkit's main-thread dispatcher) satisfies Poster.
package delivery

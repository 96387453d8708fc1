// Package clock provides an injectable time source for the timer registry.
//
// Production code uses Real(), which delegates to the time package. Tests
// use Fake(), whose time only moves when Advance is called. AfterFunc
// callbacks registered on a FakeClock run synchronously inside Advance in
// deadline order, which makes timeout tests deterministic:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	reg := timer.NewRegistry(timer.WithClock(c))
//	reg.Schedule("room-1", 5*time.Second, fire)
//	c.Advance(5 * time.Second) // fire runs here
package clock

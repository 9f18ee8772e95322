/*
Package resilience provides a circuit breaker for calls to remote
dependencies, such as the HTTP settings store.

# States

- Closed: calls pass through; failures are counted
- Open: calls fail fast with ErrCircuitOpen until Timeout elapses
- Half-Open: up to MaxRequests trial calls decide whether to close again

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                             Open

# Usage

	breaker := resilience.New("settings", resilience.Settings{
		Timeout: 30 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, settings.ErrNotFound)
		},
	})

	value, err := resilience.Call(ctx, breaker, func(ctx context.Context) (string, error) {
		return client.Get(ctx, key)
	})
*/
package resilience

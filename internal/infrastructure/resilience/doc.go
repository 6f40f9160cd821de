/*
Package resilience provides a circuit breaker for operations that may fail
repeatedly.

The interpreter guards shell restarts with it: when the configured startup
command cannot be spawned several times in a row, further restarts are
refused for a cooldown instead of spawning in a tight loop.

# Usage

	breaker := resilience.New("restart", resilience.Settings{
		MaxFailures: 3,
		Cooldown:    10 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Info("breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	err := breaker.Do(func() error {
		return spawnShell()
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// refused without trying
	}

# States

	Closed --[MaxFailures]-> Open --[Cooldown]-> Half-Open --[success]-> Closed
	                                                |
	                                            [failure]
	                                                |
	                                                v
	                                              Open
*/
package resilience

package worker

import "go.uber.org/zap"

// Subscriber attaches its event handlers to a dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartEventWorkers registers subscribers in order. Handlers for the same event
// run in registration order on a synchronous dispatcher.
func StartEventWorkers(logger *zap.Logger, subscribers ...Subscriber) {
	registered := 0
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.RegisterHandlers()
		registered++
	}
	if logger != nil {
		logger.Debug("event workers registered", zap.Int("count", registered))
	}
}

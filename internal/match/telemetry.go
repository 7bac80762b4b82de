package match

// Telemetry is the engine's diagnostic sink. The engine never owns global
// counters or ambient debug state; whoever constructs it passes a sink (or
// nothing, and gets the no-op). Implementations must be cheap: these fire
// inside the tick loop.
type Telemetry interface {
	TickDone(tick uint32)
	BallLaunched(kind ActionKind, speedMS float64)
	OwnershipChanged(from, to int8)
	EventRecorded(kind EventKind)
}

// NopTelemetry discards everything.
type NopTelemetry struct{}

func (NopTelemetry) TickDone(uint32)                  {}
func (NopTelemetry) BallLaunched(ActionKind, float64) {}
func (NopTelemetry) OwnershipChanged(int8, int8)      {}
func (NopTelemetry) EventRecorded(EventKind)          {}

// Package observability aggregates delivery counters for periodic
// telemetry. Counters are updated on the fan-out hot path, so
// everything here is atomic and allocation-free.
package observability

import "sync/atomic"

// DeliveryStats counts fan-out outcomes since process start.
type DeliveryStats struct {
	delivered uint64
	dropped   uint64
	connects  uint64
	closes    uint64
}

func NewDeliveryStats() *DeliveryStats {
	return &DeliveryStats{}
}

func (s *DeliveryStats) Delivered()    { atomic.AddUint64(&s.delivered, 1) }
func (s *DeliveryStats) Dropped()      { atomic.AddUint64(&s.dropped, 1) }
func (s *DeliveryStats) Connected()    { atomic.AddUint64(&s.connects, 1) }
func (s *DeliveryStats) Disconnected() { atomic.AddUint64(&s.closes, 1) }

// Snapshot is a point-in-time copy safe to hand to loggers.
type Snapshot struct {
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
	Connects    uint64 `json:"connects"`
	Disconnects uint64 `json:"disconnects"`
}

func (s *DeliveryStats) Snapshot() Snapshot {
	return Snapshot{
		Delivered:   atomic.LoadUint64(&s.delivered),
		Dropped:     atomic.LoadUint64(&s.dropped),
		Connects:    atomic.LoadUint64(&s.connects),
		Disconnects: atomic.LoadUint64(&s.closes),
	}
}

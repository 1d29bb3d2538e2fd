package obs

import (
	"expvar"
	"sync/atomic"
)

// Flow outcome labels.
const (
	OutcomeApplied  = "applied"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

var (
	flows    = expvar.NewMap("catalog_editor_flows")
	sessions atomic.Int64
)

func init() {
	expvar.Publish("catalog_editor_sessions", expvar.Func(func() any { return sessions.Load() }))
}

// CountFlow increments the counter for flow ended with outcome,
// e.g. CountFlow("flush", OutcomeFailed).
func CountFlow(flow, outcome string) {
	flows.Add(flow+"_"+outcome, 1)
}

// FlowCounts returns a copy of every flow counter.
func FlowCounts() map[string]int64 {
	out := map[string]int64{}
	flows.Do(func(kv expvar.KeyValue) {
		if v, ok := kv.Value.(*expvar.Int); ok {
			out[kv.Key] = v.Value()
		}
	})
	return out
}

// SessionOpened and SessionClosed track live sessions.
func SessionOpened() { sessions.Add(1) }

// SessionClosed decrements the live session gauge.
func SessionClosed() { sessions.Add(-1) }

// SessionCount returns the live session gauge.
func SessionCount() int64 { return sessions.Load() }

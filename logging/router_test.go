package logging_test

import (
	"context"
	"testing"
	"time"

	"stellar-salvage/server/logging"
	"stellar-salvage/server/logging/sinks"
)

func newRouter(cfg logging.Config, sink logging.Sink) *logging.Router {
	clock := logging.ClockFunc(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	})
	return logging.NewRouter(clock, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})
}

func closeRouter(t *testing.T, r *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close router: %v", err)
	}
}

func TestRouterDeliversToSink(t *testing.T) {
	sink := sinks.NewMemorySink()
	r := newRouter(logging.Config{BufferSize: 8}, sink)

	r.Publish(context.Background(), logging.Event{
		Type:     "gameplay.collected",
		Tick:     7,
		Actor:    logging.EntityRef{ID: "p1", Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
	})
	closeRouter(t, r)

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != "gameplay.collected" || events[0].Tick != 7 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router did not stamp the clock time")
	}
}

func TestRouterDropsEmptyType(t *testing.T) {
	sink := sinks.NewMemorySink()
	r := newRouter(logging.Config{BufferSize: 8}, sink)

	r.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	closeRouter(t, r)

	if len(sink.Events()) != 0 {
		t.Fatalf("typeless event was delivered")
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	sink := sinks.NewMemorySink()
	r := newRouter(logging.Config{BufferSize: 8, MinimumSeverity: logging.SeverityWarn}, sink)

	r.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})
	r.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityWarn})
	closeRouter(t, r)

	events := sink.Events()
	if len(events) != 1 || events[0].Type != "b" {
		t.Fatalf("severity filter failed: %+v", events)
	}
}

func TestRouterStampsAmbientFields(t *testing.T) {
	sink := sinks.NewMemorySink()
	r := newRouter(logging.Config{
		BufferSize: 8,
		Fields:     map[string]any{"instance": "test-1"},
	}, sink)

	r.Publish(context.Background(), logging.Event{
		Type:     "a",
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"existing": true},
	})
	closeRouter(t, r)

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Extra["instance"] != "test-1" {
		t.Fatalf("ambient field missing: %+v", events[0].Extra)
	}
	if events[0].Extra["existing"] != true {
		t.Fatalf("existing field clobbered: %+v", events[0].Extra)
	}
}

func TestRouterPublishAfterCloseIsNoop(t *testing.T) {
	sink := sinks.NewMemorySink()
	r := newRouter(logging.Config{BufferSize: 8}, sink)
	closeRouter(t, r)

	r.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityInfo})
	if len(sink.Events()) != 0 {
		t.Fatalf("event delivered after close")
	}
}

func TestRouterStatsCountDrops(t *testing.T) {
	sink := sinks.NewMemorySink()
	// Unbuffered is coerced to the default, so use size 1 and saturate it.
	r := newRouter(logging.Config{BufferSize: 1}, sink)

	for i := 0; i < 500; i++ {
		r.Publish(context.Background(), logging.Event{Type: "flood", Severity: logging.SeverityInfo})
	}
	closeRouter(t, r)

	stats := r.Stats()
	if stats.EventsTotal+stats.DroppedTotal != 500 {
		t.Fatalf("stats do not account for every publish: %+v", stats)
	}
}

func TestWithFieldsWrapsPublisher(t *testing.T) {
	sink := sinks.NewMemorySink()
	pub := logging.WithFields(sink, map[string]any{"zone": "alpha"})

	pub.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})

	events := sink.Events()
	if len(events) != 1 || events[0].Extra["zone"] != "alpha" {
		t.Fatalf("WithFields did not stamp the event: %+v", events)
	}
}

func TestNopPublisherDiscards(t *testing.T) {
	pub := logging.NopPublisher()
	pub.Publish(context.Background(), logging.Event{Type: "a"})
}

package health

import (
	"context"
	"testing"
)

func TestRegistry_AggregatesWorstStatus(t *testing.T) {
	registry := NewRegistry("auris-listen", "1.0.0")
	registry.RegisterFunc("engine", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: "bound"}
	})
	registry.RegisterFunc("device", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded, Message: "default device only"}
	})

	report := registry.Check(context.Background())
	if report.Service != "auris-listen" {
		t.Errorf("Service = %v, want auris-listen", report.Service)
	}
	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("Checks = %d, want 2", len(report.Checks))
	}
}

func TestRegistry_UnhealthyWins(t *testing.T) {
	registry := NewRegistry("auris-speak", "1.0.0")
	registry.RegisterFunc("engine", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Message: "no engine available"}
	})
	registry.RegisterFunc("device", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	if got := registry.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got)
	}
}

func TestGRPCStatusMapping(t *testing.T) {
	cases := []struct {
		in   Status
		want string
	}{
		{StatusHealthy, "SERVING"},
		{StatusDegraded, "SERVING"},
		{StatusUnhealthy, "NOT_SERVING"},
	}
	for _, c := range cases {
		if got := grpcStatus(c.in).String(); got != c.want {
			t.Errorf("grpcStatus(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRegistry_EmptyIsHealthy(t *testing.T) {
	registry := NewRegistry("auris-listen", "1.0.0")
	if got := registry.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Status = %v, want healthy with no checks", got)
	}
}

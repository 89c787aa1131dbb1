package observability

import (
	"testing"

	"github.com/sixerhq/chain-contests/internal/config"
	"github.com/sixerhq/chain-contests/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	shutdown, err := InitUptrace(config.Config{UptraceEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected noop shutdown func")
	}
	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("noop shutdown returned error: %v", err)
	}
}

func TestInitUptrace_EmptyDSN(t *testing.T) {
	shutdown, err := InitUptrace(config.Config{UptraceEnabled: true, UptraceDSN: "  "}, logging.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("noop shutdown returned error: %v", err)
	}
}

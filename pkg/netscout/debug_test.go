package netscout

import "testing"

func TestDebugLog_Gating(t *testing.T) {
	oldLogger := debugLogger
	oldLevel := debugLevel
	defer func() {
		SetDebugLogger(oldLogger)
		SetDebugLevel(oldLevel)
	}()

	var calls []struct {
		component Component
		msg       string
	}

	SetDebugLogger(func(component Component, format string, args ...interface{}) {
		calls = append(calls, struct {
			component Component
			msg       string
		}{component: component, msg: format})
	})

	SetDebugLevel(DebugOff)
	debugLog(ComponentScan, "a")
	debugLogVerbose(ComponentScan, "b")
	if len(calls) != 0 {
		t.Fatalf("expected 0 calls with DebugOff, got %d", len(calls))
	}

	SetDebugLevel(DebugBasic)
	debugLog(ComponentScan, "c")
	debugLogVerbose(ComponentScan, "d")
	if len(calls) != 1 {
		t.Fatalf("expected 1 call with DebugBasic, got %d", len(calls))
	}
	if calls[0].component != ComponentScan || calls[0].msg != "c" {
		t.Fatalf("unexpected call: %#v", calls[0])
	}

	SetDebugLevel(DebugVerbose)
	debugLogVerbose(ComponentICMP, "e")
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls with DebugVerbose, got %d", len(calls))
	}
	if calls[1].component != ComponentICMP || calls[1].msg != "e" {
		t.Fatalf("unexpected call: %#v", calls[1])
	}
	if GetDebugLevel() != DebugVerbose {
		t.Fatalf("expected DebugVerbose, got %d", GetDebugLevel())
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(nil, 64); got != "(empty)" {
		t.Fatalf("expected (empty), got %q", got)
	}
	if got := FormatBytes([]byte{0x08, 0x00, 0xf7, 0xff}, 64); got != "0800f7ff" {
		t.Fatalf("expected hex string, got %q", got)
	}
	if got := FormatBytes([]byte{1, 2, 3, 4}, 2); got != "0102... (4 bytes total)" {
		t.Fatalf("expected truncated preview, got %q", got)
	}
}

func TestComponentToPrefix(t *testing.T) {
	tests := []struct {
		component Component
		want      string
	}{
		{ComponentScan, LogPrefixScout},
		{ComponentICMP, LogPrefixICMP},
		{ComponentIfaces, LogPrefixIfaces},
		{ComponentARP, LogPrefixARP},
		{ComponentVendor, LogPrefixOUI},
		{ComponentDNS, LogPrefixDNS},
		{Component("other"), LogPrefixScout},
	}
	for _, tt := range tests {
		t.Run(string(tt.component), func(t *testing.T) {
			if got := ComponentToPrefix(tt.component); got != tt.want {
				t.Errorf("ComponentToPrefix(%q) = %q, want %q", tt.component, got, tt.want)
			}
		})
	}
}

func TestVersionInfo(t *testing.T) {
	if got := VersionInfo(); got != "go-netscout v"+Version {
		t.Errorf("unexpected version info %q", got)
	}
}

package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestResult_RenderSuccess(t *testing.T) {
	out := NewSuccessResult("Signed in", []Detail{
		{Key: "Endpoint", Value: "ws://localhost:8080/messaging/test"},
		{Key: "Token", Value: "LWSSO_COOKIE_KEY=a...z"},
	}).SetWidth(80).Render()

	for _, want := range []string{"SUCCESS", "Signed in", "Endpoint:", "LWSSO_COOKIE_KEY=a...z"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Endpoint:") > strings.Index(out, "Token:") {
		t.Error("details should keep their order")
	}
}

func TestResult_RenderFailure(t *testing.T) {
	out := NewFailureResult("Login failed", errors.New("status 401"), []string{"Verify the client ID and secret"}).
		SetWidth(80).
		Render()

	for _, want := range []string{"FAILED", "Login failed", "status 401", "Troubleshooting:", "Verify the client ID"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}

func TestResult_RenderWarning(t *testing.T) {
	out := NewWarningResult("No endpoints found", nil).AddDetail("Timeout", "5s").SetWidth(20).Render()
	if !strings.Contains(out, "WARNING") || !strings.Contains(out, "Timeout:") {
		t.Errorf("Render() = %s", out)
	}
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("Send", "octanews send", []Detail{{Key: "Endpoint", Value: "ws://x/y"}}, 80)
	if !strings.Contains(out, "SEND") || !strings.Contains(out, "octanews send") || !strings.Contains(out, "ws://x/y") {
		t.Errorf("RenderHeader() = %s", out)
	}

	bare := RenderHeader("Version", "octanews version", nil, 80)
	if !strings.Contains(bare, "VERSION") {
		t.Errorf("RenderHeader() = %s", bare)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintHeader("Login", "octanews login", nil)
	p.PrintSuccess("Signed in", nil)
	p.PrintError("Oops", errors.New("boom"), nil)

	out := buf.String()
	for _, want := range []string{"LOGIN", "Signed in", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestClampWidth(t *testing.T) {
	tests := map[int]int{10: MinTerminalWidth, 80: 80, 500: MaxContentWidth}
	for in, want := range tests {
		if got := clampWidth(in); got != want {
			t.Errorf("clampWidth(%d) = %d, want %d", in, got, want)
		}
	}
}

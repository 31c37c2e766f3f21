package wsclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestClientError_Error(t *testing.T) {
	err := NewAuthenticationError("sign-in failed", errors.New("connection refused"))
	want := "Authentication Error: sign-in failed (caused by: connection refused)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = NewStateError("not connected")
	if err.Error() != "State Error: not connected" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := NewSendError("failed to send", "ws://host/x", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConfigurationError("bad"))
	if !IsConfigurationError(wrapped) {
		t.Error("IsConfigurationError should unwrap")
	}
	if IsStateError(wrapped) || IsSendError(wrapped) || IsConnectionError(wrapped) || IsAuthenticationError(wrapped) {
		t.Error("other predicates should not match")
	}
	if IsStateError(errors.New("plain")) {
		t.Error("plain errors should not match")
	}
}

func TestNewConnectionError_StatusFromUpgrade(t *testing.T) {
	err := NewConnectionError("failed", "ws://host/x", &UpgradeError{StatusCode: http.StatusForbidden, Err: errors.New("bad handshake")})
	if err.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", err.StatusCode)
	}

	err = NewConnectionError("failed", "ws://host/x", errors.New("refused"))
	if err.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", err.StatusCode)
	}
}

func TestNewLoginStatusError(t *testing.T) {
	err := NewLoginStatusError(http.StatusUnauthorized, "http://host/authentication/sign_in")
	if !IsAuthenticationError(err) || err.StatusCode != http.StatusUnauthorized {
		t.Errorf("got %+v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Error() = %q should mention the status", err.Error())
	}
}

func TestErrorType_String(t *testing.T) {
	if ErrTypeSend.String() != "Send Error" {
		t.Errorf("String() = %s", ErrTypeSend.String())
	}
	if ErrorType(99).String() != "ErrorType(99)" {
		t.Errorf("String() = %s", ErrorType(99).String())
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"plain", errors.New("x"), "unexpected"},
		{"configuration", NewConfigurationError("bad"), "ws://"},
		{"unauthorized login", NewLoginStatusError(http.StatusUnauthorized, ""), "client ID and secret"},
		{"other login", NewLoginStatusError(http.StatusBadGateway, ""), "reachable"},
		{"connection", NewConnectionError("x", "", &UpgradeError{StatusCode: 404}), "HTTP 404"},
		{"send", NewSendError("x", "", nil), "retry"},
		{"state", NewStateError("client is not connected"), "Client is not connected"},
		{"empty state", NewStateError(""), "lifecycle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := GetTroubleshootingHint(tt.err)
			if !strings.Contains(strings.Join(hints, "\n"), tt.contains) {
				t.Errorf("hints %v do not mention %q", hints, tt.contains)
			}
		})
	}
}

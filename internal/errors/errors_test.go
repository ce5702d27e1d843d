package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestServerRejected_KeepsMessageVerbatim(t *testing.T) {
	err := ServerRejected(http.StatusInternalServerError, "bad audio")
	if err.Code != ErrCodeServerRejected {
		t.Errorf("code = %s, want %s", err.Code, ErrCodeServerRejected)
	}
	if err.Message != "bad audio" {
		t.Errorf("message = %q, want %q", err.Message, "bad audio")
	}
	if err.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", err.Status)
	}
}

func TestServerRejected_FallsBackToStatusText(t *testing.T) {
	err := ServerRejected(http.StatusBadGateway, "")
	if err.Message != "Bad Gateway" {
		t.Errorf("message = %q, want %q", err.Message, "Bad Gateway")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := NoRecording()
	if got := err.Error(); got != "NO_RECORDING: No audio recorded" {
		t.Errorf("Error() = %q", got)
	}

	cause := fmt.Errorf("dial tcp: refused")
	err = Network(cause)
	if !strings.Contains(err.Error(), "dial tcp: refused") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("Network error should unwrap to its cause")
	}
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", NoRecording())

	if !IsNoRecording(wrapped) {
		t.Error("IsNoRecording should see through fmt.Errorf wrapping")
	}
	if IsNetwork(wrapped) {
		t.Error("IsNetwork should be false for NO_RECORDING")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeNoRecording) {
		t.Error("plain errors carry no code")
	}
}

func TestUserFacing(t *testing.T) {
	tests := []struct {
		err  *AppError
		want bool
	}{
		{PermissionDenied(nil), true},
		{NoRecording(), true},
		{ServerRejected(500, "x"), true},
		{Network(nil), true},
		{LoadHistory(nil), false},
		{InvalidState("stop", "idle"), false},
	}
	for _, tt := range tests {
		if got := tt.err.UserFacing(); got != tt.want {
			t.Errorf("%s UserFacing() = %v, want %v", tt.err.Code, got, tt.want)
		}
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(stderrors.New("x")); ok {
		t.Error("plain error should not convert")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", PermissionDenied(nil)))
	if !ok {
		t.Fatal("wrapped AppError should convert")
	}
	if appErr.Code != ErrCodePermissionDenied {
		t.Errorf("code = %s", appErr.Code)
	}
}

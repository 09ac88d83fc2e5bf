package anna

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"not found", NewNotFoundError("no %s", "thing"), ErrNotFound},
		{"rule", NewRuleNotFoundError("no rule"), ErrRuleNotFound},
		{"preset", NewPresetNotFoundError("away"), ErrPresetNotFound},
		{"command", NewCommandError(400, "rejected", nil), ErrCommandFailed},
		{"parse", NewParseError("bad", nil), ErrParse},
		{"status", NewStatusError(401, "denied"), ErrConnection},
		{"wrapped", fmt.Errorf("outer: %w", NewPresetNotFoundError("x")), ErrPresetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
			if !errors.Is(tt.target, ErrParse) {
				assert.NotErrorIs(t, tt.err, ErrParse)
			}
		})
	}
}

func TestGatewayError_Error(t *testing.T) {
	err := NewParseError("failed to parse gateway XML", errors.New("EOF"))
	assert.Equal(t, "Parse Error: failed to parse gateway XML (caused by: EOF)", err.Error())

	err = NewPresetNotFoundError("vacation")
	assert.Equal(t, `Preset Not Found: could not find preset "vacation"`, err.Error())
}

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want NetworkErrorSubtype
	}{
		{
			name: "refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			want: NetworkErrorConnectionRefused,
		},
		{
			name: "dns",
			err:  &net.DNSError{Name: "smile123456.local", Err: "no such host"},
			want: NetworkErrorDNS,
		},
		{
			name: "unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			want: NetworkErrorHostUnreachable,
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: NetworkErrorGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			assert.Equal(t, ErrTypeConnection, got.Type)
			assert.Equal(t, tt.want, got.NetworkSubtype)
		})
	}

	assert.Nil(t, ClassifyNetworkError(nil))
}

func TestTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", NewStatusError(401, "denied"), "Smile ID"},
		{"preset", NewPresetNotFoundError("x"), "anna presets"},
		{"command with body", NewCommandError(400, "rejected", []byte("<error/>")), "<error/>"},
		{"plain error", errors.New("x"), "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := TroubleshootingHint(tt.err)
			if !strings.Contains(hint, tt.want) {
				t.Errorf("TroubleshootingHint() = %q, want it to contain %q", hint, tt.want)
			}
		})
	}
}

func TestShortMessage(t *testing.T) {
	assert.Equal(t, "Authentication failed - check credentials", ShortMessage(NewStatusError(401, "denied")))
	assert.Equal(t, "Command rejected (HTTP 500)", ShortMessage(NewCommandError(500, "x", nil)))
	assert.Equal(t, "no rule", ShortMessage(NewRuleNotFoundError("no rule")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStatusError(503, "busy")))
	assert.False(t, IsRetryable(NewStatusError(401, "denied")))
	assert.False(t, IsRetryable(NewPresetNotFoundError("x")))
	assert.False(t, IsRetryable(errors.New("x")))
}

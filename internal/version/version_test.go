package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromSettings(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		commit      string
		settings    []debug.BuildSetting
		wantVersion string
		wantCommit  string
	}{
		{
			name: "clean checkout",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2026-03-14T09:26:53Z"},
				{Key: "vcs.modified", Value: "false"},
			},
			wantVersion: "dev-20260314",
			wantCommit:  "0123456",
		},
		{
			name: "dirty checkout",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
		{
			name:        "ldflags win",
			version:     "v1.0.0",
			commit:      "feedbee",
			settings:    []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789"}},
			wantVersion: "v1.0.0",
			wantCommit:  "feedbee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c := fromSettings(tt.version, tt.commit, tt.settings)
			if v != tt.wantVersion || c != tt.wantCommit {
				t.Errorf("fromSettings() = %q, %q; want %q, %q", v, c, tt.wantVersion, tt.wantCommit)
			}
		})
	}
}

func TestFull(t *testing.T) {
	if !strings.Contains(Full(), "(commit: ") {
		t.Errorf("Full() = %q", Full())
	}
	if !strings.Contains(Platform(), "/") {
		t.Errorf("Platform() = %q", Platform())
	}
}

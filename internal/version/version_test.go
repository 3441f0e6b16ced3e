package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestApplyBuildSettings(t *testing.T) {
	tests := []struct {
		name        string
		settings    []debug.BuildSetting
		wantVersion string
		wantCommit  string
	}{
		{
			name: "clean checkout",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2026-03-04T10:00:00Z"},
				{Key: "vcs.modified", Value: "false"},
			},
			wantVersion: "dev-20260304",
			wantCommit:  "0123456",
		},
		{
			name: "dirty tree",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
		{
			name:        "no vcs info",
			wantVersion: "",
			wantCommit:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldCommit, oldTime := Version, Commit, BuildTime
			defer func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldTime }()
			Version, Commit, BuildTime = "", "", ""

			applyBuildSettings(tt.settings)

			if Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", Version, tt.wantVersion)
			}
			if Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", Commit, tt.wantCommit)
			}
		})
	}
}

func TestApplyBuildSettings_KeepsLdflags(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()
	Version, Commit = "v1.0.0", "feedbee"

	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789"},
		{Key: "vcs.time", Value: "2026-03-04T10:00:00Z"},
	})

	if Version != "v1.0.0" || Commit != "feedbee" {
		t.Errorf("ldflags values were overwritten: %s %s", Version, Commit)
	}
}

func TestFullAndUserAgent(t *testing.T) {
	if !strings.Contains(Full(), Version) || !strings.Contains(Full(), Commit) {
		t.Errorf("Full() = %q", Full())
	}
	if UserAgent() != "checkout/"+Version {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
	if !strings.HasPrefix(Details("checkout"), "checkout "+Version) {
		t.Errorf("Details() = %q", Details("checkout"))
	}
}

package container

import (
	"errors"
	"testing"
)

func TestParseMount(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    Mount
		wantErr bool
	}{
		{
			name: "read-write mount",
			spec: "/tmp/stage:/opt/data",
			want: Mount{Source: "/tmp/stage", Target: "/opt/data"},
		},
		{
			name: "read-only mount",
			spec: "/home/me/basis:/opt/basis:ro",
			want: Mount{Source: "/home/me/basis", Target: "/opt/basis", ReadOnly: true},
		},
		{
			name: "explicit rw suffix",
			spec: "/tmp/stage:/opt/data:rw",
			want: Mount{Source: "/tmp/stage", Target: "/opt/data"},
		},
		{
			name: "windows drive letter on host side",
			spec: "C:/Users/me/AppData/Local/Temp/x:/opt/data",
			want: Mount{Source: "C:/Users/me/AppData/Local/Temp/x", Target: "/opt/data"},
		},
		{
			name:    "missing container path",
			spec:    "/tmp/stage",
			wantErr: true,
		},
		{
			name:    "relative container path",
			spec:    "/tmp/stage:data",
			wantErr: true,
		},
		{
			name:    "empty host path",
			spec:    ":/opt/data",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMount(tt.spec)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMount) {
					t.Errorf("ParseMount(%q) error = %v, want ErrInvalidMount", tt.spec, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMount(%q) unexpected error: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("ParseMount(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestMountString(t *testing.T) {
	m := Mount{Source: "/tmp/stage", Target: "/opt/data"}
	if got := m.String(); got != "/tmp/stage:/opt/data" {
		t.Errorf("Mount.String() = %q", got)
	}

	m.ReadOnly = true
	if got := m.String(); got != "/tmp/stage:/opt/data:ro" {
		t.Errorf("Mount.String() = %q", got)
	}
}

func TestResultSucceeded(t *testing.T) {
	if !(&Result{}).Succeeded() {
		t.Error("exit code 0 should succeed")
	}
	if (&Result{ExitCode: 139}).Succeeded() {
		t.Error("exit code 139 should not succeed")
	}
}

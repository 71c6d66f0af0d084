package faults_test

import (
	"errors"
	"strings"
	"testing"

	"planetshelf/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrTransfer, "transfer", "link", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrTransfer) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transfer", "link", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := faults.Wrap(faults.ErrNoScenes, "", "", "", nil)
	if !errors.Is(err, faults.ErrNoScenes) {
		t.Fatalf("expected no scenes marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "shelving failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := faults.Wrap(nil, "cleanup", "remove", "", errors.New("denied"))
	if !errors.Is(err, faults.ErrTransfer) {
		t.Fatalf("expected default transfer marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{faults.Wrap(faults.ErrConfiguration, "preflight", "check", "missing", nil), true},
		{faults.Wrap(faults.ErrNoScenes, "load", "", "", nil), true},
		{faults.Wrap(faults.ErrTransfer, "transfer", "copy", "", nil), false},
		{faults.Wrap(faults.ErrChecksumIO, "verify", "", "", nil), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := faults.IsFatal(tc.err); got != tc.want {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestKind(t *testing.T) {
	if got := faults.Kind(faults.Wrap(faults.ErrManifestParse, "load", "", "", nil)); got != "manifest_parse" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := faults.Kind(errors.New("other")); got != "unknown" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := faults.Kind(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
}

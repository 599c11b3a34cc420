package services_test

import (
	"errors"
	"strings"
	"testing"

	"framerip/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	base := errors.New("exit status 2")
	err := services.Wrap(services.ErrExternalTool, "capture", "launch player", "bad argv", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	for _, want := range []string{"capture", "launch player", "bad argv"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error text, got %q", want, err.Error())
		}
	}
}

func TestWrapWithoutCauseOrMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestStartupErrorCarriesStderr(t *testing.T) {
	err := &services.StartupError{Binary: "vlc", ExitCode: 1, Stderr: "cannot open input"}
	if !errors.Is(err, services.ErrStartup) {
		t.Fatal("expected StartupError to unwrap to ErrStartup")
	}
	if !strings.Contains(err.Error(), "cannot open input") {
		t.Fatalf("expected stderr text in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "code 1") {
		t.Fatalf("expected exit code in message, got %q", err.Error())
	}
}

func TestFatalClassification(t *testing.T) {
	fatal := []error{
		services.Wrap(services.ErrConfiguration, "launch", "validate", "", nil),
		services.Wrap(services.ErrDependencyMissing, "cropper", "preflight", "", nil),
		services.Wrap(services.ErrInstallFailure, "cropper", "pip install", "", nil),
		services.Wrap(services.ErrIO, "resume", "append", "", nil),
	}
	for _, err := range fatal {
		if !services.Fatal(err) {
			t.Fatalf("expected %v to be fatal", err)
		}
	}
	perVideo := []error{
		&services.StartupError{Binary: "vlc", ExitCode: 1},
		services.Wrap(services.ErrExternalTool, "capture", "player", "", nil),
	}
	for _, err := range perVideo {
		if services.Fatal(err) {
			t.Fatalf("expected %v to fail only the current video", err)
		}
	}
}

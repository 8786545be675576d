//go:build unix

package testrunner

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRunPropagatesExitCodes(t *testing.T) {
	plainColors(t)

	tests := []struct {
		name       string
		script     string
		wantCode   int
		wantBanner string
	}{
		{
			name:       "success",
			script:     "exit 0",
			wantCode:   0,
			wantBanner: SuccessBanner,
		},
		{
			name:       "plain failure",
			script:     "exit 1",
			wantCode:   1,
			wantBanner: FailureBanner,
		},
		{
			name:       "arbitrary code is not collapsed",
			script:     "exit 42",
			wantCode:   42,
			wantBanner: FailureBanner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			runner := New(&buf)
			result := runner.Run(context.Background(), "sh", "-c", tt.script)

			if result.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, tt.wantCode)
			}

			assertBannerOrder(t, buf.String(), tt.wantBanner)
		})
	}
}

func TestRunChildOutputBetweenSeparators(t *testing.T) {
	plainColors(t)

	var buf bytes.Buffer

	runner := New(&buf)
	result := runner.Run(context.Background(), "sh", "-c", "echo child-stdout; echo child-stderr >&2")

	if result.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", result.ExitCode)
	}

	out := buf.String()

	for _, want := range []string{"child-stdout", "child-stderr"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\noutput:\n%s", want, out)
		}
	}

	separator := strings.Repeat("-", 42)

	first := strings.Index(out, separator)
	last := strings.LastIndex(out, separator)
	childAt := strings.Index(out, "child-stdout")

	if !(first < childAt && childAt < last) {
		t.Errorf("child output not between separators\noutput:\n%s", out)
	}
}

func TestRunSeparateChildStreams(t *testing.T) {
	plainColors(t)

	var banners, childOut, childErr bytes.Buffer

	runner := New(&banners)
	runner.ChildOut = &childOut
	runner.ChildErr = &childErr

	result := runner.Run(context.Background(), "sh", "-c", "echo to-stdout; echo to-stderr >&2; exit 3")

	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}

	if got := childOut.String(); !strings.Contains(got, "to-stdout") {
		t.Errorf("ChildOut = %q, want to contain %q", got, "to-stdout")
	}

	if got := childErr.String(); !strings.Contains(got, "to-stderr") {
		t.Errorf("ChildErr = %q, want to contain %q", got, "to-stderr")
	}

	if strings.Contains(banners.String(), "to-stdout") {
		t.Error("child stdout leaked into the banner stream")
	}
}

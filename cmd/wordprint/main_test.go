package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

func runWith(args []string, input string) (int, string, string, *sleepRecorder) {
	var stdout, stderr bytes.Buffer
	rec := &sleepRecorder{}
	code := run(args, strings.NewReader(input), &stdout, &stderr, rec.sleep)
	return code, stdout.String(), stderr.String(), rec
}

func TestPrintsWordsWithDefaultDelay(t *testing.T) {
	code, out, _, rec := runWith(nil, "never  gonna\n\tgive you up\n")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if out != "never gonna give you up\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(rec.calls) != 5 {
		t.Fatalf("expected one sleep per word, got %d", len(rec.calls))
	}
	for _, d := range rec.calls {
		if d != 200*time.Millisecond {
			t.Fatalf("expected default 200ms delay, got %s", d)
		}
	}
}

func TestDelayFlag(t *testing.T) {
	code, out, _, rec := runWith([]string{"--delay-ms", "0"}, "a b")
	if code != 0 || out != "a b\n" {
		t.Fatalf("unexpected result %d %q", code, out)
	}
	if len(rec.calls) != 2 || rec.calls[0] != 0 {
		t.Fatalf("expected zero delays, got %v", rec.calls)
	}
}

func TestBlankInputPrintsHint(t *testing.T) {
	code, out, errOut, _ := runWith(nil, "  \n\t ")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if out != "" {
		t.Fatalf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, "Provide text via stdin") {
		t.Fatalf("expected hint on stderr, got %q", errOut)
	}
}

func TestUsageErrorsExitTwo(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":  {"--fast"},
		"missing value": {"--delay-ms"},
		"not a number":  {"--delay-ms", "soon"},
		"negative":      {"--delay-ms", "-5"},
		"extra arg":     {"lyrics.txt"},
		"long help":     {"--help"},
		"short help":    {"-h"},
		"inline value":  {"--delay-ms=5"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, out, errOut, _ := runWith(args, "a b")
			if code != 2 {
				t.Fatalf("expected exit 2, got %d (stderr=%q)", code, errOut)
			}
			if out != "" {
				t.Fatalf("expected no stdout, got %q", out)
			}
			if !strings.Contains(errOut, usageLine) {
				t.Fatalf("expected usage on stderr, got %q", errOut)
			}
		})
	}
}

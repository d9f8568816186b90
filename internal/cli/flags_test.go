package cli

import (
	"bytes"
	"flag"
	"strings"
	"testing"
	"time"
)

func TestOptionalDuration(t *testing.T) {
	d := NewOptionalDuration()
	if d.String() != "" {
		t.Fatalf("expected empty string for unset duration")
	}
	if d.Ptr() != nil {
		t.Fatalf("expected nil pointer for unset duration")
	}
	if err := d.Set("250ms"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "250ms" {
		t.Fatalf("expected duration string to be 250ms, got %q", d.String())
	}
	if v, ok := d.Value(); !ok || v != 250*time.Millisecond {
		t.Fatalf("expected duration value 250ms, got %v (ok=%v)", v, ok)
	}
	if p := d.Ptr(); p == nil || *p != 250*time.Millisecond {
		t.Fatalf("expected pointer to 250ms, got %v", p)
	}
}

func TestOptionalInvalidValuesStayUnset(t *testing.T) {
	d := NewOptionalDuration()
	if err := d.Set("bad"); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
	i := NewOptionalInt()
	if err := i.Set("bad"); err == nil {
		t.Fatalf("expected error for invalid int")
	}
	b := NewOptionalBool()
	if err := b.Set("maybe"); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
	if _, ok := d.Value(); ok {
		t.Fatalf("expected invalid duration to remain unset")
	}
	if _, ok := i.Value(); ok {
		t.Fatalf("expected invalid int to remain unset")
	}
	if _, ok := b.Value(); ok {
		t.Fatalf("expected invalid bool to remain unset")
	}
}

func TestOptionalIntAndString(t *testing.T) {
	i := NewOptionalInt()
	if err := i.Set("0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := i.Value(); !ok || v != 0 {
		t.Fatalf("expected explicit zero to be recorded, got %v (ok=%v)", v, ok)
	}

	s := NewOptionalString()
	if err := s.Set(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Value(); !ok {
		t.Fatalf("expected empty string to count as set")
	}
}

func TestOptionalBoolFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	ui := NewOptionalBool()
	Var(fs, ui, "enable ui", "ui")

	if err := fs.Parse([]string{"-ui"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, ok := ui.Value(); !ok || !v {
		t.Fatalf("expected -ui to set true, got %v (ok=%v)", v, ok)
	}
	if ui.String() != "true" {
		t.Fatalf("expected string true, got %q", ui.String())
	}
}

func TestVarRegistersAliases(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	interval := NewOptionalDuration()
	Var(fs, interval, "probe interval", "interval", "i")

	if err := fs.Parse([]string{"-i", "3s"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, _ := interval.Value(); v != 3*time.Second {
		t.Fatalf("expected 3s via alias, got %v", v)
	}
	if fs.Lookup("interval") == nil || fs.Lookup("i") == nil {
		t.Fatalf("expected both names registered")
	}
}

func TestUsage(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var out bytes.Buffer
	fs.SetOutput(&out)
	Var(fs, NewOptionalString(), "outage log path", "log-file")

	Usage(fs, "inetwatch")()
	if !strings.Contains(out.String(), "usage: inetwatch [options]") || !strings.Contains(out.String(), "-log-file") {
		t.Fatalf("unexpected usage output %q", out.String())
	}
}

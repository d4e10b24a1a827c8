package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestPrinter() (*printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return newPrinter(cmd), &out, &errOut
}

func TestPrinter_JSON(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"map", map[string]string{"key": "value"}},
		{"empty map", map[string]string{}},
		{"array", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out, _ := newTestPrinter()
			if err := p.json(tt.input); err != nil {
				t.Fatalf("json() error = %v", err)
			}
			var v any
			if err := json.Unmarshal(out.Bytes(), &v); err != nil {
				t.Errorf("json() produced invalid JSON %q: %v", out.String(), err)
			}
			if !strings.HasSuffix(out.String(), "\n") {
				t.Error("json() output should end with a newline")
			}
		})
	}
}

func TestPrinter_Streams(t *testing.T) {
	p, out, errOut := newTestPrinter()

	p.success("built %d layers", 2)
	p.warning("layer %s skipped", "x")
	p.line("plain")
	p.errorf("failed: %v", errors.New("boom"))

	for _, want := range []string{"built 2 layers", "layer x skipped", "plain"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "boom") {
		t.Error("errors should not go to stdout")
	}
	if !strings.Contains(errOut.String(), "failed: boom") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestPrinter_Table(t *testing.T) {
	p, out, _ := newTestPrinter()
	p.table([]string{"#", "Package"}, [][]string{
		{"0", "@atrilabs/base-layer"},
		{"1", "@atrilabs/app-design-layer", "extra"},
		{"2"},
	})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, rule and 3 rows, got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], strings.Repeat("-", len("@atrilabs/app-design-layer"))) {
		t.Errorf("rule should span the widest cell: %q", lines[1])
	}
	if strings.Contains(out.String(), "extra") {
		t.Error("cells beyond the headers should be dropped")
	}

	p2, out2, _ := newTestPrinter()
	p2.table([]string{"#"}, nil)
	if out2.Len() != 0 {
		t.Errorf("empty table should print nothing, got %q", out2.String())
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 layers"},
		{1, "1 layer"},
		{2, "2 layers"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, "layer", "layers"); got != tt.want {
			t.Errorf("plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	got := formatError(errors.New("tool config not found"))
	if !strings.Contains(got, "Error:") || !strings.Contains(got, "tool config not found") {
		t.Errorf("formatError() = %q", got)
	}
}

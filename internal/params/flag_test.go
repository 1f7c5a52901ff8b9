package params

import (
	"flag"
	"io"
	"testing"
)

func TestParseAssignment(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Assignment
		ok   bool
	}{
		{"noise=40", Assignment{"noise", 40}, true},
		{" oscTune = -7 ", Assignment{"oscTune", -7}, true},
		{"polyMode=mono", Assignment{"polyMode", 0}, true},
		{"glideMode=ALWAYS", Assignment{"glideMode", 2}, true},
		{"glideMode=1", Assignment{"glideMode", 1}, true},
		{"noise", Assignment{}, false},
		{"=3", Assignment{}, false},
		{"volume=3", Assignment{}, false},
		{"noise=loud", Assignment{}, false},
	} {
		got, err := ParseAssignment(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseAssignment(%q) error = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAssignment(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestAssignmentsFlag(t *testing.T) {
	var a Assignments
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&a, "p", "parameter")
	if err := fs.Parse([]string{"-p", "noise=25", "-p", "outputLevel=-6", "-p", "noise=50"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(a) != 3 {
		t.Fatalf("len = %d", len(a))
	}
	if got := a.String(); got != "noise=25,outputLevel=-6,noise=50" {
		t.Fatalf("String = %q", got)
	}
	v := Default()
	if err := a.Apply(&v); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v.Noise != 50 || v.OutputLevel != -6 {
		t.Fatalf("Noise = %v, OutputLevel = %v", v.Noise, v.OutputLevel)
	}
	if err := fs.Parse([]string{"-p", "bogus=1"}); err == nil {
		t.Fatal("expected error for unknown parameter")
	}
}

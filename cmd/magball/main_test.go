package main

import (
	"testing"

	"github.com/san-kum/magball/internal/config"
)

func TestCommandDefaultsAreIndependent(t *testing.T) {
	root := newRootCmd()
	find := func(name string) {
		t.Helper()
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %s not found: %v", name, err)
		}
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"sweep", "response", "bode", "run"} {
		find(name)
	}

	if respTime != 0.5 || respPoints != 500 {
		t.Errorf("response defaults: %gs with %d points, want 0.5s with 500", respTime, respPoints)
	}
	if bodePoints != 200 || sweepPoints != 200 {
		t.Errorf("bode and sweep default to 200 points, got %d and %d", bodePoints, sweepPoints)
	}
}

func TestResponseFlagsStayLocal(t *testing.T) {
	root := newRootCmd()
	resp, _, err := root.Find([]string{"response"})
	if err != nil {
		t.Fatal(err)
	}
	if err := resp.ParseFlags([]string{"--points", "42", "--time", "2"}); err != nil {
		t.Fatal(err)
	}
	if respPoints != 42 || respTime != 2 {
		t.Errorf("parsed %d points over %gs, want 42 over 2s", respPoints, respTime)
	}
	if bodePoints != 200 || sweepPoints != 200 {
		t.Errorf("response flags leaked: bode %d, sweep %d", bodePoints, sweepPoints)
	}
	if duration != config.DefaultDuration {
		t.Errorf("response --time leaked into the run duration: %g", duration)
	}
}

func TestControllerDefaultPerCommand(t *testing.T) {
	root := newRootCmd()
	want := map[string]string{
		"run":        "none",
		"compare":    "none",
		"tune":       "pid",
		"montecarlo": "pid",
		"response":   "pid",
		"routh":      "pid",
	}
	for name, ctrl := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatal(err)
		}
		if got := cmd.Flags().Lookup("controller").DefValue; got != ctrl {
			t.Errorf("%s: default controller %q, want %q", name, got, ctrl)
		}
	}

	mc, _, _ := root.Find([]string{"montecarlo"})
	cfg, err := closedLoopConfig(mc, "linear")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Controller != "pid" {
		t.Errorf("montecarlo without --controller should close the loop with pid, got %q", cfg.Controller)
	}

	tfCmd, _, _ := root.Find([]string{"tf"})
	loop, err := loopConfig(tfCmd)
	if err != nil {
		t.Fatal(err)
	}
	if loop.Controller != "pid" {
		t.Errorf("tf without --controller should use pid, got %q", loop.Controller)
	}
}

package autoplay

import (
	"fmt"
	"strings"
	"testing"

	"github.com/MJE43/freefall-wager/internal/outcome"
)

func newVars() *Variables {
	return NewVariables(NewStatistics(100), 1, outcome.ModeBase)
}

func TestCompileReadsOpeningBet(t *testing.T) {
	vars := newVars()
	s, err := Compile(`nextbet = 7; mode = MODE_NOZERO; dobet = function() {}`, vars)
	if err != nil {
		t.Fatal(err)
	}
	if vars.NextBet != 7 || vars.Mode != outcome.ModeNoZero {
		t.Errorf("vars %+v", vars)
	}
	if s.Stopped() {
		t.Error("stopped before any dobet()")
	}
}

func TestSandboxHidesEscapes(t *testing.T) {
	for _, name := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		t.Run(name, func(t *testing.T) {
			src := fmt.Sprintf(`if (typeof %s !== "undefined") throw new Error("visible"); dobet = function() {}`, name)
			if _, err := Compile(src, newVars()); err != nil {
				t.Errorf("%s still reachable: %v", name, err)
			}
		})
	}
}

func TestNextValidatesChoice(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"keeps stake", ``, ""},
		{"negative stake", `nextbet = -1`, "nextbet must be > 0"},
		{"unknown mode", `mode = "turbo"`, "turbo"},
		{"throws", `throw new Error("boom")`, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := newVars()
			s, err := Compile(`dobet = function() { `+tt.body+` }`, vars)
			if err != nil {
				t.Fatal(err)
			}
			err = s.Next(vars)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("error %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestStopAndLogs(t *testing.T) {
	vars := newVars()
	s, err := Compile(`dobet = function() { for (var i = 0; i < 250; i++) console.log("line", i); stop() }`, vars)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Next(vars); err != nil {
		t.Fatal(err)
	}
	if !s.Stopped() {
		t.Error("stop() not seen")
	}
	logs := s.Logs()
	if len(logs) != maxLogLines || logs[0].Message != "line 50" || logs[len(logs)-1].Message != "line 249" {
		t.Errorf("kept %d lines, first %q", len(logs), logs[0].Message)
	}
}

func TestRunawayScriptBodyTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the compile budget")
	}
	_, err := Compile(`while (true) {}`, newVars())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error %v", err)
	}
}

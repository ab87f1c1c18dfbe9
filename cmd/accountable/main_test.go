package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nugget/accountable/internal/store"
)

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"--help"}} {
		var out bytes.Buffer
		if err := run(context.Background(), &out, &out, args); err != nil {
			t.Fatalf("run(%q): %v", args, err)
		}
		if !strings.Contains(out.String(), "Usage: accountable") {
			t.Errorf("run(%q) output missing usage:\n%s", args, out.String())
		}
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command: frobnicate"},
		{"unknown flag", []string{"-x"}, "unknown flag: -x"},
		{"bad output", []string{"-o", "yaml", "version"}, "unknown output format"},
		{"ask without utterance", []string{"ask"}, "usage: accountable ask"},
		{"missing config", []string{"-config", "/nonexistent/config.yaml", "ask", "hi"}, "config file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), &out, &out, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, []string{"version"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "Accountable ") {
		t.Errorf("text version = %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), &out, &out, []string{"-o", "json", "version"}); err != nil {
		t.Fatal(err)
	}
	var info map[string]string
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("json version: %v\n%s", err, out.String())
	}
	for _, k := range []string{"version", "go_version", "os", "arch"} {
		if info[k] == "" {
			t.Errorf("json version missing %q", k)
		}
	}
}

// writeConfig writes a minimal config using the pure-Go driver and no
// providers, returning its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "data_dir: " + filepath.Join(dir, "data") + "\n" +
		"database:\n  driver: sqlite\n" +
		"default_user_id: cli-user\n" +
		"log_level: error\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Ask(t *testing.T) {
	cfgPath := writeConfig(t)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	if err := run(ctx, &stdout, &stderr, []string{"-config", cfgPath, "ask", "add", "task", "buy", "milk"}); err != nil {
		t.Fatalf("ask: %v\n%s", err, stderr.String())
	}
	if got, want := strings.TrimSpace(stdout.String()), "Great! I've added 'buy milk' to your tasks. You've got this!"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	// Without a completion provider, unclaimed utterances get the
	// degraded reply but are still answered.
	stdout.Reset()
	if err := run(ctx, &stdout, &stderr, []string{"-config=" + cfgPath, "ask", "how", "is", "my", "day?"}); err != nil {
		t.Fatalf("ask: %v\n%s", err, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) == "" {
		t.Error("empty reply")
	}

	st, err := store.Open("sqlite", filepath.Join(filepath.Dir(cfgPath), "data", "accountable.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	tasks, err := st.PendingTasks(ctx, "cli-user")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Errorf("pending tasks = %+v", tasks)
	}
	turns, err := st.RecentTurns(ctx, "cli-user", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Errorf("recorded %d turns, want 2", len(turns))
	}
}

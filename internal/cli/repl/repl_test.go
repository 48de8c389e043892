package repl_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gradedesk/internal/cli/command"
	"gradedesk/internal/cli/repl"
	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/gateway"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
)

func newSession(t *testing.T) (*repl.Session, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/problems":
			_, _ = io.WriteString(w, `{"problems":[{"name":"p1","display_name":"Sum","total_points":10,"total_tests":1}]}`)
		case strings.HasPrefix(r.URL.Path, "/api/problem/"):
			_, _ = io.WriteString(w, `{"name":"p1","points":10,"description_html":"<p>add</p>"}`)
		case strings.HasPrefix(r.URL.Path, "/api/code/"):
			_, _ = io.WriteString(w, `{"content":"int main() {}"}`)
		case r.URL.Path == "/api/git_push":
			_, _ = io.WriteString(w, `{"success":false,"error":"nothing to commit","details":"clean tree"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	board := view.NewBoard()
	adapter := editor.NewAdapter(editor.BufferLoader(0))
	store := prefs.NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	ctrl := controller.New(gateway.New(srv.URL, 5*time.Second), board, adapter, store, controller.Config{LayoutDelay: time.Millisecond})
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	out := &bytes.Buffer{}
	env := &command.Env{Ctrl: ctrl, Board: board, Out: out, SettleTimeout: 2 * time.Second}
	t.Cleanup(func() { _ = env.Settle(context.Background()) })
	return repl.New(command.Registry(), env), out
}

func TestExecuteSystemCommands(t *testing.T) {
	s, out := newSession(t)
	tests := []struct {
		line     string
		wantExit bool
		wantOut  string
	}{
		{line: "", wantOut: ""},
		{line: "help", wantOut: "open <name> [lang]"},
		{line: "help push", wantOut: "usage: push [message...]"},
		{line: "quit", wantExit: true, wantOut: "bye"},
		{line: "EXIT", wantExit: true, wantOut: "bye"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			exit, err := s.Execute(context.Background(), tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exit != tt.wantExit {
				t.Fatalf("exit = %v, want %v", exit, tt.wantExit)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Fatalf("output %q missing %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	s, _ := newSession(t)
	tests := []struct {
		line string
		want string
	}{
		{line: "frobnicate", want: "unknown command"},
		{line: `open "p1`, want: "parse command failed"},
		{line: "open", want: "missing argument: name"},
		{line: "close now", want: "too many arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := s.Execute(context.Background(), tt.line)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestExecutePromptsForMissingArgs(t *testing.T) {
	s, out := newSession(t)
	var asked []string
	s.SetPrompter(func(prompt string) (string, error) {
		asked = append(asked, prompt)
		return "p1", nil
	})
	if _, err := s.Execute(context.Background(), "open"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(asked) != 1 || asked[0] != "problem name" {
		t.Fatalf("asked = %v", asked)
	}
	if !strings.Contains(out.String(), "add") {
		t.Fatalf("statement missing:\n%s", out.String())
	}
}

func TestExecutePromptFailure(t *testing.T) {
	s, _ := newSession(t)
	s.SetPrompter(func(string) (string, error) { return "", errors.New("closed") })
	if _, err := s.Execute(context.Background(), "lang"); err == nil || err.Error() != "closed" {
		t.Fatalf("err = %v", err)
	}
}

func TestExecutePrintsAlerts(t *testing.T) {
	s, out := newSession(t)
	if _, err := s.Execute(context.Background(), `push "weekly update"`); !pkgerrors.Is(err, pkgerrors.PushRejected) {
		t.Fatalf("err = %v, want PushRejected", err)
	}
	text := out.String()
	if !strings.Contains(text, "❌ 失敗") || !strings.Contains(text, "nothing to commit") {
		t.Fatalf("alert not printed:\n%s", text)
	}
}

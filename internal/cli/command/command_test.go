package command_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gradedesk/internal/cli/command"
	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/gateway"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
)

type backend struct {
	mu    sync.Mutex
	saved map[string]string
	push  string
}

func (b *backend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/problems":
			_, _ = io.WriteString(w, `{"app_title":"Lab","problems":[
				{"name":"p1","display_name":"Sum","total_points":10,"total_tests":1},
				{"name":"p2","display_name":"Loops","total_points":20,"total_tests":2}]}`)
		case strings.HasPrefix(r.URL.Path, "/api/problem/"):
			_, _ = io.WriteString(w, `{"name":"p1","points":10,"timeout":1,"description_html":"<p>add two numbers</p>",
				"test_cases":[{"input":"1 2","expected":"3"}]}`)
		case strings.HasPrefix(r.URL.Path, "/api/run/"):
			_, _ = io.WriteString(w, `{"score":10,"total_points":10,"passed_count":1,"total_count":1,"fail_count":0,
				"details":[{"status":"PASS","case":"Test 1","input":"1 2","output":"3"}]}`)
		case strings.HasPrefix(r.URL.Path, "/api/code/") && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"content":"int main() {}"}`)
		case strings.HasPrefix(r.URL.Path, "/api/code/"):
			var req struct {
				Content string `json:"content"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			b.mu.Lock()
			b.saved[strings.TrimPrefix(r.URL.Path, "/api/code/")] = req.Content
			b.mu.Unlock()
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/api/git_push":
			var req struct {
				Message string `json:"commit_message"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			b.mu.Lock()
			b.push = req.Message
			b.mu.Unlock()
			_, _ = io.WriteString(w, `{"success":true,"message":"done","details":"main -> main"}`)
		case r.URL.Path == "/static/help.md":
			_, _ = io.WriteString(w, "# Help\n\nRun `make`.")
		default:
			t.Logf("unhandled backend request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func newEnv(t *testing.T) (*command.Env, *bytes.Buffer, *backend) {
	t.Helper()
	be := &backend{saved: make(map[string]string)}
	srv := httptest.NewServer(be.handler(t))
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
	return env, out, be
}

func run(t *testing.T, env *command.Env, name string, tokens ...string) error {
	t.Helper()
	cmd, ok := command.Registry()[name]
	if !ok {
		t.Fatalf("command %q not registered", name)
	}
	params, missing, err := command.Bind(cmd, tokens)
	if err != nil {
		t.Fatalf("bind %s: %v", name, err)
	}
	if len(missing) > 0 {
		t.Fatalf("bind %s: missing %v", name, missing)
	}
	return cmd.Run(context.Background(), env, params)
}

func TestBind(t *testing.T) {
	cmds := command.Registry()
	tests := []struct {
		name        string
		cmd         string
		tokens      []string
		wantParams  map[string]string
		wantMissing []string
		wantErr     bool
	}{
		{name: "required present", cmd: "open", tokens: []string{"p1"}, wantParams: map[string]string{"name": "p1"}},
		{name: "optional present", cmd: "open", tokens: []string{"p1", "en"}, wantParams: map[string]string{"name": "p1", "lang": "en"}},
		{name: "required missing", cmd: "open", wantMissing: []string{"name"}},
		{name: "too many", cmd: "open", tokens: []string{"p1", "en", "x"}, wantErr: true},
		{name: "rest joins", cmd: "push", tokens: []string{"fix", "loop", "bounds"}, wantParams: map[string]string{"message": "fix loop bounds"}},
		{name: "no args", cmd: "list", tokens: []string{"extra"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, missing, err := command.Bind(cmds[tt.cmd], tt.tokens)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for k, v := range tt.wantParams {
				if params.Get(k) != v {
					t.Fatalf("param %s = %q, want %q", k, params.Get(k), v)
				}
			}
			if len(missing) != len(tt.wantMissing) {
				t.Fatalf("missing = %v, want %v", missing, tt.wantMissing)
			}
			for i, arg := range missing {
				if arg.Name != tt.wantMissing[i] {
					t.Fatalf("missing[%d] = %s, want %s", i, arg.Name, tt.wantMissing[i])
				}
			}
		})
	}
}

func TestUsage(t *testing.T) {
	cmds := command.Registry()
	if got := cmds["open"].Usage(); got != "open <name> [lang]" {
		t.Fatalf("open usage = %q", got)
	}
	if got := cmds["push"].Usage(); got != "push [message...]" {
		t.Fatalf("push usage = %q", got)
	}
}

func TestNamesSkipAliases(t *testing.T) {
	names := command.Names(command.Registry())
	for _, name := range names {
		if name == "ls" {
			t.Fatalf("alias listed in names: %v", names)
		}
	}
	if len(names) == 0 || names[0] != "close" {
		t.Fatalf("names not sorted: %v", names)
	}
}

func TestListShowsTableAndProgress(t *testing.T) {
	env, out, _ := newEnv(t)
	if err := run(t, env, "ls"); err != nil {
		t.Fatalf("ls: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Lab", "Sum [p1]", "Loops [p2]", "0/2 Solved"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestOpenPrintsInfoAndPendingCases(t *testing.T) {
	env, out, _ := newEnv(t)
	if err := run(t, env, "open", "p1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "add two numbers") {
		t.Fatalf("statement missing:\n%s", text)
	}
	if !strings.Contains(text, "測試 #1 (Pending)") {
		t.Fatalf("pending cases missing:\n%s", text)
	}

	out.Reset()
	if err := run(t, env, "code"); err != nil {
		t.Fatalf("code: %v", err)
	}
	if strings.TrimSpace(out.String()) != "int main() {}" {
		t.Fatalf("code = %q", out.String())
	}
}

func TestCommandsRequireOpenProblem(t *testing.T) {
	env, _, _ := newEnv(t)
	for _, name := range []string{"results", "code", "next", "info", "run"} {
		err := run(t, env, name)
		if !pkgerrors.Is(err, pkgerrors.NoProblemOpen) {
			t.Fatalf("%s: expected NoProblemOpen, got %v", name, err)
		}
	}
}

func TestEditSaveExec(t *testing.T) {
	env, out, be := newEnv(t)
	if err := run(t, env, "open", "p1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	src := filepath.Join(t.TempDir(), "main.cpp")
	if err := os.WriteFile(src, []byte("int main() { return 0; }"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := run(t, env, "edit", src); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !env.Ctrl.SaveEnabled() {
		t.Fatalf("save should be enabled after edit")
	}

	out.Reset()
	if err := run(t, env, "exec"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	be.mu.Lock()
	saved := be.saved["p1"]
	be.mu.Unlock()
	if saved != "int main() { return 0; }" {
		t.Fatalf("saved = %q", saved)
	}
	if !strings.Contains(out.String(), "1/1 passed") {
		t.Fatalf("results missing:\n%s", out.String())
	}
	if env.Ctrl.SaveEnabled() {
		t.Fatalf("save should be disabled after exec")
	}
}

func TestPushAlertsOutcome(t *testing.T) {
	env, _, be := newEnv(t)
	if err := run(t, env, "push", "weekly", "update"); err != nil {
		t.Fatalf("push: %v", err)
	}
	be.mu.Lock()
	msg := be.push
	be.mu.Unlock()
	if msg != "weekly update" {
		t.Fatalf("push message = %q", msg)
	}
	alerts := env.Board.Alerts()
	if len(alerts) != 1 || !strings.HasPrefix(alerts[0], "✅ 成功！") {
		t.Fatalf("alerts = %v", alerts)
	}
}

func TestGuideAndTheme(t *testing.T) {
	env, out, _ := newEnv(t)
	if err := run(t, env, "guide"); err != nil {
		t.Fatalf("guide: %v", err)
	}
	if !strings.Contains(out.String(), "Help") {
		t.Fatalf("guide output:\n%s", out.String())
	}
	if !env.Board.Panel(view.HelpOverlay).Hidden {
		t.Fatalf("help modal left open")
	}

	out.Reset()
	if err := run(t, env, "theme"); err != nil {
		t.Fatalf("theme: %v", err)
	}
	if strings.TrimSpace(out.String()) != "theme: dark" {
		t.Fatalf("theme output = %q", out.String())
	}
}

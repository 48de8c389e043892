package controller_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/editor"
	"gradedesk/internal/console/gateway"
	"gradedesk/internal/console/model"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/view"
	pkgerrors "gradedesk/pkg/errors"
)

type fakeBackend struct {
	mu sync.Mutex

	list    *model.ProblemList
	listErr error

	infos    map[string]*model.ProblemInfo
	infoErr  error
	infoGate map[string]chan struct{}
	entered  chan string
	langs    []string

	runs     map[string]*model.RunResult
	runErr   map[string]error
	runBlock bool
	runCalls []string
	running  int
	overlap  bool

	code  map[string]string
	saved map[string]string
	save  *model.SaveResult

	// saveVia, when set, sends saves to a real backend client.
	saveVia controller.Backend

	push    *model.PushResult
	pushErr error
	pushMsg string

	help    string
	helpErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		list: &model.ProblemList{
			AppTitle:       "CPP Grader",
			AppDescription: "Weekly exercises",
			Problems: []model.ProblemSummary{
				{Name: "p1", DisplayName: "Sum", TotalPoints: 10},
				{Name: "p2", DisplayName: "Loops", TotalPoints: 20},
				{Name: "p3", TotalPoints: 30},
			},
		},
		infos: map[string]*model.ProblemInfo{
			"p1": {Name: "p1", Points: 10, Timeout: 2, DescriptionHTML: "<p>sum two numbers</p>",
				AvailableLangs: []string{"zh", "en"},
				TestCases:      []model.PendingCase{{Input: "1 2", Expected: "3"}}},
			"p2": {Name: "p2", Points: 20, DescriptionHTML: "<p>print a loop</p>"},
			"p3": {Name: "p3", Points: 30, DescriptionMD: "# Third"},
		},
		infoGate: make(map[string]chan struct{}),
		entered:  make(chan string, 4),
		runs: map[string]*model.RunResult{
			"p1": {Score: 10, TotalPoints: 12, PassedCount: 1, TotalCount: 1,
				Details: model.Details{model.PassDetail{Case: "Test 1", Input: "1 2", Output: "3"}}},
			"p2": {Score: 5, TotalPoints: 20, PassedCount: 1, TotalCount: 2},
			"p3": {Score: 30, TotalPoints: 30, PassedCount: 3, TotalCount: 3},
		},
		runErr: make(map[string]error),
		code:   map[string]string{"p1": "int main() {}", "p2": "// loops"},
		saved:  make(map[string]string),
		save:   &model.SaveResult{Success: true},
		push:   &model.PushResult{Success: true, Message: "成功推送到 GitHub！", Details: "main -> main"},
		help:   "# Guide\n\nRun `make`.",
	}
}

func (f *fakeBackend) ListProblems(ctx context.Context) (*model.ProblemList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := *f.list
	out.Problems = append([]model.ProblemSummary(nil), f.list.Problems...)
	return &out, nil
}

func (f *fakeBackend) ProblemInfo(ctx context.Context, name, lang string) (*model.ProblemInfo, error) {
	f.mu.Lock()
	f.langs = append(f.langs, lang)
	gate := f.infoGate[name]
	info, ok := f.infos[name]
	err := f.infoErr
	f.mu.Unlock()

	if gate != nil {
		f.entered <- name
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.BackendStatus)
	}
	out := *info
	return &out, nil
}

func (f *fakeBackend) Run(ctx context.Context, name string) (*model.RunResult, error) {
	f.mu.Lock()
	f.runCalls = append(f.runCalls, name)
	f.running++
	if f.running > 1 {
		f.overlap = true
	}
	block := f.runBlock
	err := f.runErr[name]
	res := f.runs[name]
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}()
	time.Sleep(time.Millisecond)

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	out := *res
	return &out, nil
}

func (f *fakeBackend) Code(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code[name], nil
}

func (f *fakeBackend) SaveCode(ctx context.Context, name, content string) (*model.SaveResult, error) {
	if f.saveVia != nil {
		return f.saveVia.SaveCode(ctx, name, content)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.save.Success {
		f.saved[name] = content
	}
	out := *f.save
	return &out, nil
}

func (f *fakeBackend) Push(ctx context.Context, message string) (*model.PushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushMsg = message
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	out := *f.push
	return &out, nil
}

func (f *fakeBackend) HelpMarkdown(ctx context.Context) (string, error) {
	if f.helpErr != nil {
		return "", f.helpErr
	}
	return f.help, nil
}

type memStore struct {
	mu    sync.Mutex
	theme prefs.Theme
	err   error
}

func (m *memStore) Theme(ctx context.Context) (prefs.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.theme == "" {
		return prefs.Light, nil
	}
	return m.theme, nil
}

func (m *memStore) SetTheme(ctx context.Context, theme prefs.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.theme = theme
	return nil
}

type harness struct {
	ctrl    *controller.Controller
	board   *view.Board
	adapter *editor.Adapter
	backend *fakeBackend
	store   *memStore
}

func newHarness(t *testing.T, backend *fakeBackend, cfg controller.Config) *harness {
	t.Helper()
	h := &harness{
		board:   view.NewBoard(),
		adapter: editor.NewAdapter(editor.BufferLoader(0)),
		backend: backend,
		store:   &memStore{},
	}
	cfg.LayoutDelay = time.Millisecond
	h.ctrl = controller.New(backend, h.board, h.adapter, h.store, cfg)
	if err := h.ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		h.waitEditor(t)
		h.ctrl.Wait()
	})
	return h
}

func (h *harness) waitEditor(t *testing.T) {
	t.Helper()
	if h.adapter.State() == editor.Uninitialized {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.adapter.Wait(ctx); err != nil {
		t.Fatalf("editor did not finish loading: %v", err)
	}
}

func (h *harness) open(t *testing.T, name string) {
	t.Helper()
	if err := h.ctrl.OpenProblem(context.Background(), name, ""); err != nil {
		t.Fatalf("OpenProblem(%s): %v", name, err)
	}
	h.waitEditor(t)
	h.ctrl.Wait()
}

func (h *harness) buffer(t *testing.T) *editor.Buffer {
	t.Helper()
	buf, ok := h.adapter.Widget().(*editor.Buffer)
	if !ok {
		t.Fatalf("widget is %T", h.adapter.Widget())
	}
	return buf
}

func html(b *view.Board, target view.Target) string {
	return string(b.Panel(target).HTML)
}

func TestInitRendersTableAndTitle(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})

	if got := h.board.Panel(view.PageTitle).Text; got != "CPP Grader" {
		t.Errorf("page title = %q", got)
	}
	table := html(h.board, view.TableBody)
	for _, name := range []string{"p1", "p2", "p3"} {
		if !strings.Contains(table, `data-problem="`+name+`"`) {
			t.Errorf("table missing row %s", name)
		}
	}
	if !strings.Contains(html(h.board, view.Progress), "0/3 Solved") {
		t.Errorf("progress = %s", html(h.board, view.Progress))
	}
	if h.ctrl.Registry().Len() != 3 {
		t.Errorf("registry len = %d", h.ctrl.Registry().Len())
	}
}

func TestLoadAllError(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})

	backend.mu.Lock()
	backend.listErr = pkgerrors.New(pkgerrors.BackendUnreachable)
	backend.mu.Unlock()

	if err := h.ctrl.LoadAll(context.Background()); !pkgerrors.Is(err, pkgerrors.BackendUnreachable) {
		t.Fatalf("LoadAll error = %v", err)
	}
	if h.ctrl.Registry().Len() != 3 {
		t.Error("failed reload should keep the previous registry")
	}
}

func TestOpenProblemUnknown(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})

	err := h.ctrl.OpenProblem(context.Background(), "nope", "")
	if !pkgerrors.Is(err, pkgerrors.ProblemNotFound) {
		t.Fatalf("err = %v, want ProblemNotFound", err)
	}
	if !h.board.Panel(view.ProblemView).Hidden {
		t.Error("view should stay hidden")
	}
	if h.adapter.State() != editor.Uninitialized {
		t.Error("editor should not be initialized for an unknown problem")
	}
}

func TestOpenProblemRendersView(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})
	h.open(t, "p1")

	if h.board.Panel(view.ProblemView).Hidden {
		t.Fatal("view should be visible")
	}
	if got := h.board.Panel(view.ViewTitle).Text; got != "Sum" {
		t.Errorf("title = %q", got)
	}
	if !strings.Contains(html(h.board, view.Description), "sum two numbers") {
		t.Errorf("description = %s", html(h.board, view.Description))
	}
	if !strings.Contains(html(h.board, view.Results), "1 2") {
		t.Errorf("results should list pending cases: %s", html(h.board, view.Results))
	}
	if !strings.Contains(html(h.board, view.HeaderInfo), "PENDING") {
		t.Errorf("header = %s", html(h.board, view.HeaderInfo))
	}
	if h.board.Panel(view.LangSelector).Hidden {
		t.Error("language selector should be visible with two languages")
	}
	if !h.board.Panel(view.PrevButton).Disabled || h.board.Panel(view.NextButton).Disabled {
		t.Error("first problem: prev disabled, next enabled")
	}
	if !h.board.Panel(view.SaveButton).Disabled {
		t.Error("save should start disabled")
	}

	if got := h.buffer(t).Value(); got != "int main() {}" {
		t.Errorf("editor value = %q", got)
	}
	if got := h.buffer(t).Language(); got != controller.DefaultEditorLanguage {
		t.Errorf("editor language = %q", got)
	}

	snap := h.ctrl.Snapshot()
	if snap.Current != "p1" || !snap.ViewOpen || snap.Info == nil || snap.EditorState != editor.Ready {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestOpenProblemInfoFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.infoErr = pkgerrors.New(pkgerrors.BackendStatus)
	h := newHarness(t, backend, controller.Config{})

	err := h.ctrl.OpenProblem(context.Background(), "p2", "")
	if err == nil {
		t.Fatal("expected info error")
	}
	if !strings.Contains(html(h.board, view.Description), "無法載入題目資訊。") {
		t.Errorf("description = %s", html(h.board, view.Description))
	}
	if h.board.Panel(view.ProblemView).Hidden {
		t.Error("view stays open on info failure")
	}
}

func TestStaleProblemInfoDiscarded(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.infoGate["p1"] = gate
	h := newHarness(t, backend, controller.Config{})

	done := make(chan error, 1)
	go func() {
		done <- h.ctrl.OpenProblem(context.Background(), "p1", "")
	}()
	<-backend.entered

	if err := h.ctrl.OpenProblem(context.Background(), "p2", ""); err != nil {
		t.Fatalf("open p2: %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("stale open should return nil, got %v", err)
	}

	desc := html(h.board, view.Description)
	if !strings.Contains(desc, "print a loop") || strings.Contains(desc, "sum two numbers") {
		t.Errorf("description = %s", desc)
	}
	snap := h.ctrl.Snapshot()
	if snap.Current != "p2" || snap.Info == nil || snap.Info.Name != "p2" {
		t.Errorf("snapshot current=%s info=%+v", snap.Current, snap.Info)
	}
}

func TestCloseDiscardsInFlightInfo(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.infoGate["p1"] = gate
	h := newHarness(t, backend, controller.Config{})

	done := make(chan error, 1)
	go func() {
		done <- h.ctrl.OpenProblem(context.Background(), "p1", "")
	}()
	<-backend.entered
	h.ctrl.CloseProblem()
	close(gate)
	<-done

	if !h.board.Panel(view.ProblemView).Hidden {
		t.Error("view should be hidden")
	}
	if h.ctrl.Snapshot().Info != nil {
		t.Error("closed view should not receive info")
	}
}

func TestRunOneUpdatesTableAndOpenView(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})
	h.open(t, "p1")

	if err := h.ctrl.RunOne(context.Background(), "p1"); err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	p1, _ := h.ctrl.Registry().Get("p1")
	if !p1.HasRun || p1.Score != 10 || p1.Passed != 1 {
		t.Errorf("p1 = %+v", p1)
	}
	if p1.TotalPoints != 10 {
		t.Errorf("RunOne should keep total_points, got %v", p1.TotalPoints)
	}
	if !strings.Contains(html(h.board, view.Results), "測試 #1: PASS") {
		t.Errorf("results = %s", html(h.board, view.Results))
	}
	if !strings.Contains(html(h.board, view.HeaderInfo), "badge-pass") {
		t.Errorf("header = %s", html(h.board, view.HeaderInfo))
	}
	if !strings.Contains(html(h.board, view.Progress), "1/3 Solved") {
		t.Errorf("progress = %s", html(h.board, view.Progress))
	}

	before := h.board.Panel(view.Results).Version
	if err := h.ctrl.RunOne(context.Background(), "p2"); err != nil {
		t.Fatalf("RunOne p2: %v", err)
	}
	if h.board.Panel(view.Results).Version != before {
		t.Error("running another problem must not touch the open results panel")
	}
}

func TestRunAllContinuesAfterFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.runErr["p1"] = pkgerrors.New(pkgerrors.BackendUnreachable)
	h := newHarness(t, backend, controller.Config{})

	err := h.ctrl.RunAll(context.Background())
	if !pkgerrors.Is(err, pkgerrors.BackendUnreachable) {
		t.Fatalf("RunAll error = %v", err)
	}
	if got := strings.Join(backend.runCalls, ","); got != "p1,p2,p3" {
		t.Errorf("run order = %s", got)
	}
	if backend.overlap {
		t.Error("a run started before the previous one returned")
	}
	if p1, _ := h.ctrl.Registry().Get("p1"); p1.HasRun {
		t.Error("failed run must not mark p1 as run")
	}
	if p3, _ := h.ctrl.Registry().Get("p3"); !p3.HasRun || p3.Score != 30 {
		t.Errorf("p3 = %+v", p3)
	}
	if !strings.Contains(html(h.board, view.RowStatus("p1")), "run-failed") &&
		!strings.Contains(html(h.board, view.RowStatus("p1")), "執行失敗") {
		t.Errorf("p1 status = %s", html(h.board, view.RowStatus("p1")))
	}
}

func TestRunAllStopsOnCancel(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.ctrl.RunAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(backend.runCalls) != 0 {
		t.Errorf("runs after cancel: %v", backend.runCalls)
	}
}

func TestRerunCurrentRequiresOpenProblem(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})
	if err := h.ctrl.RerunCurrent(context.Background()); !pkgerrors.Is(err, pkgerrors.NoProblemOpen) {
		t.Fatalf("err = %v", err)
	}
}

func TestEditSaveAndRunFromEditor(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})
	h.open(t, "p1")

	h.buffer(t).Edit("int main() { return 0; }")
	if !h.ctrl.SaveEnabled() || h.board.Panel(view.SaveButton).Disabled {
		t.Fatal("an edit should enable save")
	}

	if err := h.ctrl.RunFromEditor(context.Background()); err != nil {
		t.Fatalf("RunFromEditor: %v", err)
	}
	if got := backend.saved["p1"]; got != "int main() { return 0; }" {
		t.Errorf("saved = %q", got)
	}
	if h.ctrl.SaveEnabled() {
		t.Error("save should be disabled after a successful save")
	}
	p1, _ := h.ctrl.Registry().Get("p1")
	if p1.TotalPoints != 12 {
		t.Errorf("run from editor should copy total_points, got %v", p1.TotalPoints)
	}
	if !strings.Contains(html(h.board, view.Results), "PASS") {
		t.Errorf("results = %s", html(h.board, view.Results))
	}
}

func TestLoadCodeDoesNotMarkDirty(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})
	h.open(t, "p1")
	h.open(t, "p2")

	if got := h.buffer(t).Value(); got != "// loops" {
		t.Errorf("editor value = %q", got)
	}
	if h.ctrl.SaveEnabled() {
		t.Error("programmatic load must not enable save")
	}
	if h.buffer(t).Layouts() == 0 {
		t.Error("reopening with a ready editor should relayout")
	}
}

func TestRunFromEditorTimeout(t *testing.T) {
	backend := newFakeBackend()
	backend.runBlock = true
	h := newHarness(t, backend, controller.Config{RunTimeout: time.Second})
	h.open(t, "p1")

	err := h.ctrl.RunFromEditor(context.Background())
	if !pkgerrors.Is(err, pkgerrors.RunTimeout) {
		t.Fatalf("err = %v, want RunTimeout", err)
	}
	if !strings.Contains(html(h.board, view.Results), "執行逾時（超過1秒）") {
		t.Errorf("results = %s", html(h.board, view.Results))
	}
}

func TestRunFromEditorFailureMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.runErr["p1"] = errors.New("boom")
	h := newHarness(t, backend, controller.Config{})
	h.open(t, "p1")

	if err := h.ctrl.RunFromEditor(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(html(h.board, view.Results), "執行失敗: boom") {
		t.Errorf("results = %s", html(h.board, view.Results))
	}
}

func TestSaveRejectedAlerts(t *testing.T) {
	backend := newFakeBackend()
	backend.save = &model.SaveResult{Success: false, Error: "disk full"}
	h := newHarness(t, backend, controller.Config{})
	h.open(t, "p1")
	h.buffer(t).Edit("changed")

	err := h.ctrl.SaveCode(context.Background())
	if !pkgerrors.Is(err, pkgerrors.SaveRejected) {
		t.Fatalf("err = %v", err)
	}
	alerts := h.board.Alerts()
	if len(alerts) != 1 || alerts[0] != "儲存失敗: disk full" {
		t.Errorf("alerts = %v", alerts)
	}
	if !h.ctrl.SaveEnabled() {
		t.Error("save stays enabled after a rejected save")
	}
}

func TestSaveHTTPErrorAlertsBackendReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"disk full"}`)
	}))
	t.Cleanup(srv.Close)

	backend := newFakeBackend()
	backend.saveVia = gateway.New(srv.URL, 5*time.Second)
	h := newHarness(t, backend, controller.Config{})
	h.open(t, "p1")
	h.buffer(t).Edit("changed")

	err := h.ctrl.SaveCode(context.Background())
	if !pkgerrors.Is(err, pkgerrors.BackendStatus) {
		t.Fatalf("err = %v", err)
	}
	alerts := h.board.Alerts()
	if len(alerts) != 1 || alerts[0] != "儲存失敗: disk full" {
		t.Errorf("alerts = %v", alerts)
	}
	if !h.ctrl.SaveEnabled() {
		t.Error("save stays enabled after a failed save")
	}
}

func TestConfirmPush(t *testing.T) {
	tests := []struct {
		name    string
		result  *model.PushResult
		err     error
		message string
		prefix  string
		wantErr bool
	}{
		{name: "success", result: &model.PushResult{Success: true, Message: "成功推送到 GitHub！", Details: "main"}, prefix: "✅ 成功！\n\n成功推送到 GitHub！\n\n詳細資訊:\nmain"},
		{name: "rejected", result: &model.PushResult{Success: false, Error: "no remote"}, message: "wip", prefix: "❌ 失敗\n\nno remote", wantErr: true},
		{name: "unreachable", err: errors.New("connection refused"), prefix: "❌ 錯誤\n\n無法連接到伺服器: connection refused", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.push = tt.result
			backend.pushErr = tt.err
			h := newHarness(t, backend, controller.Config{})

			h.ctrl.OpenPushConfirm()
			if h.board.Panel(view.PushConfirm).Hidden {
				t.Fatal("confirm dialog should be visible")
			}
			err := h.ctrl.ConfirmPush(context.Background(), tt.message)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}

			alerts := h.board.Alerts()
			if len(alerts) != 1 || !strings.HasPrefix(alerts[0], tt.prefix) {
				t.Errorf("alerts = %q", alerts)
			}
			wantMsg := tt.message
			if wantMsg == "" {
				wantMsg = model.DefaultCommitMessage
			}
			if backend.pushMsg != wantMsg {
				t.Errorf("commit message = %q", backend.pushMsg)
			}
			btn := h.board.Panel(view.PushButton)
			if btn.Disabled || btn.Text != controller.PushLabel {
				t.Errorf("push button not restored: %+v", btn)
			}
			if !h.board.Panel(view.PushConfirm).Hidden {
				t.Error("confirm dialog should close")
			}
		})
	}
}

func TestHelp(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})

	if err := h.ctrl.OpenHelp(context.Background()); err != nil {
		t.Fatalf("OpenHelp: %v", err)
	}
	body := html(h.board, view.HelpBody)
	if !strings.Contains(body, "<h1>Guide</h1>") || !strings.Contains(body, "<code>make</code>") {
		t.Errorf("help body = %s", body)
	}
	h.ctrl.CloseHelp()
	if !h.board.Panel(view.HelpOverlay).Hidden {
		t.Error("overlay should be hidden")
	}

	backend.helpErr = errors.New("404")
	if err := h.ctrl.OpenHelp(context.Background()); err == nil {
		t.Fatal("expected help error")
	}
	if !strings.Contains(html(h.board, view.HelpBody), "Failed to load help.") {
		t.Errorf("help body = %s", html(h.board, view.HelpBody))
	}
}

func TestThemeToggle(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})
	h.open(t, "p1")

	theme, err := h.ctrl.ToggleTheme(context.Background())
	if err != nil || theme != prefs.Dark {
		t.Fatalf("ToggleTheme = %s, %v", theme, err)
	}
	if got := h.board.Panel(view.Theme).Text; got != "dark" {
		t.Errorf("surface theme = %q", got)
	}
	if got := h.buffer(t).Theme(); got != "vs-dark" {
		t.Errorf("editor theme = %q", got)
	}
	if h.store.theme != prefs.Dark {
		t.Errorf("stored theme = %q", h.store.theme)
	}

	h.store.err = errors.New("read-only")
	theme, err = h.ctrl.ToggleTheme(context.Background())
	if err == nil || theme != prefs.Light || h.ctrl.Theme() != prefs.Light {
		t.Errorf("toggle with failing store = %s, %v", theme, err)
	}
}

func TestInitAppliesStoredTheme(t *testing.T) {
	board := view.NewBoard()
	adapter := editor.NewAdapter(editor.BufferLoader(0))
	store := &memStore{theme: prefs.Dark}
	ctrl := controller.New(newFakeBackend(), board, adapter, store, controller.Config{})

	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if ctrl.Theme() != prefs.Dark || board.Panel(view.Theme).Text != "dark" {
		t.Errorf("theme = %s", ctrl.Theme())
	}
}

func TestNavigation(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})

	if err := h.ctrl.NextProblem(context.Background()); err != nil {
		t.Fatalf("next without open problem: %v", err)
	}
	h.open(t, "p2")

	steps := []struct {
		next bool
		want string
	}{
		{true, "p3"},
		{true, "p3"},
		{false, "p2"},
		{false, "p1"},
		{false, "p1"},
	}
	for i, s := range steps {
		var err error
		if s.next {
			err = h.ctrl.NextProblem(context.Background())
		} else {
			err = h.ctrl.PrevProblem(context.Background())
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		h.ctrl.Wait()
		if got := h.ctrl.Snapshot().Current; got != s.want {
			t.Errorf("step %d: current = %s, want %s", i, got, s.want)
		}
	}
	if !h.board.Panel(view.PrevButton).Disabled {
		t.Error("prev should be disabled on the first problem")
	}
}

func TestSwitchLanguageKeepsResults(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})
	if err := h.ctrl.RunOne(context.Background(), "p1"); err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	h.open(t, "p1")

	if err := h.ctrl.SwitchLanguage(context.Background(), "en"); err != nil {
		t.Fatalf("SwitchLanguage: %v", err)
	}
	h.ctrl.Wait()

	if last := backend.langs[len(backend.langs)-1]; last != "en" {
		t.Errorf("last info lang = %q", last)
	}
	if p1, _ := h.ctrl.Registry().Get("p1"); !p1.HasRun {
		t.Error("run results must survive a language switch")
	}
	if !strings.Contains(html(h.board, view.Results), "PASS") {
		t.Errorf("results should show stored details: %s", html(h.board, view.Results))
	}
	if h.ctrl.Snapshot().Lang != "en" {
		t.Error("lang not recorded")
	}

	h.ctrl.CloseProblem()
	if err := h.ctrl.SwitchLanguage(context.Background(), "zh"); !pkgerrors.Is(err, pkgerrors.NoProblemOpen) {
		t.Errorf("switch with closed view = %v", err)
	}
}

func TestProblemListDropdown(t *testing.T) {
	h := newHarness(t, newFakeBackend(), controller.Config{})
	h.open(t, "p1")

	if !h.ctrl.ToggleProblemList() {
		t.Fatal("first toggle should open the list")
	}
	list := h.board.Panel(view.ProblemList)
	if list.Hidden || !strings.Contains(string(list.HTML), `data-problem="p3"`) {
		t.Errorf("dropdown = %+v", list)
	}

	if err := h.ctrl.SelectProblem(context.Background(), "p3"); err != nil {
		t.Fatalf("SelectProblem: %v", err)
	}
	h.ctrl.Wait()
	if !h.board.Panel(view.ProblemList).Hidden || h.ctrl.Snapshot().ListOpen {
		t.Error("selecting should close the dropdown")
	}
	if h.ctrl.Snapshot().Current != "p3" {
		t.Error("selection not opened")
	}
}

func TestReloadClosesVanishedProblem(t *testing.T) {
	backend := newFakeBackend()
	h := newHarness(t, backend, controller.Config{})
	h.open(t, "p3")

	backend.mu.Lock()
	backend.list.Problems = backend.list.Problems[:2]
	backend.mu.Unlock()

	if err := h.ctrl.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !h.board.Panel(view.ProblemView).Hidden || h.ctrl.Snapshot().ViewOpen {
		t.Error("view of a removed problem should close")
	}
}

func TestEditorLoadFailure(t *testing.T) {
	board := view.NewBoard()
	adapter := editor.NewAdapter(func(ctx context.Context, opts editor.Options) (editor.Widget, error) {
		return nil, errors.New("bundle unavailable")
	})
	ctrl := controller.New(newFakeBackend(), board, adapter, &memStore{}, controller.Config{})
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ctrl.OpenProblem(context.Background(), "p1", ""); err != nil {
		t.Fatalf("OpenProblem: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := adapter.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	if adapter.State() != editor.Failed {
		t.Fatalf("state = %s", adapter.State())
	}
	if !strings.Contains(string(board.Panel(view.Editor).HTML), "bundle unavailable") {
		t.Errorf("editor panel = %s", board.Panel(view.Editor).HTML)
	}
	if err := ctrl.SaveCode(context.Background()); !pkgerrors.Is(err, pkgerrors.EditorNotReady) {
		t.Errorf("save with failed editor = %v", err)
	}
}

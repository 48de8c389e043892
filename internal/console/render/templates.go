package render

import (
	"context"
	"html/template"
	"strconv"
	"strings"

	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	iconPending = `<svg viewBox="0 0 32 32" fill="currentColor"><circle cx="16" cy="16" r="8"/></svg>`
	iconPass    = `<svg viewBox="0 0 32 32" fill="currentColor"><path d="M14 21.414L9 16.414 10.414 15 14 18.586 21.586 11 23 12.414z"/></svg>`
	iconFail    = `<svg viewBox="0 0 32 32" fill="currentColor"><path d="M16 2C8.2 2 2 8.2 2 16s6.2 14 14 14 14-6.2 14-14S23.8 2 16 2zm5.4 19L16 15.6 10.6 21 9.2 19.6 14.6 14.2 9.2 8.8 10.6 7.4 16 12.8 21.4 7.4 22.8 8.8 17.4 14.2 22.8 19.6 21.4 21z"/></svg>`
	iconRun     = `<svg viewBox="0 0 32 32" fill="currentColor"><path d="M16 2C8.2 2 2 8.2 2 16s6.2 14 14 14 14-6.2 14-14S23.8 2 16 2zm0 26C9.4 28 4 22.6 4 16S9.4 4 16 4s12 5.4 12 12-5.4 12-12 12z" opacity="0.2"/><path d="M16 4C9.4 4 4 9.4 4 16" fill="none" stroke="currentColor" stroke-width="4"/></svg>`
	iconPlay    = `<svg viewBox="0 0 32 32"><path d="M7,28a1,1,0,0,1-1-1V5a1,1,0,0,1,1.4819-.8763l20,11a1,1,0,0,1,0,1.7525l-20,11A1.0005,1.0005,0,0,1,7,28Z"/></svg>`
)

var funcs = template.FuncMap{
	"num": formatNumber,
	"inc": func(i int) int { return i + 1 },
	"icon": func(name string) template.HTML {
		switch name {
		case "pass":
			return iconPass
		case "fail":
			return iconFail
		case "running":
			return iconRun
		case "play":
			return iconPlay
		default:
			return iconPending
		}
	},
}

const tableTmpl = `{{define "table"}}{{range .}}<tr class="table-row-clickable" data-action="open" data-problem="{{.Name}}">
<td id="status-{{.Name}}" data-target="status-{{.Name}}"><div class="table-status-icon {{.State}}" title="{{.StateTitle}}">{{icon .State}}</div></td>
<td><div class="problem-title">{{.Title}}</div><div class="problem-name">{{.Name}}</div></td>
<td class="mono" id="score-{{.Name}}">{{num .Score}} / {{num .TotalPoints}}</td>
<td><div class="tests-cell"><span id="tests-{{.Name}}">{{.Passed}} / {{.TotalTests}}</span><div class="table-progress"><div id="bar-{{.Name}}" class="{{.BarClass}}" style="width: {{.Percent}}%"></div></div></div></td>
<td class="actions"><button class="table-action-btn" data-action="run" data-problem="{{.Name}}" title="執行測試">{{icon "play"}}</button></td>
</tr>
{{end}}{{end}}`

const progressTmpl = `{{define "progress"}}<div class="progress-circle" style="--progress: {{.Percent}}"><svg width="36" height="36" viewBox="0 0 36 36"><circle class="progress-bg" cx="18" cy="18" r="15"/><circle class="progress-bar" cx="18" cy="18" r="15"/></svg></div>
<div class="progress-text"><span class="progress-solved">{{.Solved}}/{{.Total}} Solved</span><span class="progress-score">Score: {{num .Score}}/{{num .MaxScore}}</span></div>{{end}}`

const resultsTmpl = `{{define "result-item"}}<div class="result-item"><div class="result-summary {{.Class}}">測試 #{{.Index}}: {{.Status}}</div><div class="result-details">{{.Body}}</div></div>{{end}}
{{define "results-empty"}}<p class="results-empty">無測試資料。</p>{{end}}
{{define "detail-pass"}}<div class="diff-block"><div class="diff-col"><h5>輸入 (Input)</h5><div class="diff-box">{{.Input}}</div></div><div class="diff-col"><h5>輸出 (Output)</h5><div class="diff-box">{{.Output}}</div></div></div>{{end}}
{{define "detail-keyword"}}<div class="keyword-info"><div><strong>禁止關鍵字:</strong> {{orNone .Forbidden}}</div><div><strong>必須關鍵字:</strong> {{orNone .Required}}</div><div class="mt-1"><strong>違規項目:</strong><br>{{if .Violations}}{{range $i, $v := .Violations}}{{if $i}}<br>{{end}}{{$v}}{{end}}{{else}}{{.Msg}}{{end}}</div></div>{{end}}
{{define "detail-compile"}}<div class="compile-log"><strong>編譯錯誤日誌:</strong><br><br>{{if .Log}}{{.Log}}{{else}}無日誌{{end}}</div>{{end}}
{{define "detail-mismatch"}}<div class="diff-block"><div class="diff-col"><h5>預期輸出 (Expected)</h5><div class="diff-box">{{.Expected}}</div></div><div class="diff-col"><h5>實際輸出 (Got)</h5><div class="diff-box">{{.Got}}</div></div></div><div class="mt-1"><h5>輸入 (Input)</h5><div class="diff-box">{{.Input}}</div></div>{{end}}
{{define "detail-tle"}}<div>時間限制: {{num .Timeout}}s</div><div class="mt-1"><h5>輸入 (Input)</h5><div class="diff-box">{{.Input}}</div></div>{{end}}
{{define "detail-error"}}<div class="keyword-info"><strong>執行錯誤:</strong> {{.Msg}}</div>{{if .Stderr}}<div class="mt-1"><div class="diff-box">{{.Stderr}}</div></div>{{end}}{{end}}
{{define "pending"}}{{if not .}}<p class="results-empty">No test cases available.</p>{{else}}{{range $i, $c := .}}<div class="result-item"><div class="result-summary pending">測試 #{{inc $i}} (Pending)</div><div class="result-details"><div class="diff-col"><h5>輸入 (Input)</h5><div class="diff-box">{{$c.Input}}</div></div><div class="diff-col"><h5>輸出 (Output)</h5><div class="diff-box">{{$c.Expected}}</div></div></div></div>
{{end}}{{end}}{{end}}`

const viewTmpl = `{{define "problem-list"}}{{range .}}<div class="problem-list-item{{if .Active}} active{{end}}" data-action="select" data-problem="{{.Name}}"><div class="problem-list-item-title">{{.Index}}. {{.Title}}</div><div class="problem-list-item-status"><span class="status-icon {{.State}}">{{icon .State}}</span></div></div>
{{end}}{{end}}
{{define "lang-selector"}}{{range .}}<button class="lang-btn{{if .Active}} active{{end}}" data-action="lang" data-lang="{{.Code}}">{{.Label}}</button>{{end}}{{end}}
{{define "header-info"}}<span class="header-info-item">Points: {{num .Points}}</span><span class="header-info-item">Timeout: {{num .Timeout}}s</span><span class="header-badge {{.BadgeClass}}">{{.Badge}}</span>{{end}}
{{define "description"}}<div class="description-wrap">{{if or .Forbidden .Required}}<div class="keywords-section">{{if .Forbidden}}<div class="keywords-group"><span class="keywords-label">禁止使用的關鍵字 (Forbidden)</span><div class="keyword-tags">{{range .Forbidden}}<span class="keyword-tag forbidden">{{.}}</span>{{end}}</div></div>{{end}}{{if .Required}}<div class="keywords-group"><span class="keywords-label">必須使用的關鍵字 (Required)</span><div class="keyword-tags">{{range .Required}}<span class="keyword-tag required">{{.}}</span>{{end}}</div></div>{{end}}</div>{{end}}{{if .Body}}<div class="problem-description">{{.Body}}</div>{{end}}</div>{{end}}
{{define "loading"}}<div class="loading-container"><div class="spinner"></div><p>{{.}}</p></div>{{end}}
{{define "notice"}}<div class="notice">{{.}}</div>{{end}}
{{define "error-notice"}}<p class="notice notice-error">{{.}}</p>{{end}}
{{define "running"}}<div class="table-status-icon running">{{icon "running"}}</div>{{end}}
{{define "run-failed"}}<div class="table-status-icon fail" title="執行失敗">{{icon "fail"}}</div>{{end}}
{{define "help"}}<div class="help-content">{{.}}</div>{{end}}`

var templates = template.Must(
	template.New("render").
		Funcs(funcs).
		Funcs(template.FuncMap{"orNone": orNone}).
		Parse(tableTmpl + progressTmpl + resultsTmpl + viewTmpl),
)

func execute(name string, data interface{}) template.HTML {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		logger.Error(context.Background(), "render template failed", zap.String("template", name), zap.Error(err))
		return ""
	}
	return template.HTML(b.String())
}

// formatNumber prints integral values without a fraction.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "無"
	}
	return strings.Join(items, ", ")
}

// Package render turns console state into HTML fragments and plain text.
// Every function is pure: same input, same output, no side effects.
package render

import (
	"html/template"
	"strconv"
	"strings"

	"gradedesk/internal/console/model"
	"gradedesk/internal/console/registry"
)

// Problem states used for icons and CSS classes.
const (
	StatePending = "pending"
	StatePass    = "pass"
	StateFail    = "fail"
)

// ProblemState classifies a summary for its status icon.
func ProblemState(p model.ProblemSummary) string {
	switch {
	case !p.HasRun:
		return StatePending
	case p.FullyPassed():
		return StatePass
	default:
		return StateFail
	}
}

type tableRow struct {
	model.ProblemSummary
	State      string
	StateTitle string
	BarClass   string
	Percent    string
}

// Table renders the problem table body rows.
func Table(problems []model.ProblemSummary) template.HTML {
	rows := make([]tableRow, 0, len(problems))
	for _, p := range problems {
		row := tableRow{ProblemSummary: p, State: ProblemState(p), BarClass: "table-progress-bar"}
		switch row.State {
		case StatePending:
			row.StateTitle = "未執行"
		case StatePass:
			row.StateTitle = "通過"
		default:
			row.StateTitle = "失敗"
		}
		if !p.FullyPassed() {
			row.BarClass += " fail"
		}
		pct := 0.0
		if p.TotalTests > 0 {
			pct = float64(p.Passed) / float64(p.TotalTests) * 100
		}
		row.Percent = formatNumber(pct)
		rows = append(rows, row)
	}
	return execute("table", rows)
}

type progressView struct {
	registry.Stats
	Percent string
}

// Progress renders the solved counter and score summary.
func Progress(st registry.Stats) template.HTML {
	pct := 0.0
	if st.Total > 0 {
		pct = float64(st.Solved) / float64(st.Total) * 100
	}
	return execute("progress", progressView{Stats: st, Percent: formatNumber(pct)})
}

type resultItem struct {
	Index  int
	Status string
	Class  string
	Body   template.HTML
}

// TestResults renders one collapsible item per detail.
func TestResults(details model.Details) template.HTML {
	if len(details) == 0 {
		return execute("results-empty", nil)
	}
	var b strings.Builder
	for i, d := range details {
		status := string(d.Status())
		b.WriteString(string(execute("result-item", resultItem{
			Index:  i + 1,
			Status: status,
			Class:  strings.ToLower(status),
			Body:   detailBody(d),
		})))
	}
	return template.HTML(b.String())
}

func detailBody(d model.TestDetail) template.HTML {
	switch v := d.(type) {
	case model.PassDetail:
		return execute("detail-pass", v)
	case model.KeywordViolation:
		return execute("detail-keyword", v)
	case model.CompileFailure:
		return execute("detail-compile", v)
	case model.OutputMismatch:
		return execute("detail-mismatch", v)
	case model.TimeLimit:
		return execute("detail-tle", v)
	case model.RuntimeFailure:
		return execute("detail-error", v)
	default:
		return ""
	}
}

// PendingCases renders the cases shown before a run.
func PendingCases(cases []model.PendingCase) template.HTML {
	view := make([]model.PendingCase, 0, len(cases))
	for _, c := range cases {
		view = append(view, CleanCase(c))
	}
	return execute("pending", view)
}

// CleanCase strips the outer brackets the backend keeps around case data:
// once around the whole input and then per line, once around expected.
func CleanCase(c model.PendingCase) model.PendingCase {
	input := StripBrackets(c.Input)
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = StripBrackets(line)
	}
	return model.PendingCase{
		Input:    strings.Join(lines, "\n"),
		Expected: StripBrackets(c.Expected),
	}
}

// StripBrackets removes one leading "[" and one trailing "]".
func StripBrackets(s string) string {
	s = strings.TrimPrefix(s, "[")
	return strings.TrimSuffix(s, "]")
}

type listItem struct {
	Index  int
	Name   string
	Title  string
	State  string
	Active bool
}

// ProblemList renders the navigation dropdown.
func ProblemList(problems []model.ProblemSummary, current string) template.HTML {
	items := make([]listItem, 0, len(problems))
	for i, p := range problems {
		items = append(items, listItem{
			Index:  i + 1,
			Name:   p.Name,
			Title:  p.Title(),
			State:  ProblemState(p),
			Active: p.Name == current,
		})
	}
	return execute("problem-list", items)
}

type langButton struct {
	Code   string
	Label  string
	Active bool
}

// LanguageSelector renders one button per language. visible is false when
// there is nothing to choose between.
func LanguageSelector(available []string, current string) (html template.HTML, visible bool) {
	if len(available) <= 1 {
		return "", false
	}
	buttons := make([]langButton, 0, len(available))
	for _, code := range available {
		buttons = append(buttons, langButton{Code: code, Label: LanguageName(code), Active: code == current})
	}
	return execute("lang-selector", buttons), true
}

type headerView struct {
	Points     float64
	Timeout    float64
	Badge      string
	BadgeClass string
}

// HeaderInfo renders points, timeout and the pass badge of the open problem.
func HeaderInfo(info model.ProblemInfo, summary model.ProblemSummary) template.HTML {
	view := headerView{Points: info.Points, Timeout: info.TimeoutSeconds(), Badge: "PENDING", BadgeClass: "badge-pending"}
	if summary.HasRun {
		if summary.FullyPassed() {
			view.Badge, view.BadgeClass = "PASS", "badge-pass"
		} else {
			view.Badge, view.BadgeClass = "FAIL", "badge-fail"
		}
	}
	return execute("header-info", view)
}

type descriptionView struct {
	Forbidden []string
	Required  []string
	Body      template.HTML
}

// Description renders the keyword constraints and the problem statement.
// description_html comes from the backend and is inserted as is.
func Description(info model.ProblemInfo) template.HTML {
	body := template.HTML(info.DescriptionHTML)
	if body == "" && info.DescriptionMD != "" {
		body = Markdown(info.DescriptionMD)
	}
	return execute("description", descriptionView{Forbidden: info.Forbidden, Required: info.Required, Body: body})
}

// RunningIcon replaces a row status while its run is in flight.
func RunningIcon() template.HTML {
	return execute("running", nil)
}

// RunFailedIcon marks a row whose run request failed.
func RunFailedIcon() template.HTML {
	return execute("run-failed", nil)
}

// Loading renders a spinner with a caption.
func Loading(msg string) template.HTML {
	return execute("loading", msg)
}

// Notice renders a neutral centered message.
func Notice(msg string) template.HTML {
	return execute("notice", msg)
}

// ErrorNotice renders a centered error message.
func ErrorNotice(msg string) template.HTML {
	return execute("error-notice", msg)
}

// Help wraps rendered help markdown.
func Help(md string) template.HTML {
	return execute("help", Markdown(md))
}

// Percent formats a passed/total ratio for text output.
func Percent(passed, total int) string {
	if total <= 0 {
		return "0%"
	}
	return strconv.Itoa(passed*100/total) + "%"
}

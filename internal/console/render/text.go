package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"gradedesk/internal/console/model"
	"gradedesk/internal/console/registry"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// TextTable renders the problem table for a terminal.
func TextTable(problems []model.ProblemSummary) string {
	if len(problems) == 0 {
		return "(no problems)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-8s %-24s %-12s %s\n", "#", "STATUS", "PROBLEM", "SCORE", "TESTS")
	for i, p := range problems {
		fmt.Fprintf(&b, "%-4d %-8s %-24s %-12s %d/%d (%s)\n",
			i+1,
			strings.ToUpper(ProblemState(p)),
			p.Title()+" ["+p.Name+"]",
			formatNumber(p.Score)+"/"+formatNumber(p.TotalPoints),
			p.Passed, p.TotalTests, Percent(p.Passed, p.TotalTests),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// TextProgress renders the progress line.
func TextProgress(st registry.Stats) string {
	return fmt.Sprintf("%d/%d Solved  Score: %s/%s", st.Solved, st.Total, formatNumber(st.Score), formatNumber(st.MaxScore))
}

// TextProblemList renders the numbered navigation list with a marker on current.
func TextProblemList(problems []model.ProblemSummary, current string) string {
	var b strings.Builder
	for i, p := range problems {
		marker := " "
		if p.Name == current {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %d. %s (%s)\n", marker, i+1, p.Title(), ProblemState(p))
	}
	return strings.TrimRight(b.String(), "\n")
}

// TextInfo renders the open problem's header, keywords and statement.
func TextInfo(info model.ProblemInfo, summary model.ProblemSummary, lang string) string {
	var b strings.Builder
	badge := "PENDING"
	if summary.HasRun {
		badge = "FAIL"
		if summary.FullyPassed() {
			badge = "PASS"
		}
	}
	fmt.Fprintf(&b, "%s  Points: %s  Timeout: %ss  [%s]\n", summary.Title(), formatNumber(info.Points), formatNumber(info.TimeoutSeconds()), badge)
	if len(info.AvailableLangs) > 1 {
		labels := make([]string, 0, len(info.AvailableLangs))
		for _, code := range info.AvailableLangs {
			label := LanguageName(code)
			if code == lang {
				label = "*" + label
			}
			labels = append(labels, label)
		}
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(labels, " | "))
	}
	if len(info.Forbidden) > 0 {
		fmt.Fprintf(&b, "禁止使用的關鍵字 (Forbidden): %s\n", strings.Join(info.Forbidden, ", "))
	}
	if len(info.Required) > 0 {
		fmt.Fprintf(&b, "必須使用的關鍵字 (Required): %s\n", strings.Join(info.Required, ", "))
	}
	body := info.DescriptionMD
	if body == "" {
		body = PlainText(info.DescriptionHTML)
	}
	if body != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(body))
	}
	return strings.TrimRight(b.String(), "\n")
}

// TextResults renders run details for a terminal.
func TextResults(details model.Details) string {
	if len(details) == 0 {
		return "無測試資料。"
	}
	var b strings.Builder
	for i, d := range details {
		fmt.Fprintf(&b, "測試 #%d: %s\n", i+1, d.Status())
		switch v := d.(type) {
		case model.PassDetail:
			writeField(&b, "輸入 (Input)", v.Input)
			writeField(&b, "輸出 (Output)", v.Output)
		case model.KeywordViolation:
			fmt.Fprintf(&b, "  禁止關鍵字: %s\n", orNone(v.Forbidden))
			fmt.Fprintf(&b, "  必須關鍵字: %s\n", orNone(v.Required))
			violations := v.Msg
			if len(v.Violations) > 0 {
				violations = strings.Join(v.Violations, "\n")
			}
			writeField(&b, "違規項目", violations)
		case model.CompileFailure:
			log := v.Log
			if log == "" {
				log = "無日誌"
			}
			writeField(&b, "編譯錯誤日誌", log)
		case model.OutputMismatch:
			writeField(&b, "預期輸出 (Expected)", v.Expected)
			writeField(&b, "實際輸出 (Got)", v.Got)
			writeField(&b, "輸入 (Input)", v.Input)
		case model.TimeLimit:
			fmt.Fprintf(&b, "  時間限制: %ss\n", formatNumber(v.Timeout))
			writeField(&b, "輸入 (Input)", v.Input)
		case model.RuntimeFailure:
			fmt.Fprintf(&b, "  執行錯誤: %s\n", v.Msg)
			if v.Stderr != "" {
				writeField(&b, "stderr", v.Stderr)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// TextPendingCases renders cases before a run.
func TextPendingCases(cases []model.PendingCase) string {
	if len(cases) == 0 {
		return "No test cases available."
	}
	var b strings.Builder
	for i, c := range cases {
		c = CleanCase(c)
		fmt.Fprintf(&b, "測試 #%d (Pending)\n", i+1)
		writeField(&b, "輸入 (Input)", c.Input)
		writeField(&b, "輸出 (Output)", c.Expected)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PlainText strips tags from an HTML fragment.
func PlainText(fragment string) string {
	text := tagPattern.ReplaceAllString(fragment, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimRight(value, "\n")
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(b, "  %s: %s\n", label, value)
		return
	}
	fmt.Fprintf(b, "  %s:\n", label)
	for _, line := range strings.Split(value, "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}

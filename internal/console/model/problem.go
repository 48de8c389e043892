// Package model holds the wire and session types shared by the console packages.
package model

// ProblemSummary is the registry entry for one problem.
// Created at list load and overwritten in place after each run.
type ProblemSummary struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
	TotalPoints float64 `json:"total_points"`
	Passed      int     `json:"passed"`
	TotalTests  int     `json:"total_tests"`
	HasRun      bool    `json:"has_run"`
	Details     Details `json:"details"`
}

// Title is the label shown to the user.
func (p ProblemSummary) Title() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// FullyPassed reports passed == total_tests with at least one test.
func (p ProblemSummary) FullyPassed() bool {
	return p.TotalTests > 0 && p.Passed == p.TotalTests
}

// Clone returns a copy that does not share the details slice.
func (p ProblemSummary) Clone() ProblemSummary {
	if p.Details != nil {
		p.Details = append(Details(nil), p.Details...)
	}
	return p
}

// ProblemList is the payload of GET /api/problems.
type ProblemList struct {
	AppTitle       string           `json:"app_title"`
	AppDescription string           `json:"app_description"`
	Problems       []ProblemSummary `json:"problems"`
}

// PendingCase is a test case shown before a run.
type PendingCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// ProblemInfo is the payload of GET /api/problem/{name}/info.
type ProblemInfo struct {
	Name            string        `json:"name"`
	DisplayName     string        `json:"display_name"`
	Points          float64       `json:"points"`
	Timeout         float64       `json:"timeout"`
	Forbidden       []string      `json:"forbidden"`
	Required        []string      `json:"required"`
	DescriptionHTML string        `json:"description_html"`
	DescriptionMD   string        `json:"description_md"`
	AvailableLangs  []string      `json:"available_langs"`
	TestCases       []PendingCase `json:"test_cases"`
}

// TimeoutSeconds falls back to one second when the backend omits it.
func (i ProblemInfo) TimeoutSeconds() float64 {
	if i.Timeout <= 0 {
		return 1
	}
	return i.Timeout
}

// RunResult is the payload of POST /api/run/{name}.
type RunResult struct {
	Score       float64 `json:"score"`
	TotalPoints float64 `json:"total_points"`
	PassedCount int     `json:"passed_count"`
	TotalCount  int     `json:"total_count"`
	FailCount   int     `json:"fail_count"`
	Details     Details `json:"details"`
}

// CodeFile is the payload of GET /api/code/{name}.
type CodeFile struct {
	Content string `json:"content"`
}

// SaveResult is the payload of POST /api/code/{name}.
type SaveResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PushResult is the payload of POST /api/git_push.
type PushResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DefaultCommitMessage is used when a push carries no message.
const DefaultCommitMessage = "GUI 自動提交"

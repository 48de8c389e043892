// Package view applies rendered fragments to named targets of the console page.
package view

import (
	"html/template"
)

// Target names one updatable region of the page.
type Target string

const (
	PageTitle       Target = "page-title"
	AppDescription  Target = "app-description"
	Theme           Target = "theme"
	TableBody       Target = "problem-table-body"
	Progress        Target = "progress-indicator"
	ProblemView     Target = "problem-view"
	ViewTitle       Target = "problem-view-title"
	HeaderInfo      Target = "problem-header-info"
	Description     Target = "problem-description-content"
	Results         Target = "results-container-view"
	LangSelector    Target = "lang-selector-container"
	ProblemList     Target = "problem-list-dropdown"
	PrevButton      Target = "btn-prev-prob"
	NextButton      Target = "btn-next-prob"
	SaveButton      Target = "btn-save-view"
	Editor          Target = "editor-container-view"
	EditorValue     Target = "editor-value"
	HelpOverlay     Target = "help-modal-overlay"
	HelpBody        Target = "help-modal-body"
	PushConfirm     Target = "push-confirm-modal"
	PushButton      Target = "btn-git"
	rowStatusPrefix        = "status-"
)

// RowStatus is the status cell of one table row.
func RowStatus(name string) Target {
	return Target(rowStatusPrefix + name)
}

// Surface is where the controller writes. Implementations must be safe for
// concurrent use.
type Surface interface {
	SetHTML(target Target, html template.HTML)
	SetText(target Target, text string)
	SetVisible(target Target, visible bool)
	SetEnabled(target Target, enabled bool)
	Alert(msg string)
}

package gateway

import (
	"context"
	"net/http"
	"net/url"

	"gradedesk/internal/console/model"
)

const (
	problemsPath = "/api/problems"
	runPath      = "/api/run/"
	codePath     = "/api/code/"
	pushPath     = "/api/git_push"
	helpPath     = "/static/help.md"
)

type saveCodeRequest struct {
	Content string `json:"content"`
}

type pushRequest struct {
	CommitMessage string `json:"commit_message"`
}

// ListProblems fetches the problem list and app metadata.
func (c *Client) ListProblems(ctx context.Context) (*model.ProblemList, error) {
	var out model.ProblemList
	if err := c.getJSON(ctx, problemsPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProblemInfo fetches metadata for one problem. An empty lang omits the query.
func (c *Client) ProblemInfo(ctx context.Context, name, lang string) (*model.ProblemInfo, error) {
	path := "/api/problem/" + url.PathEscape(name) + "/info"
	if lang != "" {
		path += "?" + url.Values{"lang": []string{lang}}.Encode()
	}
	var out model.ProblemInfo
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Run asks the backend to grade one problem.
func (c *Client) Run(ctx context.Context, name string) (*model.RunResult, error) {
	var out model.RunResult
	if err := c.postJSON(ctx, runPath+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Code fetches the stored source of one problem.
func (c *Client) Code(ctx context.Context, name string) (string, error) {
	var out model.CodeFile
	if err := c.getJSON(ctx, codePath+url.PathEscape(name), &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// SaveCode stores source for one problem. A success=false answer is returned
// as a result, not an error.
func (c *Client) SaveCode(ctx context.Context, name, content string) (*model.SaveResult, error) {
	var out model.SaveResult
	if err := c.postJSON(ctx, codePath+url.PathEscape(name), saveCodeRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Push commits and pushes the workspace. An empty message uses the default.
func (c *Client) Push(ctx context.Context, message string) (*model.PushResult, error) {
	if message == "" {
		message = model.DefaultCommitMessage
	}
	var out model.PushResult
	if err := c.postJSON(ctx, pushPath, pushRequest{CommitMessage: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HelpMarkdown fetches the raw help document.
func (c *Client) HelpMarkdown(ctx context.Context) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, helpPath, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

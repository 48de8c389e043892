package model

import (
	"encoding/json"
	"fmt"
)

// Status is the outcome tag of one test detail.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusTLE   Status = "TLE"
	StatusError Status = "ERROR"
)

// Case names the backend uses for the non-test FAIL variants.
const (
	CaseKeywordCheck = "Keyword Check"
	CaseCompilation  = "Compilation"
)

// TestDetail is one entry of a run's details list.
// Concrete types: PassDetail, OutputMismatch, KeywordViolation,
// CompileFailure, TimeLimit, RuntimeFailure, UnknownDetail.
type TestDetail interface {
	Status() Status
	CaseName() string
}

type PassDetail struct {
	Case   string `json:"case"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

type OutputMismatch struct {
	Case     string `json:"case"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

type KeywordViolation struct {
	Case       string   `json:"case"`
	Msg        string   `json:"msg"`
	Violations []string `json:"violations"`
	Forbidden  []string `json:"forbidden"`
	Required   []string `json:"required"`
}

type CompileFailure struct {
	Case string `json:"case"`
	Msg  string `json:"msg"`
	Log  string `json:"log"`
}

type TimeLimit struct {
	Case    string  `json:"case"`
	Input   string  `json:"input"`
	Timeout float64 `json:"timeout"`
}

type RuntimeFailure struct {
	Case   string `json:"case"`
	Msg    string `json:"msg"`
	Stderr string `json:"stderr"`
}

// UnknownDetail keeps entries whose status this console does not know.
type UnknownDetail struct {
	Case      string `json:"case"`
	RawStatus string `json:"status"`
}

func (PassDetail) Status() Status       { return StatusPass }
func (OutputMismatch) Status() Status   { return StatusFail }
func (KeywordViolation) Status() Status { return StatusFail }
func (CompileFailure) Status() Status   { return StatusFail }
func (TimeLimit) Status() Status        { return StatusTLE }
func (RuntimeFailure) Status() Status   { return StatusError }
func (d UnknownDetail) Status() Status  { return Status(d.RawStatus) }

func (d PassDetail) CaseName() string       { return d.Case }
func (d OutputMismatch) CaseName() string   { return d.Case }
func (d KeywordViolation) CaseName() string { return d.Case }
func (d CompileFailure) CaseName() string   { return d.Case }
func (d TimeLimit) CaseName() string        { return d.Case }
func (d RuntimeFailure) CaseName() string   { return d.Case }
func (d UnknownDetail) CaseName() string    { return d.Case }

// Details decodes the backend's details array into TestDetail variants.
type Details []TestDetail

type detailHeader struct {
	Status Status `json:"status"`
	Case   string `json:"case"`
}

// UnmarshalJSON dispatches each element on its status and case fields.
func (d *Details) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	if raws == nil {
		*d = nil
		return nil
	}
	out := make(Details, 0, len(raws))
	for i, raw := range raws {
		item, err := DecodeDetail(raw)
		if err != nil {
			return fmt.Errorf("decode detail %d failed: %w", i, err)
		}
		out = append(out, item)
	}
	*d = out
	return nil
}

// MarshalJSON writes the variants back with their status tag.
func (d Details) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	out := make([]map[string]interface{}, 0, len(d))
	for _, item := range d {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		fields["status"] = string(item.Status())
		out = append(out, fields)
	}
	return json.Marshal(out)
}

// DecodeDetail decodes a single detail object.
func DecodeDetail(raw json.RawMessage) (TestDetail, error) {
	var head detailHeader
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Status {
	case StatusPass:
		return decodeAs[PassDetail](raw)
	case StatusFail:
		switch head.Case {
		case CaseKeywordCheck:
			return decodeAs[KeywordViolation](raw)
		case CaseCompilation:
			return decodeAs[CompileFailure](raw)
		default:
			return decodeAs[OutputMismatch](raw)
		}
	case StatusTLE:
		return decodeAs[TimeLimit](raw)
	case StatusError:
		return decodeAs[RuntimeFailure](raw)
	default:
		return UnknownDetail{Case: head.Case, RawStatus: string(head.Status)}, nil
	}
}

func decodeAs[T TestDetail](raw json.RawMessage) (TestDetail, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

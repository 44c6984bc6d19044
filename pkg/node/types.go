package node

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Data entry types as the node reports them.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeBinary  = "binary"
)

// DataEntry is one key of a dApp account's data storage.
type DataEntry struct {
	Key   string          `json:"key"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// String renders the value as text: strings unquoted, integers and booleans
// in their JSON form, binaries with their "base64:" prefix.
func (e DataEntry) String() string {
	var s string
	if err := json.Unmarshal(e.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(e.Value))
}

// Int returns the value of an integer entry. Integers above 2^53 arrive as
// JSON numbers, so they are parsed from the raw text rather than via float64.
func (e DataEntry) Int() (int64, bool) {
	if e.Type != TypeInteger {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(e.Value)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// EvaluateResult is the node's answer to a script evaluation. When the node
// rejects the call, Error holds the first line of its message and Raw the
// full body.
type EvaluateResult struct {
	Raw        map[string]any
	Error      string
	ErrorCode  int
	Complexity int
}

// Failed reports whether the node rejected the evaluation.
func (r *EvaluateResult) Failed() bool { return r.Error != "" }

// Value extracts result.value, the common shape of expression evaluations.
func (r *EvaluateResult) Value() any {
	res, ok := r.Raw["result"].(map[string]any)
	if !ok {
		return nil
	}
	return res["value"]
}

// CompileResult is the output of /utils/script/compileCode.
type CompileResult struct {
	Script     string `json:"script"`
	Complexity int    `json:"complexity"`
	ExtraFee   int64  `json:"extraFee"`
}

// ScriptInfo describes the script installed on an account.
type ScriptInfo struct {
	Address    string `json:"address"`
	Script     string `json:"script"`
	Complexity int    `json:"complexity"`
	ExtraFee   int64  `json:"extraFee"`
}

// HasScript reports whether the account is a dApp.
func (s *ScriptInfo) HasScript() bool { return s.Script != "" }

// BroadcastResult is the accepted transaction echoed by the node.
type BroadcastResult struct {
	ID   string         `json:"id"`
	Type int            `json:"type"`
	Raw  map[string]any `json:"-"`
}

// errorBody is how the node reports failures.
type errorBody struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// firstLine trims node messages that carry a multi-line script trace.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

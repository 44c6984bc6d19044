package harness

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/uhyunpark/ridematcher/pkg/node"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

// decodeNode decodes the way the node client does, keeping numbers as text.
func decodeNode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func decodeYAML(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, yaml.Unmarshal([]byte(s), &v))
	return v
}

func TestMatchObject(t *testing.T) {
	actual := decodeJSON(t, `{
		"data": [{"key": "a", "type": "integer", "value": 5}, {"key": "b", "type": "string", "value": "x"}],
		"transfers": [],
		"issues": [{"name": "YES", "quantity": 100, "decimals": 8}]
	}`)

	tests := []struct {
		name     string
		expected string
		wantErr  string
	}{
		{"empty object", `{}`, ""},
		{"subset of element keys", "data:\n  - key: a\n    value: 5\n  - key: b\n", ""},
		{"nested numbers compare by value", "issues:\n  - quantity: 100\n", ""},
		{"empty array", "transfers: []", ""},
		{"wrong value", "data:\n  - key: a\n    value: 6\n  - {}\n", "$.data[0].value: expected 6, got 5"},
		{"length differs", "data:\n  - key: a\n", "$.data: expected 1 elements, got 2"},
		{"missing key", "leases: []", "$.leases: missing"},
		{"type differs", "transfers: {}", "$.transfers: expected object, got array(0)"},
		{"string vs number", "data:\n  - value: \"5\"\n  - {}\n", `$.data[0].value: expected "5", got 5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MatchObject(actual, decodeYAML(t, tt.expected))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestMatchObjectLargeIntegers(t *testing.T) {
	actual := decodeNode(t, `{"transfers": [{"amount": 9007199254740993, "asset": null}], "fee": 0.5}`)

	err := MatchObject(actual, decodeYAML(t, "transfers:\n  - amount: 9007199254740992\n"))
	assert.EqualError(t, err, "$.transfers[0].amount: expected 9007199254740992, got 9007199254740993")

	assert.NoError(t, MatchObject(actual, decodeYAML(t, "transfers:\n  - amount: 9007199254740993\n")))
	assert.NoError(t, MatchObject(actual, map[string]any{"transfers": []any{map[string]any{"amount": uint64(9007199254740993)}}}))
	assert.NoError(t, MatchObject(actual, decodeYAML(t, "fee: 0.5")))
	assert.Error(t, MatchObject(actual, decodeYAML(t, "fee: 1")))
	assert.EqualError(t, MatchObject(actual, decodeYAML(t, "fee: \"0.5\"")), `$.fee: expected "0.5", got 0.5`)
}

func TestMatchObjectNull(t *testing.T) {
	assert.NoError(t, MatchObject(decodeJSON(t, `{"asset": null}`), decodeYAML(t, "asset: null")))
	assert.Error(t, MatchObject(decodeJSON(t, `{"asset": "x"}`), decodeYAML(t, "asset: null")))
}

const suiteSrc = `
name: prediction
cases:
  - name: new-event
    description: New event to existing group
    tx:
      type: 16
      fee: {{ add (num "%s__eventCreationFeeAmount") 500000 }}
      call:
        function: newEvents
        args:
          - type: integer
            value: {{ num "%s__lastGroupIndex" }}
          - type: string
            value: {{ quote (state "%s__feeGetter") }}
    expect:
      result:
        data:
          - key: "%s__lastEventIndex"
            value: {{ add (state "%s__lastEventIndex") 1 }}
  - name: closed-event
    dApp: 3Mother
    tx:
      type: 16
    expect:
      error: event is closed
`

func testData() TemplateData {
	return TemplateData{
		DApp: "3Mprediction",
		State: map[string]string{
			"%s__eventCreationFeeAmount": "100000000",
			"%s__lastGroupIndex":         "2",
			"%s__lastEventIndex":         "7",
			"%s__feeGetter":              "3MfeeGetter",
		},
	}
}

func TestParseSuite(t *testing.T) {
	s, err := ParseSuite("prediction.yaml", []byte(suiteSrc), testData())
	require.NoError(t, err)
	require.Len(t, s.Cases, 2)

	c := s.Cases[0]
	assert.Equal(t, "3Mprediction", c.DApp)
	assert.Equal(t, "3Mprediction", c.Tx["dApp"])
	assert.Equal(t, 100500000, c.Tx["fee"])
	args := c.Tx["call"].(map[string]any)["args"].([]any)
	assert.Equal(t, 2, args[0].(map[string]any)["value"])
	assert.Equal(t, "3MfeeGetter", args[1].(map[string]any)["value"])
	assert.False(t, c.Expect.WantsError())

	assert.Equal(t, "3Mother", s.Cases[1].DApp)
	assert.Equal(t, "event is closed", s.Cases[1].Expect.Error)
}

func TestParseSuiteErrors(t *testing.T) {
	_, err := ParseSuite("bad.yaml", []byte(`cases: [{tx: {value: {{ add "x" 1 }}}}]`), testData())
	assert.ErrorContains(t, err, "not an integer")

	_, err = ParseSuite("nodapp.yaml", []byte("cases:\n  - tx: {type: 16}\n"), TemplateData{})
	assert.ErrorContains(t, err, "has no dApp")

	_, err = ParseSuite("notx.yaml", []byte("cases:\n  - name: a\n"), testData())
	assert.ErrorContains(t, err, "has no tx")
}

func TestCheck(t *testing.T) {
	ok := &node.EvaluateResult{Raw: map[string]any{"stateChanges": map[string]any{"data": []any{}}}}
	rejected := &node.EvaluateResult{Error: "Error while executing dApp: event is closed"}

	assert.Equal(t, "", Check(Expect{}, ok, nil))
	assert.Equal(t, "", Check(Expect{Error: "event is closed"}, rejected, nil))
	assert.Equal(t, "expected error, got result", Check(Expect{Error: "x"}, ok, nil))
	assert.Contains(t, Check(Expect{}, rejected, nil), "expected result, got error")
	assert.Contains(t, Check(Expect{Error: "group"}, rejected, nil), `expected error containing "group"`)
	assert.Equal(t, "$.data: expected 1 elements, got 0",
		Check(Expect{Result: map[string]any{"data": []any{map[string]any{}}}}, ok, nil))
	assert.Contains(t, Check(Expect{}, nil, errors.New("timeout")), "timeout")
}

type fakeEvaluator struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	starts   []time.Time
}

func (f *fakeEvaluator) Evaluate(_ context.Context, dApp string, body any) (*node.EvaluateResult, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	if n > f.peak {
		f.peak = n
	}
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	tx := body.(map[string]any)
	if fn, _ := tx["function"].(string); strings.HasPrefix(fn, "fail") {
		return &node.EvaluateResult{Error: "boom"}, nil
	}
	return &node.EvaluateResult{Raw: map[string]any{"stateChanges": map[string]any{}}}, nil
}

func TestRunner(t *testing.T) {
	cases := []Case{
		{Name: "a", DApp: "d", Tx: map[string]any{"function": "ok"}},
		{Name: "b", DApp: "d", Tx: map[string]any{"function": "fail"}, Expect: Expect{Error: "boom"}},
		{Name: "c", DApp: "d", Tx: map[string]any{"function": "fail"}},
		{Name: "d", DApp: "d", Tx: map[string]any{"function": "ok"}},
		{Name: "e", DApp: "d", Tx: map[string]any{"function": "ok"}, Expect: Expect{Error: "x"}},
	}
	ev := &fakeEvaluator{}
	r := NewRunner(ev, 2, 10*time.Millisecond, nil)

	rep, err := r.Run(context.Background(), cases)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Total)
	assert.Equal(t, 3, rep.Passed)
	assert.Equal(t, 2, rep.Failed)
	assert.False(t, rep.OK())
	assert.Equal(t, "Total tests: 5, Passed: 3, Failed: 2", rep.Summary())
	assert.Equal(t, "c", rep.Results[2].Name)
	assert.False(t, rep.Results[2].Passed)

	assert.LessOrEqual(t, ev.peak, int32(2))
	// Five starts spaced by the limiter span at least four intervals.
	require.Len(t, ev.starts, 5)
	assert.GreaterOrEqual(t, ev.starts[4].Sub(ev.starts[0]), 35*time.Millisecond)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(&fakeEvaluator{}, 1, time.Hour, nil)
	_, err := r.Run(ctx, []Case{{Name: "a", DApp: "d", Tx: map[string]any{}}, {Name: "b", DApp: "d", Tx: map[string]any{}}})
	assert.Error(t, err)
}

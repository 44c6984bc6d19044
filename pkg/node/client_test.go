package node

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithRetries(0))
}

func TestAddressData(t *testing.T) {
	// No Content-Type on any of these replies: bodies are decoded regardless.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/addresses/data/3Mfactory", r.URL.Path)
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("matches") != "":
			assert.Equal(t, ".*eventStatus.*", r.URL.Query().Get("matches"))
			io.WriteString(w, `[{"key":"%s%s__eventStatus__42","type":"integer","value":1}]`)
		case r.Method == http.MethodGet:
			io.WriteString(w, `[{"key":"%s__matcherPublicKey","type":"string","value":"9Qv"},{"key":"big","type":"integer","value":9007199254740993}]`)
		case r.Method == http.MethodPost:
			var body struct{ Keys []string }
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"%s__treasuryAddress"}, body.Keys)
			io.WriteString(w, `[{"key":"%s__treasuryAddress","type":"string","value":"3Mtreasury"}]`)
		}
	})
	ctx := context.Background()

	all, err := c.AddressData(ctx, "3Mfactory")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "9Qv", all[0].String())
	n, ok := all[1].Int()
	assert.True(t, ok)
	assert.Equal(t, int64(9007199254740993), n)

	byKeys, err := c.AddressDataByKeys(ctx, "3Mfactory", []string{"%s__treasuryAddress"})
	require.NoError(t, err)
	require.Len(t, byKeys, 1)
	assert.Equal(t, "3Mtreasury", byKeys[0].String())

	matching, err := c.AddressDataMatching(ctx, "3Mfactory", ".*eventStatus.*")
	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, "1", matching[0].String())
}

func TestAddressDataHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":102,"message":"invalid address\nat line 1"}`)
	})
	_, err := c.AddressData(context.Background(), "bad")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 102, apiErr.Code)
	assert.Equal(t, "invalid address", apiErr.Message)
}

func TestEvaluate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/utils/script/evaluate/3Mpool", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["expr"] == "fail()" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":306,"message":"Error while executing dApp: boom\nLog:\n x = 1","expr":"fail()"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		io.WriteString(w, `{"result":{"type":"Int","value":9007199254740993},"complexity":12,"expr":"f()"}`)
	})
	ctx := context.Background()

	ok, err := c.EvaluateExpr(ctx, "3Mpool", "f()")
	require.NoError(t, err)
	assert.False(t, ok.Failed())
	assert.Equal(t, 12, ok.Complexity)
	assert.Equal(t, json.Number("9007199254740993"), ok.Value())

	failed, err := c.EvaluateExpr(ctx, "3Mpool", "fail()")
	require.NoError(t, err)
	assert.True(t, failed.Failed())
	assert.Equal(t, "Error while executing dApp: boom", failed.Error)
	assert.Equal(t, 306, failed.ErrorCode)
}

func TestEvaluateNonJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	})
	_, err := c.EvaluateExpr(context.Background(), "3Mpool", "f()")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestCompileAndScriptInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/utils/script/compileCode":
			src, _ := io.ReadAll(r.Body)
			assert.Equal(t, "{-# STDLIB_VERSION 6 #-}", string(src))
			io.WriteString(w, `{"script":"base64:AAIF","complexity":3,"extraFee":400000}`)
		case "/addresses/scriptInfo/3Mspot":
			w.Header().Set("Content-Type", "text/plain")
			io.WriteString(w, `{"address":"3Mspot","script":"base64:AAIF","complexity":3,"extraFee":400000}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	compiled, err := c.CompileCode(ctx, "{-# STDLIB_VERSION 6 #-}")
	require.NoError(t, err)
	assert.Equal(t, "base64:AAIF", compiled.Script)

	info, err := c.ScriptInfo(ctx, "3Mspot")
	require.NoError(t, err)
	assert.True(t, info.HasScript())
	assert.Equal(t, compiled.Script, info.Script)
}

func TestBroadcast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/broadcast", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"type":13,"id":"tx1"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"type":13,"id":"tx1","fee":1400000}`)
	})
	res, err := c.Broadcast(context.Background(), json.RawMessage(`{"type":13,"id":"tx1"}`))
	require.NoError(t, err)
	assert.Equal(t, "tx1", res.ID)
	assert.Equal(t, 13, res.Type)
	assert.Equal(t, json.Number("1400000"), res.Raw["fee"])
}

func TestAddressDataContentTypes(t *testing.T) {
	for _, ct := range []string{"", "application/json", "text/plain; charset=utf-8", "application/octet-stream"} {
		t.Run("content-type "+ct, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if ct != "" {
					w.Header().Set("Content-Type", ct)
				}
				io.WriteString(w, `[{"key":"%s__matcherPublicKey","type":"string","value":"9Qv"}]`)
			})
			entries, err := c.AddressData(context.Background(), "3Mfactory")
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "9Qv", entries[0].String())
		})
	}
}

func TestAddressDataMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>gateway</html>")
	})
	_, err := c.AddressData(context.Background(), "3Mfactory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address data: decode response")
}

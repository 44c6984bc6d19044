// Package node is a client for the blockchain node REST API used by the
// matcher: account data storage, script evaluation and compilation, and
// transaction broadcast.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// APIError is a non-2xx response from the node.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("node: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("node: http %d", e.Status)
}

type Client struct {
	client *resty.Client
	log    *zap.SugaredLogger
}

type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.SetTimeout(d) }
}

// WithRetries retries transport errors and 429/5xx responses.
func WithRetries(n int) Option {
	return func(c *Client) { c.client.SetRetryCount(n) }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return d, nil
					}
				}
			}
			return 0, nil
		})

	c := &Client{client: client, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the node the client talks to.
func (c *Client) BaseURL() string { return c.client.BaseURL }

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	return r
}

// check turns transport failures and non-2xx responses into errors.
func check(resp *resty.Response, err error, what string) error {
	if err != nil {
		return errors.Wrap(err, what)
	}
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	var body errorBody
	if json.Unmarshal(resp.Body(), &body) == nil {
		apiErr.Code = body.Error
		apiErr.Message = firstLine(body.Message)
	} else {
		apiErr.Message = firstLine(strings.TrimSpace(string(resp.Body())))
	}
	return errors.WithMessage(apiErr, what)
}

// decode reads a 2xx body as JSON whatever Content-Type came with it; proxies
// in front of nodes often send text/plain. Numbers stay json.Number so amounts
// above 2^53 survive untyped decoding.
func decode(resp *resty.Response, what string, out any) error {
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decode response", what)
	}
	return nil
}

// AddressData returns every data entry of an account.
func (c *Client) AddressData(ctx context.Context, address string) ([]DataEntry, error) {
	var out []DataEntry
	resp, err := c.newRequest(ctx).
		SetPathParam("address", address).
		Get("/addresses/data/{address}")
	if err := check(resp, err, "address data"); err != nil {
		return nil, err
	}
	if err := decode(resp, "address data", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddressDataByKeys fetches only the named keys. Missing keys are absent from
// the result.
func (c *Client) AddressDataByKeys(ctx context.Context, address string, keys []string) ([]DataEntry, error) {
	var out []DataEntry
	resp, err := c.newRequest(ctx).
		SetPathParam("address", address).
		SetBody(map[string][]string{"keys": keys}).
		Post("/addresses/data/{address}")
	if err := check(resp, err, "address data by keys"); err != nil {
		return nil, err
	}
	if err := decode(resp, "address data by keys", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddressDataMatching fetches the entries whose key matches a regular expression.
func (c *Client) AddressDataMatching(ctx context.Context, address, pattern string) ([]DataEntry, error) {
	var out []DataEntry
	resp, err := c.newRequest(ctx).
		SetPathParam("address", address).
		SetQueryParam("matches", pattern).
		Get("/addresses/data/{address}")
	if err := check(resp, err, "address data matching"); err != nil {
		return nil, err
	}
	if err := decode(resp, "address data matching", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate runs an expression ({"expr": ...}) or an invoke body against a dApp
// without broadcasting. A node-side rejection is reported in the result, not
// as an error; only transport failures and non-JSON bodies are errors.
func (c *Client) Evaluate(ctx context.Context, dApp string, body any) (*EvaluateResult, error) {
	resp, err := c.newRequest(ctx).
		SetPathParam("address", dApp).
		SetBody(body).
		Post("/utils/script/evaluate/{address}")
	if err != nil {
		return nil, errors.Wrap(err, "evaluate")
	}

	raw := map[string]any{}
	if err := decode(resp, "evaluate", &raw); err != nil {
		if httpErr := check(resp, nil, "evaluate"); httpErr != nil {
			return nil, httpErr
		}
		return nil, err
	}

	res := &EvaluateResult{Raw: raw}
	if code, ok := intField(raw, "error"); ok {
		res.ErrorCode = code
		msg, _ := raw["message"].(string)
		res.Error = firstLine(msg)
		if res.Error == "" {
			res.Error = fmt.Sprintf("node error %d", res.ErrorCode)
		}
		c.log.Debugw("evaluate_rejected", "dapp", dApp, "error", res.Error)
	} else if !resp.IsSuccess() {
		return nil, check(resp, nil, "evaluate")
	}
	if cx, ok := intField(raw, "complexity"); ok {
		res.Complexity = cx
	}
	return res, nil
}

// EvaluateExpr evaluates a single expression such as getAllUserInfo("addr").
func (c *Client) EvaluateExpr(ctx context.Context, dApp, expr string) (*EvaluateResult, error) {
	return c.Evaluate(ctx, dApp, map[string]string{"expr": expr})
}

// CompileCode compiles script source into the base64 form SetScript expects.
func (c *Client) CompileCode(ctx context.Context, source string) (*CompileResult, error) {
	var out CompileResult
	resp, err := c.newRequest(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(source).
		Post("/utils/script/compileCode")
	if err := check(resp, err, "compile"); err != nil {
		return nil, err
	}
	if err := decode(resp, "compile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScriptInfo returns the script currently installed on an account.
func (c *Client) ScriptInfo(ctx context.Context, address string) (*ScriptInfo, error) {
	var out ScriptInfo
	resp, err := c.newRequest(ctx).
		SetPathParam("address", address).
		Get("/addresses/scriptInfo/{address}")
	if err := check(resp, err, "script info"); err != nil {
		return nil, err
	}
	if err := decode(resp, "script info", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Broadcast submits a signed transaction in its JSON form.
func (c *Client) Broadcast(ctx context.Context, tx json.RawMessage) (*BroadcastResult, error) {
	resp, err := c.newRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody([]byte(tx)).
		Post("/transactions/broadcast")
	if err := check(resp, err, "broadcast"); err != nil {
		return nil, err
	}
	var out BroadcastResult
	if err := decode(resp, "broadcast", &out); err != nil {
		return nil, err
	}
	if err := decode(resp, "broadcast", &out.Raw); err != nil {
		return nil, err
	}
	c.log.Infow("tx_broadcast", "id", out.ID, "type", out.Type)
	return &out, nil
}

func intField(raw map[string]any, key string) (int, bool) {
	n, ok := raw[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

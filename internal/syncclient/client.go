// Package syncclient sends field updates to the owning server and classifies
// each response as a success, a validation error or a transport error.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/types"
)

// GenericErrorMessage is shown for any failure the server did not explain.
const GenericErrorMessage = "The change could not be saved. Please try again."

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Kind classifies a submit outcome.
type Kind int

const (
	Success Kind = iota
	ValidationError
	TransportError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationError:
		return "validation_error"
	case TransportError:
		return "transport_error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the classified response. Value is set for Success; Display is
// set when the server pre-rendered the display representation. Errors is
// non-empty for the two failure kinds.
type Result struct {
	Kind    Kind
	Value   types.Value
	Display *string
	Errors  []string
	Status  int
	Err     error
}

// Config configures a Client.
type Config struct {
	// Method is PUT or PATCH.
	Method  string
	Timeout time.Duration
	// BaseURL resolves relative update URLs.
	BaseURL string
	Header  http.Header
}

// Client issues update requests.
type Client struct {
	http    *http.Client
	method  string
	timeout time.Duration
	base    *url.URL
	header  http.Header
	log     zerolog.Logger
}

// New creates a Client. A nil hc uses http.DefaultClient.
func New(hc *http.Client, cfg Config, log zerolog.Logger) (*Client, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	method := strings.ToUpper(cfg.Method)
	switch method {
	case "":
		method = http.MethodPut
	case http.MethodPut, http.MethodPatch:
	default:
		return nil, fmt.Errorf("syncclient: unsupported method %q", cfg.Method)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{http: hc, method: method, timeout: timeout, header: cfg.Header, log: log}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("syncclient: base url: %w", err)
		}
		c.base = u
	}
	return c, nil
}

// Submit sends value for d and classifies the response. It never returns a
// Go error: every failure is folded into the Result.
func (c *Client) Submit(ctx context.Context, d *types.FieldDescriptor, value string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target, err := c.resolve(d.UpdateURL)
	if err != nil {
		return transport(0, err)
	}

	form := url.Values{}
	form.Set(d.ParamKey(), value)
	req, err := http.NewRequestWithContext(ctx, c.method, target, strings.NewReader(form.Encode()))
	if err != nil {
		return transport(0, fmt.Errorf("building request: %w", err))
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/plain;q=0.5")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("field", d.ID).Str("url", target).Msg("syncclient: request failed")
		return transport(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return transport(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	res := classify(resp.StatusCode, resp.Header.Get("Content-Type"), body, value)
	c.log.Debug().Str("field", d.ID).Str("method", c.method).Str("url", target).
		Int("status", resp.StatusCode).Stringer("kind", res.Kind).Dur("took", time.Since(start)).
		Msg("syncclient: update")
	return res
}

func (c *Client) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("update url %q: %w", raw, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("update url %q is relative and no base url is set", raw)
	}
	return u.String(), nil
}

func transport(status int, err error) Result {
	return Result{Kind: TransportError, Status: status, Errors: []string{GenericErrorMessage}, Err: err}
}

// ErrUnexpectedResponse marks responses that fit no known shape.
var ErrUnexpectedResponse = errors.New("unexpected response")

// notValidation lists client errors that say nothing about the submitted
// value: a wrong URL or method, or a request the server did not take.
var notValidation = map[int]bool{
	http.StatusNotFound:         true,
	http.StatusMethodNotAllowed: true,
	http.StatusRequestTimeout:   true,
	http.StatusTooManyRequests:  true,
}

func classify(status int, contentType string, body []byte, submitted string) Result {
	mt := mediaType(contentType)
	isJSON := mt == "application/json" || strings.HasSuffix(mt, "+json")
	switch {
	case status == http.StatusNoContent, status >= 200 && status < 300 && len(bytes.TrimSpace(body)) == 0:
		return Result{Kind: Success, Value: types.Some(submitted), Status: status}

	case status >= 200 && status < 300:
		if !isJSON {
			return Result{Kind: Success, Value: types.Some(string(body)), Status: status}
		}
		v, display, err := decodeSuccess(body)
		if err != nil {
			return transport(status, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err))
		}
		return Result{Kind: Success, Value: v, Display: display, Status: status}

	case notValidation[status]:
		return transport(status, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status))

	case status >= 400 && status < 500:
		msgs, err := decodeErrors(body, isJSON, mt == "text/plain" || mt == "")
		if err != nil {
			return transport(status, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err))
		}
		return Result{Kind: ValidationError, Errors: msgs, Status: status}
	}
	return transport(status, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status))
}

func mediaType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "invalid"
	}
	return mt
}

// successBody is the object form of a success payload.
type successBody struct {
	Value     json.RawMessage `json:"value"`
	DisplayAs *string         `json:"display_as"`
	Display   *string         `json:"display"`
}

func decodeSuccess(body []byte) (types.Value, *string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var sb successBody
		if err := json.Unmarshal(trimmed, &sb); err != nil {
			return types.Nil, nil, err
		}
		if sb.Value == nil {
			return types.Nil, nil, errors.New(`success object without "value"`)
		}
		var v types.Value
		if err := json.Unmarshal(sb.Value, &v); err != nil {
			return types.Nil, nil, err
		}
		display := sb.DisplayAs
		if display == nil {
			display = sb.Display
		}
		return v, display, nil
	}
	var v types.Value
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return types.Nil, nil, err
	}
	return v, nil, nil
}

// decodeErrors normalizes every accepted error shape into an ordered,
// non-empty message list.
func decodeErrors(body []byte, isJSON, isText bool) ([]string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty error body")
	}
	if !isJSON && !json.Valid(trimmed) {
		if !isText {
			return nil, errors.New("error body is neither JSON nor plain text")
		}
		return []string{string(trimmed)}, nil
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	if obj, ok := raw.(map[string]any); ok {
		if inner, ok := obj["errors"]; ok {
			raw = inner
		} else if inner, ok := obj["error"]; ok {
			raw = inner
		}
	}
	msgs := flatten("", raw)
	if len(msgs) == 0 {
		return nil, errors.New("no error messages in body")
	}
	return msgs, nil
}

// flatten turns strings, arrays and attribute-keyed objects into messages.
// Object keys are prefixed ("last_name has invalid length") and visited in
// key order.
func flatten(prefix string, v any) []string {
	label := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + " " + s
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{label(t)}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, flatten(prefix, item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			p := k
			if prefix != "" {
				p = prefix + " " + k
			}
			out = append(out, flatten(p, t[k])...)
		}
		return out
	}
	return nil
}

// Package handlers implements the built-in Block handlers: fetch, code,
// math, string, array, object, date, normalize, sleep, agent, and location.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/security"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// FetchHandler implements the "fetch" block type: an outbound HTTP request
// with SSRF protection, status-pattern matching, and exponential-backoff
// retry.
type FetchHandler struct {
	Security *security.HTTPSecurityConfig
	DNSCache *security.DNSCache
	Client   *http.Client
}

// NewFetchHandler builds a FetchHandler with SSRF protection enabled by
// default, reusing pkg/security's HTTPSecurityConfig/DNSCache/
// SecureDialContext.
func NewFetchHandler() *FetchHandler {
	cfg := security.DefaultHTTPSecurityConfig()
	cfg.AllowedSchemes = []string{"http", "https"}
	cfg.MaxRedirects = 0
	dnsCache := security.NewDNSCache(30 * time.Second)

	transport := &http.Transport{
		DialContext: cfg.SecureDialContext(dnsCache),
	}

	return &FetchHandler{
		Security: cfg,
		DNSCache: dnsCache,
		Client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

const (
	defaultFetchTimeoutMs         = 30000
	defaultFetchMaxRetries        = 1
	defaultFetchRetryDelayMs      = 1000
	defaultFetchBackoffMultiplier = 2.0
)

func (h *FetchHandler) Handle(ctx context.Context, block workflow.Block, wctx *workflow.WorkflowContext) (workflow.BlockResult, error) {
	inputs := wctx.ResolveInputs(block.Logic)

	url, _ := inputs["fetch_url"].(string)
	if url == "" {
		return workflow.BlockResult{}, &errors.ValidationError{Field: "fetch_url", Message: "fetch block requires a fetch_url input"}
	}

	method := strings.ToUpper(stringOr(inputs["fetch_method"], "GET"))
	body := fetchBody(inputs["fetch_body"])

	timeoutMs := intOr(inputs["fetch_timeout_ms"], defaultFetchTimeoutMs)
	maxRetries := intOr(inputs["fetch_max_retries"], defaultFetchMaxRetries)
	retryDelay := time.Duration(intOr(inputs["fetch_retry_delay_ms"], defaultFetchRetryDelayMs)) * time.Millisecond
	backoffMultiplier := floatOr(inputs["fetch_backoff_multiplier"], defaultFetchBackoffMultiplier)
	acceptedStatus := stringSliceOr(inputs["fetch_accepted_status_codes"], []string{"2xx"})

	var lastErr error
	var resp *http.Response
	delay := retryDelay

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return workflow.BlockResult{}, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * backoffMultiplier)
		}

		if err := h.Security.ValidateURL(url); err != nil {
			// SSRF-rejected requests never retry: the target is
			// categorically disallowed, not transiently unavailable.
			return workflow.BlockResult{}, fmt.Errorf("blocked by SSRF policy: %w", err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		var bodyReader io.Reader
		if body != "" {
			bodyReader = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
		if err != nil {
			cancel()
			return workflow.BlockResult{}, fmt.Errorf("build request: %w", err)
		}
		applyHeaders(req, inputs["fetch_headers"])

		resp, lastErr = h.Client.Do(req)
		if lastErr != nil {
			cancel()
			continue
		}

		if !statusMatchesAny(resp.StatusCode, acceptedStatus) {
			resp.Body.Close()
			cancel()
			lastErr = fmt.Errorf("response status %d did not match accepted patterns %v", resp.StatusCode, acceptedStatus)
			continue
		}

		defer cancel()
		break
	}

	if lastErr != nil {
		return workflow.BlockResult{}, lastErr
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, h.Security.MaxResponseSize))
	if err != nil {
		return workflow.BlockResult{}, fmt.Errorf("read response body: %w", err)
	}

	result := map[string]any{
		"status":     resp.StatusCode,
		"statusText": http.StatusText(resp.StatusCode),
		"headers":    flattenHeaders(resp.Header),
		"body":       decodeBody(resp.Header.Get("Content-Type"), bodyBytes),
	}

	return bindResult(block, inputs, "fetch", result), nil
}

// fetchBody returns v as a request body string, serializing non-string
// values to JSON per fetch_body's contract.
func fetchBody(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// decodeBody auto-decodes a response body as JSON when the content type
// says so, falling back to the raw text otherwise.
func decodeBody(contentType string, body []byte) any {
	if strings.Contains(contentType, "application/json") || strings.Contains(contentType, "+json") {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}

func applyHeaders(req *http.Request, raw any) {
	headers, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for k, v := range headers {
		req.Header.Set(k, fmt.Sprintf("%v", v))
	}
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func floatOr(v any, def float64) float64 {
	f, err := toFloat(v)
	if err != nil {
		return def
	}
	return f
}

func stringSliceOr(v any, def []string) []string {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return def
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// statusMatchesAny reports whether status matches any of patterns, each
// compared via statusMatches.
func statusMatchesAny(status int, patterns []string) bool {
	for _, p := range patterns {
		if statusMatches(status, p) {
			return true
		}
	}
	return false
}

// statusMatches compares an actual HTTP status code against a pattern like
// "200", "2xx", or "20x", where 'x' wildcards a digit position.
func statusMatches(status int, pattern string) bool {
	statusStr := strconv.Itoa(status)
	if len(statusStr) != len(pattern) {
		return false
	}
	for i := range pattern {
		if pattern[i] == 'x' || pattern[i] == 'X' {
			continue
		}
		if pattern[i] != statusStr[i] {
			return false
		}
	}
	return true
}

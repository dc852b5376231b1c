package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"storefront_bff/internal/pkg/config"
	"storefront_bff/pkg/metrics"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
)

func init() {
	// 上游契约中金额是 JSON number，不是字符串
	decimal.MarshalJSONWithoutQuotes = true
}

// Error 上游调用失败
// Message 是给用户看的文案：优先取服务端 detail 字段，否则用各操作的默认文案。
// 业务拒绝和网络故障不做区分，统一按失败处理。
type Error struct {
	StatusCode int    // 0 表示传输层失败
	Op         string
	Message    string
	Err        error // 底层错误，仅用于日志
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// detailBody 上游错误响应体
type detailBody struct {
	Detail string `json:"detail"`
}

// Client 远端折扣/支付服务客户端
// 负责 Bearer Token 附加和 HTTP 错误翻译
type Client struct {
	baseURL    string
	getClient  *http.Client // 幂等 GET，允许有限重试
	postClient *http.Client // POST 永不重试
	collector  *metrics.MetricsCollector
}

// NewClient 创建上游客户端
func NewClient(cfg config.UpstreamConfig, collector *metrics.MetricsCollector) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	g := retryablehttp.NewClient()
	g.RetryMax = cfg.GetRetryMax
	g.HTTPClient.Timeout = timeout
	g.Logger = nil

	p := retryablehttp.NewClient()
	p.RetryMax = 0
	p.HTTPClient.Timeout = timeout
	p.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		getClient:  g.StandardClient(),
		postClient: p.StandardClient(),
		collector:  collector,
	}
}

func (c *Client) get(ctx context.Context, token, path string, out interface{}, op, fallback string) error {
	return c.do(ctx, c.getClient, http.MethodGet, token, path, nil, out, op, fallback)
}

func (c *Client) post(ctx context.Context, token, path string, body, out interface{}, op, fallback string) error {
	return c.do(ctx, c.postClient, http.MethodPost, token, path, body, out, op, fallback)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, token, path string, body, out interface{}, op, fallback string) error {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("upstream request error: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		c.record(op, start, false)
		return &Error{Op: op, Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(op, start, false)
		return &Error{StatusCode: resp.StatusCode, Op: op, Message: fallback, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(op, start, false)
		msg := fallback
		var d detailBody
		if json.Unmarshal(data, &d) == nil && d.Detail != "" {
			msg = d.Detail
		}
		return &Error{StatusCode: resp.StatusCode, Op: op, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.record(op, start, false)
			return &Error{StatusCode: resp.StatusCode, Op: op, Message: fallback, Err: err}
		}
	}

	c.record(op, start, true)
	return nil
}

func (c *Client) record(op string, start time.Time, success bool) {
	if c.collector != nil {
		c.collector.RecordUpstreamRequest(op, time.Since(start), success)
	}
}

// Package audio 代理第三方托管的音频文件
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// BrowserUserAgent 音频源站对非浏览器客户端返回的内容不同，必须伪装成浏览器
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const DefaultContentType = "audio/mpeg"

var (
	ErrMissingURL   = errors.New("missing url")
	ErrUntrustedURL = errors.New("url is not from the trusted origin")
	ErrTooLarge     = errors.New("upstream body exceeds size limit")
)

// UpstreamError 源站返回非 2xx
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

type Config struct {
	TrustedOrigin string
	Timeout       time.Duration
	MaxBytes      int64 // <= 0 表示不限制
}

// Proxy 只允许代理包含 TrustedOrigin 的地址
type Proxy struct {
	trustedOrigin string
	maxBytes      int64
	client        *http.Client
}

func NewProxy(cfg Config, client *http.Client) *Proxy {
	if client == nil {
		// 默认 client 会跟随重定向
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Proxy{
		trustedOrigin: cfg.TrustedOrigin,
		maxBytes:      cfg.MaxBytes,
		client:        client,
	}
}

// Audio 完整读入内存的音频
type Audio struct {
	ContentType string
	Body        []byte
}

// Allowed 不发起请求，只检查地址
func (p *Proxy) Allowed(rawURL string) error {
	if rawURL == "" {
		return ErrMissingURL
	}
	if p.trustedOrigin == "" || !strings.Contains(rawURL, p.trustedOrigin) {
		return ErrUntrustedURL
	}
	return nil
}

func (p *Proxy) Fetch(ctx context.Context, rawURL string) (*Audio, error) {
	if err := p.Allowed(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "audio/*,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if p.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, p.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if p.maxBytes > 0 && int64(len(body)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	return &Audio{ContentType: contentType, Body: body}, nil
}

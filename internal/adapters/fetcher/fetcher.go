package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fxFeedLab/internal/ports"
)

const maxDownloadSize = 256 << 20

// Fetcher implements ports.ResourceFetcher for local files and http(s) URLs.
// Relative paths are resolved against BaseDir.
type Fetcher struct {
	Client  *http.Client
	BaseDir string
}

// New creates a fetcher with the given request timeout and optional proxy.
func New(baseDir string, timeout time.Duration, proxyURL string) *Fetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		Client:  &http.Client{Timeout: timeout, Transport: transport},
		BaseDir: baseDir,
	}
}

// Fetch returns the bytes of source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("empty source: %w", ports.ErrInvalidRequest)
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.fetchURL(ctx, source)
	}
	return f.readFile(strings.TrimPrefix(source, "file://"))
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, ports.ErrFetchFailed, err)
	}
	return b, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w: %v", u, ports.ErrInvalidRequest, err)
	}
	req.Header.Set("User-Agent", "fxFeedLab/1.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %v", u, ports.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: HTTP %d: %w", u, resp.StatusCode, ports.ErrFetchFailed)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w: %v", u, ports.ErrFetchFailed, err)
	}
	return b, nil
}

var _ ports.ResourceFetcher = (*Fetcher)(nil)

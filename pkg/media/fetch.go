package media

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const maxDownloadBytes = 20 * 1024 * 1024

// Fetcher downloads user-supplied attachment URLs. The URLs come from the
// chat transport but are still treated as untrusted: the dialer resolves the
// host itself and refuses private, loopback and link-local addresses, which
// also blocks DNS rebinding.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: safeTransport(false),
		},
	}
}

// NewUnrestrictedFetcher skips the private-IP guard, for tests against local
// HTTP servers.
func NewUnrestrictedFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: safeTransport(true),
		},
	}
}

func safeTransport(allowLocalIPs bool) *http.Transport {
	return &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid address: %w", err)
			}

			ips, err := net.LookupIP(host)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve host: %w", err)
			}

			var safeIP net.IP
			for _, ip := range ips {
				if !allowLocalIPs {
					if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
						continue
					}
				}
				safeIP = ip
				break
			}
			if safeIP == nil {
				return nil, fmt.Errorf("blocked access to restricted IP(s) for host: %s", host)
			}

			dialer := &net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}
			return dialer.DialContext(ctx, network, net.JoinHostPort(safeIP.String(), port))
		},
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Download fetches the URL and returns its bytes, capped at 20MB.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed (status %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("attachment exceeds %d bytes", maxDownloadBytes)
	}
	return data, nil
}

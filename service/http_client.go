package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/timera-ai/timera-api/common/config"
	"golang.org/x/net/proxy"
)

var (
	proxyClientLock sync.Mutex
	proxyClients    = make(map[string]*http.Client)
)

func defaultTimeout() time.Duration {
	// generation providers can take minutes on long renders
	timeout := 15 * time.Minute
	if config.RelayTimeout > 0 {
		timeout = time.Duration(config.RelayTimeout) * time.Second
	}
	return timeout
}

// GetHttpClient returns the shared client, routed through the configured
// proxy when one is set.
func GetHttpClient() (*http.Client, error) {
	return NewProxyHttpClient(config.ProviderProxyUrl)
}

// NewProxyHttpClient builds (and caches) an HTTP client for the given proxy
// URL. Supports http(s) and socks5 proxies; an empty URL yields a plain
// client with the relay timeout applied.
func NewProxyHttpClient(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Timeout: defaultTimeout()}, nil
	}

	proxyClientLock.Lock()
	if client, ok := proxyClients[proxyURL]; ok {
		proxyClientLock.Unlock()
		return client, nil
	}
	proxyClientLock.Unlock()

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}

	var client *http.Client
	switch parsedURL.Scheme {
	case "http", "https":
		client = &http.Client{
			Timeout: defaultTimeout(),
			Transport: &http.Transport{
				Proxy: http.ProxyURL(parsedURL),
			},
		}
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(parsedURL, proxy.Direct)
		if err != nil {
			return nil, err
		}
		client = &http.Client{
			Timeout: defaultTimeout(),
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				},
			},
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	proxyClientLock.Lock()
	proxyClients[proxyURL] = client
	proxyClientLock.Unlock()
	return client, nil
}

// ResetProxyClientCache drops all cached proxy clients so the next caller
// rebuilds them with fresh settings.
func ResetProxyClientCache() {
	proxyClientLock.Lock()
	defer proxyClientLock.Unlock()
	for _, client := range proxyClients {
		if transport, ok := client.Transport.(*http.Transport); ok && transport != nil {
			transport.CloseIdleConnections()
		}
	}
	proxyClients = make(map[string]*http.Client)
}

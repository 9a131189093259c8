// Package whttp is a small wrapper around retryablehttp shared by the
// update-history scraper and the Graph client.
package whttp

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

type Header struct {
	Name  string
	Value string
}

type Request struct {
	Method   string
	URL      string
	Headers  []Header
	FormBody url.Values // sent urlencoded when non-nil
}

type Response struct {
	StatusCode int
	Body       string
}

// NewClient builds a quiet retrying client, optionally routed through a
// proxy.
func NewClient(proxy string) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = 4

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		client.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

// Send performs the request and drains the body. A nil client gets a
// default one.
func Send(wReq *Request, client *retryablehttp.Client) (*Response, error) {
	if client == nil {
		var err error
		client, err = NewClient("")
		if err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if wReq.FormBody != nil {
		body = strings.NewReader(wReq.FormBody.Encode())
	}

	req, err := retryablehttp.NewRequest(wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0")
	req.Header.Set("Accept-Language", "en")
	if wReq.FormBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Body: string(bodyBytes)}, nil
}

package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const credentialsKey contextKey = "atlassian-credentials"

// credentials is one service's connection settings, lifted off a request
type credentials struct {
	URL       string
	Token     string
	SSLVerify bool
}

type requestCredentials struct {
	Jira       credentials
	Confluence credentials
}

// headersIntoContext captures the per-request credential headers so tool
// handlers can reach them. This is the only place credentials exist in
// this process; nothing is retained between requests.
func headersIntoContext(ctx context.Context, r *http.Request) context.Context {
	creds := requestCredentials{
		Jira: credentials{
			URL:       r.Header.Get("X-Jira-URL"),
			Token:     r.Header.Get("X-Jira-Token"),
			SSLVerify: r.Header.Get("X-Jira-SSL-Verify") != "false",
		},
		Confluence: credentials{
			URL:       r.Header.Get("X-Confluence-URL"),
			Token:     r.Header.Get("X-Confluence-Token"),
			SSLVerify: r.Header.Get("X-Confluence-SSL-Verify") != "false",
		},
	}
	return context.WithValue(ctx, credentialsKey, creds)
}

func jiraCreds(ctx context.Context) (credentials, error) {
	creds, _ := ctx.Value(credentialsKey).(requestCredentials)
	if creds.Jira.URL == "" {
		return credentials{}, fmt.Errorf("no Jira credentials on request")
	}
	return creds.Jira, nil
}

func confluenceCreds(ctx context.Context) (credentials, error) {
	creds, _ := ctx.Value(credentialsKey).(requestCredentials)
	if creds.Confluence.URL == "" {
		return credentials{}, fmt.Errorf("no Confluence credentials on request")
	}
	return creds.Confluence, nil
}

func restClient(creds credentials) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if !creds.SSLVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}

// restGet performs an authenticated GET against the service and returns
// the response body
func restGet(ctx context.Context, creds credentials, path string) ([]byte, error) {
	return restDo(ctx, creds, http.MethodGet, path, nil)
}

// restPost performs an authenticated JSON POST against the service
func restPost(ctx context.Context, creds credentials, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return restDo(ctx, creds, http.MethodPost, path, body)
}

func restDo(ctx context.Context, creds credentials, method, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(creds.URL, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := restClient(creds).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

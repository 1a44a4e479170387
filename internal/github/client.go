// Package github is a minimal client for the GitHub repository contents API,
// used as a remote blob store for the database image.
//
// The contract is two endpoints on a single file path:
//
//	GET  /repos/{owner}/{repo}/contents/{path}?ref={branch}
//	PUT  /repos/{owner}/{repo}/contents/{path}
//
// The file's blob SHA doubles as an optimistic-concurrency token: it must be
// presented on updates, and the API rejects a PUT whose sha does not match
// the branch head's copy. A PUT without a sha creates the file.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// A hung remote call would stall the owning request indefinitely; bound it.
const defaultTimeout = 30 * time.Second

// Config addresses the backing file and carries the credential.
type Config struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Path   string `yaml:"path"`
	Branch string `yaml:"branch"`

	// Token is the bearer credential. Resolved from the environment by the
	// config layer; never stored in source or config files.
	Token string `yaml:"-"`

	// BaseURL overrides the API endpoint, for tests.
	BaseURL string `yaml:"base_url"`
}

// Blob is a fetched copy of the remote file.
type Blob struct {
	// Content is the decoded file body.
	Content []byte

	// SHA is the blob's version token, presented on the next Put.
	SHA string
}

// Client performs authenticated reads and writes of the backing file.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a client for the configured file.
// A nil httpClient gets a default with a 30s timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Fetch reads the remote file.
//
// Returns (nil, nil) when the file does not exist. Absence is an expected
// state on first run, not an error. Any other non-200 response returns a
// *RemoteError carrying the status and body.
func (c *Client) Fetch(ctx context.Context) (*Blob, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.contentsURL()+"?ref="+url.QueryEscape(c.cfg.Branch), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.cfg.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", c.cfg.Path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Op: "fetch", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fetch %s: decode response: %w", c.cfg.Path, err)
	}

	// The API wraps base64 bodies at 60 columns.
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: decode content: %w", c.cfg.Path, err)
	}

	return &Blob{Content: content, SHA: payload.SHA}, nil
}

// Head returns the current version token of the remote file, or "" when the
// file does not exist. Used to resolve an unknown token before a Put.
func (c *Client) Head(ctx context.Context) (string, error) {
	blob, err := c.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if blob == nil {
		return "", nil
	}
	return blob.SHA, nil
}

// Put writes content as the new file body and returns the new version token.
//
// prevSHA must be the token from the last Fetch or Put; pass "" to create
// the file. The API rejects an update whose sha is stale (the branch moved
// under us). That surfaces as a *RemoteError, typically 409 or 422, and it
// is the caller's decision whether to treat it as a soft failure.
func (c *Client) Put(ctx context.Context, content []byte, prevSHA string) (string, error) {
	payload := map[string]any{
		"message": "Update " + c.cfg.Path,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.cfg.Branch,
	}
	if prevSHA != "" {
		payload["sha"] = prevSHA
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("put %s: encode request: %w", c.cfg.Path, err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", c.cfg.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("put %s: read body: %w", c.cfg.Path, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &RemoteError{Op: "put", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("put %s: decode response: %w", c.cfg.Path, err)
	}

	return result.Content.SHA, nil
}

func (c *Client) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.cfg.BaseURL, c.cfg.Owner, c.cfg.Repo, c.cfg.Path)
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "pojedi")
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+c.cfg.Token)
	}
	return req, nil
}

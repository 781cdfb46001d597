// Package remote talks to the content API: the offline manifest, bulk resource
// downloads, the user's data and the per-item mutation endpoints.
//
// The client does not retry; callers decide when to try again.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/versemate/offlinestore/internal/entities"
)

const (
	defaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of an error response ends up in StatusError.
	maxErrorBody = 512
)

// Client is an authenticated JSON client for the API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. An empty token sends anonymous requests.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BibleVersion is a manifest entry for one Bible version.
type BibleVersion struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Language  string `json:"language,omitempty"`
	UpdatedAt string `json:"updated_at"`
	SizeBytes int64  `json:"size_bytes"`
}

// LanguageResource is a manifest entry for a language's commentary or topics.
type LanguageResource struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
	SizeBytes int64  `json:"size_bytes"`
}

// Manifest is the catalog of downloadable resources.
type Manifest struct {
	BibleVersions       []BibleVersion     `json:"bible_versions"`
	CommentaryLanguages []LanguageResource `json:"commentary_languages"`
	TopicLanguages      []LanguageResource `json:"topic_languages"`
}

// FetchManifest downloads the offline manifest.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	var m Manifest
	if _, err := c.getJSON(ctx, "/offline/manifest", &m); err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	return &m, nil
}

// FetchBible downloads every verse of a version. size is the payload size in bytes.
func (c *Client) FetchBible(ctx context.Context, versionKey string) (verses []entities.Verse, size int64, err error) {
	size, err = c.getJSON(ctx, "/offline/bible/"+url.PathEscape(versionKey), &verses)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch bible %s: %w", versionKey, err)
	}
	return verses, size, nil
}

// FetchCommentaries downloads a language's commentary.
func (c *Client) FetchCommentaries(ctx context.Context, languageCode string) (entries []entities.CommentaryEntry, size int64, err error) {
	size, err = c.getJSON(ctx, "/offline/commentaries/"+url.PathEscape(languageCode), &entries)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch commentaries %s: %w", languageCode, err)
	}
	return entries, size, nil
}

// FetchTopics downloads a language's topics, references and explanations.
func (c *Client) FetchTopics(ctx context.Context, languageCode string) (*entities.TopicsPayload, int64, error) {
	var payload entities.TopicsPayload
	size, err := c.getJSON(ctx, "/offline/topics/"+url.PathEscape(languageCode), &payload)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch topics %s: %w", languageCode, err)
	}
	return &payload, size, nil
}

// FetchUserData downloads the user's notes, highlights and bookmarks. A rejected
// token returns ErrSessionExpired.
func (c *Client) FetchUserData(ctx context.Context) (*entities.UserData, int64, error) {
	var data entities.UserData
	size, err := c.getJSON(ctx, "/offline/user-data", &data)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch user data: %w", err)
	}
	return &data, size, nil
}

// Do sends an authenticated request. body, if not nil, is sent as JSON; out, if not
// nil, receives the decoded response.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := c.do(ctx, method, path, query, body, out)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) (int64, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int64, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// Ask for an uncompressed body; this also turns off transparent gzip in net/http.
	req.Header.Set("Accept-Encoding", "identity")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return 0, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return 0, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return int64(len(data)), nil
}

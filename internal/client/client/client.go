// Package client talks to the authkeeper HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// User is the registration reply.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
}

// LoginResult is the login reply.
type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type Joke struct {
	ID   string `json:"id"`
	Joke string `json:"joke"`
}

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

// NewHTTPClient returns a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	return &HTTPClient{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

// Register creates an account. password is not retained; the caller may
// wipe it once Register returns.
func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) (*User, error) {
	body, err := encodeCredentials(username, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(body)

	var u User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (*LoginResult, error) {
	body, err := encodeCredentials(username, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(body)

	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Jokes fetches the protected list. token is sent as a Bearer credential.
func (c *HTTPClient) Jokes(ctx context.Context, token string) ([]Joke, error) {
	var jokes []Joke
	if err := c.do(ctx, http.MethodGet, "/api/jokes", token, nil, &jokes); err != nil {
		return nil, err
	}
	return jokes, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in []byte, out any) error {
	var body io.Reader
	if in != nil {
		body = bytes.NewReader(in)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// encodeCredentials builds the JSON request body without converting password
// to a string, so every copy it makes can be wiped. The body is sized up
// front so append never leaves a stale backing array behind.
func encodeCredentials(username string, password []byte) ([]byte, error) {
	name, err := json.Marshal(username)
	if err != nil {
		return nil, err
	}

	const (
		prefix = `{"username":`
		middle = `,"password":`
	)
	b := make([]byte, 0, len(prefix)+len(name)+len(middle)+6*len(password)+3)
	b = append(b, prefix...)
	b = append(b, name...)
	b = append(b, middle...)
	b = appendJSONString(b, password)
	return append(b, '}'), nil
}

func appendJSONString(dst, s []byte) []byte {
	const hex = "0123456789abcdef"

	dst = append(dst, '"')
	for _, c := range s {
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

// Package loginreq sends the form-encoded login POST that every scenario iteration performs.
package loginreq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"loginload/internal/credentials"
)

const (
	DefaultURL = "http://test.k6.io/login.php"

	FieldLogin    = "login"
	FieldPassword = "password"

	contentTypeForm = "application/x-www-form-urlencoded"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the fully read result of one login request.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Duration time.Duration
}

func (r *Response) StatusCode() int {
	return r.Status
}

type Invoker struct {
	client Doer
	url    string
}

// NewInvoker returns an invoker posting to target, or DefaultURL when target is empty.
func NewInvoker(client Doer, target string) *Invoker {
	if client == nil {
		client = http.DefaultClient
	}
	if target == "" {
		target = DefaultURL
	}
	return &Invoker{client: client, url: target}
}

func (i *Invoker) URL() string {
	return i.url
}

// EncodeForm builds the request body: exactly the login and password fields.
func EncodeForm(c credentials.Credential) string {
	form := url.Values{}
	form.Set(FieldLogin, c.Username)
	form.Set(FieldPassword, c.Password)
	return form.Encode()
}

// Login posts the credential once. The status code is not inspected; transport
// failures are returned as is.
func (i *Invoker) Login(ctx context.Context, c credentials.Credential) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, strings.NewReader(EncodeForm(c)))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeForm)

	start := time.Now()
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", i.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}

	return &Response{
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Body:     body,
		Duration: time.Since(start),
	}, nil
}

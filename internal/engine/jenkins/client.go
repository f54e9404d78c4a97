package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/bndr/gojenkins"

	"jenkinsaction/internal/config"
	"jenkinsaction/internal/engine"
	"jenkinsaction/internal/logger"
	"jenkinsaction/internal/urlrewrite"
)

// Client implements engine.Server on top of gojenkins
type Client struct {
	url     string
	target  urlrewrite.Target
	jenkins *gojenkins.Jenkins
}

var _ engine.Server = (*Client)(nil)

// NewClient creates a new Jenkins client instance. Cookies are attached to
// every request sent to the server; credentials only when both username and
// token are set.
func NewClient(cfg config.JenkinsConfig) (*Client, error) {
	serverURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse jenkins url: %w", err)
	}

	target, err := urlrewrite.NewTarget(cfg.URL)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	jar.SetCookies(serverURL, buildCookies(cfg.Cookies))

	// No client timeout: only the polling budget bounds the run
	httpClient := &http.Client{Jar: jar}

	var jenkins *gojenkins.Jenkins
	if cfg.HasCredentials() {
		jenkins = gojenkins.CreateJenkins(httpClient, cfg.URL, cfg.Username, cfg.Token)
	} else {
		logger.Info("Username or token not provided. Connecting without authentication.")
		jenkins = gojenkins.CreateJenkins(httpClient, cfg.URL)
	}

	return &Client{
		url:     cfg.URL,
		target:  target,
		jenkins: jenkins,
	}, nil
}

// Target returns where server-reported URLs are rewritten to
func (c *Client) Target() urlrewrite.Target {
	return c.target
}

// Connect verifies the server answers with the configured session
func (c *Client) Connect(ctx context.Context) (string, error) {
	if _, err := c.jenkins.Init(ctx); err != nil {
		return "", &engine.ConnectionError{URL: c.url, Err: err}
	}
	return c.jenkins.Version, nil
}

// GetJob resolves a job by name. Slash separated names address jobs inside
// folders.
func (c *Client) GetJob(ctx context.Context, name string) (*engine.Job, error) {
	parts := strings.Split(strings.Trim(name, "/"), "/")
	id, parents := parts[len(parts)-1], parts[:len(parts)-1]

	logger.Debug("Fetching job", "job", name)

	job, err := c.jenkins.GetJob(ctx, id, parents...)
	if err != nil {
		return nil, fmt.Errorf("get job %q: %w", name, statusError(err))
	}

	definitions, err := job.GetParameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("get parameters of job %q: %w", name, statusError(err))
	}

	return &engine.Job{
		Name:          name,
		URL:           job.Raw.URL,
		Parameterized: len(definitions) > 0,
	}, nil
}

// statusError turns the bare status code errors gojenkins returns into
// readable ones
func statusError(err error) error {
	code, convErr := strconv.Atoi(err.Error())
	if convErr != nil {
		return err
	}
	return formatJenkinsError(code)
}

// formatJenkinsError formats Jenkins API status codes into user-friendly
// messages
func formatJenkinsError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed: invalid credentials")
	case http.StatusForbidden:
		return fmt.Errorf("access denied: insufficient permissions")
	case http.StatusNotFound:
		return fmt.Errorf("resource not found")
	case http.StatusBadRequest:
		return fmt.Errorf("invalid request")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("jenkins server error (%d)", statusCode)
	default:
		return fmt.Errorf("jenkins api request failed with status %d", statusCode)
	}
}

func buildCookies(values map[string]any) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(values))
	for name, value := range values {
		cookies = append(cookies, &http.Cookie{
			Name:  name,
			Value: renderValue(value),
			Path:  "/",
		})
	}
	return cookies
}

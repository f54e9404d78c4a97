package jenkins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/bndr/gojenkins"

	"jenkinsaction/internal/engine"
	"jenkinsaction/internal/logger"
)

// TriggerBuild requests a build of job. job.URL must be the rewritten job URL.
// Jobs with parameter definitions, or calls with parameters, go through
// buildWithParameters so that defaults apply.
func (c *Client) TriggerBuild(ctx context.Context, job engine.Job, params map[string]any) (*engine.QueueItem, error) {
	endpoint, err := c.target.Endpoint(job.URL)
	if err != nil {
		return nil, err
	}

	buildPath := strings.TrimSuffix(endpoint, "/") + "/build"
	if len(params) > 0 || job.Parameterized {
		buildPath = strings.TrimSuffix(endpoint, "/") + "/buildWithParameters"
	}

	formData := url.Values{}
	for k, v := range params {
		formData.Set(k, renderValue(v))
	}

	logger.Debug("Triggering build", "job", job.Name, "path", buildPath, "param_count", len(params))

	resp, err := c.jenkins.Requester.Post(ctx, buildPath, strings.NewReader(formData.Encode()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("trigger build of %q: %w", job.Name, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("trigger build of %q: %w", job.Name, formatJenkinsError(resp.StatusCode))
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("trigger build of %q: response has no Location header", job.Name)
	}
	location, err = c.absolute(location)
	if err != nil {
		return nil, err
	}

	id, err := queueID(location)
	if err != nil {
		return nil, err
	}

	return &engine.QueueItem{ID: id, URL: location}, nil
}

// queueItemResponse is the part of /queue/item/<id>/api/json the client reads
type queueItemResponse struct {
	ID         int64  `json:"id"`
	Why        string `json:"why"`
	Executable struct {
		Number int64  `json:"number"`
		URL    string `json:"url"`
	} `json:"executable"`
}

// ResolveBuild returns the build item turned into, or nil when it is still
// queued. item.URL must be the rewritten queue item URL. Any non-200 answer
// is an error, never "still queued".
func (c *Client) ResolveBuild(ctx context.Context, item engine.QueueItem) (*engine.Build, error) {
	endpoint, err := c.target.Endpoint(item.URL)
	if err != nil {
		return nil, err
	}

	var raw queueItemResponse
	resp, err := c.jenkins.Requester.GetJSON(ctx, strings.TrimSuffix(endpoint, "/"), &raw, nil)
	if err != nil {
		return nil, fmt.Errorf("get queue item %d: %w", item.ID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get queue item %d: %w", item.ID, formatJenkinsError(resp.StatusCode))
	}

	if raw.Executable.URL == "" {
		logger.Debug("Queue item not started", "queue_id", item.ID, "why", raw.Why)
		return nil, nil
	}

	return &engine.Build{Number: raw.Executable.Number, URL: raw.Executable.URL}, nil
}

// GetResult returns the current status of build. build.URL must be the
// rewritten build URL.
func (c *Client) GetResult(ctx context.Context, build engine.Build) (engine.Status, error) {
	endpoint, err := c.target.Endpoint(build.URL)
	if err != nil {
		return engine.StatusPending, err
	}

	b := &gojenkins.Build{
		Jenkins: c.jenkins,
		Raw:     new(gojenkins.BuildResponse),
		Depth:   1,
		Base:    strings.TrimSuffix(endpoint, "/"),
	}

	status, err := b.Poll(ctx)
	if err != nil {
		return engine.StatusPending, fmt.Errorf("get build %s: %w", build.URL, err)
	}
	if status != http.StatusOK {
		return engine.StatusPending, fmt.Errorf("get build %s: %w", build.URL, formatJenkinsError(status))
	}

	return engine.Status(b.GetResult()), nil
}

// absolute resolves a possibly relative Location against the server URL
func (c *Client) absolute(location string) (string, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", location, err)
	}
	if loc.IsAbs() {
		return location, nil
	}

	base, err := url.Parse(strings.TrimSuffix(c.url, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parse jenkins url: %w", err)
	}
	return base.ResolveReference(loc).String(), nil
}

// queueID extracts the item number from a .../queue/item/<id>/ URL
func queueID(itemURL string) (int64, error) {
	u, err := url.Parse(itemURL)
	if err != nil {
		return 0, fmt.Errorf("parse queue item url %q: %w", itemURL, err)
	}

	id, err := strconv.ParseInt(path.Base(strings.TrimSuffix(u.Path, "/")), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("queue item url %q has no item number", itemURL)
	}
	return id, nil
}

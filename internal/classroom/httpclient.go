package classroom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

type HTTPClient struct {
	base string
	http *http.Client
}

type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

func NewHTTPClient(cfg Config) *HTTPClient {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	h := cc.Client(context.Background())
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &HTTPClient{base: cfg.BaseURL, http: h}
}

func (c *HTTPClient) GetCourse(ctx context.Context, courseID string) (Course, error) {
	var out Course
	err := c.getJSON(ctx, "/courses/"+url.PathEscape(courseID), &out)
	return out, err
}

func (c *HTTPClient) ListStudents(ctx context.Context, courseID string) ([]Student, error) {
	var out []Student
	err := c.getJSON(ctx, "/courses/"+url.PathEscape(courseID)+"/students", &out)
	return out, err
}

func (c *HTTPClient) ListAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	var out []Assignment
	err := c.getJSON(ctx, "/courses/"+url.PathEscape(courseID)+"/assignments", &out)
	return out, err
}

func (c *HTTPClient) ListSubmissions(ctx context.Context, courseID, assignmentID string) ([]Submission, error) {
	var out []Submission
	err := c.getJSON(ctx,
		"/courses/"+url.PathEscape(courseID)+"/assignments/"+url.PathEscape(assignmentID)+"/submissions", &out)
	return out, err
}

func (c *HTTPClient) FetchAttachment(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode/100 != 2 {
		res.Body.Close()
		return nil, fmt.Errorf("fetch attachment: %s", res.Status)
	}
	return res.Body, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: %s", path, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

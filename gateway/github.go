package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"course-importer/model"
)

// DefaultGithubAPI is the public GitHub REST endpoint.
const DefaultGithubAPI = "https://api.github.com"

// Github commits each accepted collection as a JSON file through the contents API.
type Github struct {
	api   string
	token string
	repo  string
	dir   string

	Client *http.Client
}

// NewGithub returns a gateway writing into dir of repo ("owner/name").
func NewGithub(api, token, repo, dir string) *Github {
	if api == "" {
		api = DefaultGithubAPI
	}
	return &Github{
		api:    strings.TrimRight(api, "/"),
		token:  token,
		repo:   repo,
		dir:    strings.Trim(dir, "/"),
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type githubUploadRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

// AcceptScheduleConfig implements Gateway.
func (g *Github) AcceptScheduleConfig(ctx context.Context, cfg model.ScheduleConfig) error {
	return g.upload(ctx, ConfigJSON, cfg)
}

// AcceptCourses implements Gateway.
func (g *Github) AcceptCourses(ctx context.Context, courses []model.Course) error {
	return g.upload(ctx, CoursesJSON, courses)
}

// AcceptTimeSlots implements Gateway.
func (g *Github) AcceptTimeSlots(ctx context.Context, slots []model.TimeSlot) error {
	return g.upload(ctx, TimeSlotsJSON, slots)
}

func (g *Github) contentsURL(name string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", g.api, g.repo, path.Join(g.dir, name))
}

func (g *Github) upload(ctx context.Context, name string, v any) error {
	fileContent, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}
	sha, err := g.currentSHA(ctx, name)
	if err != nil {
		return err
	}

	body := githubUploadRequest{
		Message: "Update " + name,
		Content: base64.StdEncoding.EncodeToString(fileContent),
		SHA:     sha,
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(name), bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	g.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("error uploading %s to GitHub, status code: %d, response: %s", name, resp.StatusCode, string(respBody))
	}
	return nil
}

// currentSHA returns the blob sha of an existing file, or "" when it does not exist yet.
func (g *Github) currentSHA(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.contentsURL(name), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	g.authorize(req)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode >= 400:
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("error reading %s from GitHub, status code: %d, response: %s", name, resp.StatusCode, string(respBody))
	}
	var existing struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
		return "", fmt.Errorf("error decoding GitHub response: %w", err)
	}
	return existing.SHA, nil
}

func (g *Github) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

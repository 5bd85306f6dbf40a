package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Endpoints are the base URLs of each provider.
type Endpoints struct {
	CQU    string
	WakeUp string
	HNVCC  string
}

// DefaultEndpoints returns the production base URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		CQU:    "https://my.cqu.edu.cn",
		WakeUp: "https://i.wakeup.fun",
		HNVCC:  "http://jwxt.hnvcc.edu.cn",
	}
}

// FetchConfig configures the provider HTTP client.
type FetchConfig struct {
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	UserAgent string
	// Transport allows injecting a custom round tripper in tests.
	Transport http.RoundTripper
}

// Fetcher is a rate-limited HTTP client for provider requests.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher creates a Fetcher, filling zero config values with defaults.
func NewFetcher(cfg FetchConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 4
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		userAgent: cfg.UserAgent,
	}
}

// Request describes one provider call.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header map[string]string
}

// Do performs a request and returns the body of a 2xx response.
func (f *Fetcher) Do(ctx context.Context, r Request) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, r.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %s", ErrTransport, method, r.URL, resp.Status)
	}
	return data, nil
}

// Job is one independent upstream fetch.
type Job func(ctx context.Context) ([]byte, error)

// Outcome is the settled result of a Job.
type Outcome struct {
	Body []byte
	Err  error
}

// Settle runs every job concurrently and waits for all of them. A failing job
// does not cancel the others; each outcome is reported on its own.
func Settle(ctx context.Context, jobs map[string]Job) map[string]Outcome {
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	results := make([]Outcome, len(names))

	var g errgroup.Group
	for i, name := range names {
		i, job := i, jobs[name]
		g.Go(func() error {
			body, err := job(ctx)
			// Failures stay in the Outcome so one request never cancels the others.
			results[i] = Outcome{Body: body, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make(map[string]Outcome, len(names))
	for i, name := range names {
		outcomes[name] = results[i]
	}
	return outcomes
}

// FetchCQU resolves the current session and fetches the four CQU responses concurrently.
// The schedule response is required; the others only produce warnings when missing.
func FetchCQU(ctx context.Context, f *Fetcher, base, accessToken, studentID string) (Payload, error) {
	token, err := CheckAccessToken(accessToken)
	if err != nil {
		return Payload{}, err
	}
	if studentID == "" {
		return Payload{}, fmt.Errorf("%w: student id is empty", ErrNotLoggedIn)
	}
	header := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + token,
	}
	get := func(path string) Job {
		return func(ctx context.Context) ([]byte, error) {
			return f.Do(ctx, Request{URL: base + path, Header: header})
		}
	}

	raw, err := get("/api/resourceapi/session/info-detail")(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("fetch session info: %w", err)
	}
	var info struct {
		CurSessionID any `json:"curSessionId"`
	}
	if err := json.Unmarshal(raw, &info); err != nil || info.CurSessionID == nil {
		return Payload{}, structural("session info has no current session id")
	}
	termID := textOf(info.CurSessionID)

	studentBody, err := json.Marshal([]string{studentID})
	if err != nil {
		return Payload{}, err
	}
	outcomes := Settle(ctx, map[string]Job{
		PartStartDate: get("/api/resourceapi/session/info/" + url.PathEscape(termID)),
		PartMaxWeek:   get("/api/timetable/course/maxWeek/" + url.PathEscape(termID)),
		PartTimeSlots: get("/api/workspace/time-pattern/session-time-pattern"),
		PartSchedule: func(ctx context.Context) ([]byte, error) {
			return f.Do(ctx, Request{
				Method: http.MethodPost,
				URL:    base + "/api/timetable/class/timetable/student/my-table-detail?sessionId=" + url.QueryEscape(termID),
				Body:   studentBody,
				Header: header,
			})
		},
	})

	payload := Payload{Parts: map[string][]byte{}}
	for name, outcome := range outcomes {
		if outcome.Err != nil {
			if name == PartSchedule {
				return Payload{}, fmt.Errorf("fetch %s: %w", name, outcome.Err)
			}
			log.Printf("WARN: cqu: fetch %s failed: %v", name, outcome.Err)
			continue
		}
		payload.Parts[name] = outcome.Body
	}
	return payload, nil
}

// FetchWakeUp downloads the share blob for a share key.
func FetchWakeUp(ctx context.Context, f *Fetcher, base, shareKey string) (Payload, error) {
	key := strings.TrimSpace(shareKey)
	raw, err := f.Do(ctx, Request{URL: base + "/share_schedule/get?key=" + url.QueryEscape(key)})
	if err != nil {
		return Payload{}, fmt.Errorf("fetch share data: %w", err)
	}
	var resp struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Data    string `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Payload{}, structural("decode share response: %v", err)
	}
	if resp.Status != 1 {
		return Payload{}, fmt.Errorf("%w: share API: %s", ErrTransport, resp.Message)
	}
	return Payload{Body: []byte(resp.Data)}, nil
}

// FetchHNVCC downloads the timetable page of a school-year term, reusing the
// browser session cookie.
func FetchHNVCC(ctx context.Context, f *Fetcher, base, schoolYearID, cookie, season string) (Payload, error) {
	header := map[string]string{}
	if cookie != "" {
		header["Cookie"] = cookie
	}
	query := url.Values{
		"rq":     {"all"},
		"xnxqid": {schoolYearID},
		"xswk":   {"false"},
	}
	body, err := f.Do(ctx, Request{
		URL:    base + "/jsxsd/framework/mainV_index_loadkb.htmlx?" + query.Encode(),
		Header: header,
	})
	if err != nil {
		return Payload{}, fmt.Errorf("fetch timetable: %w", err)
	}
	if err := CheckSessionPage(body); err != nil {
		return Payload{}, err
	}
	return Payload{Body: body, Options: map[string]string{OptionSeason: season}}, nil
}

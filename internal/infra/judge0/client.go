// Package judge0 talks to a Judge0-compatible sandbox over its
// asynchronous submit/poll protocol.
package judge0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// Terminal status IDs from the Judge0 API. IDs 1 (in queue) and 2
// (processing) are the non-terminal phase.
const (
	statusAccepted   = 3
	lastQueuedStatus = 2
)

const (
	defaultPollInterval = time.Second
	defaultMaxPolls     = 10
)

// runtimeIDs maps language names to Judge0 runtime identifiers.
var runtimeIDs = map[string]int{
	"JavaScript": 63,
	"Python":     71,
	"Java":       62,
	"C":          50,
	"C++":        54,
	"C#":         51,
	"PHP":        68,
	"Ruby":       72,
	"Perl":       53,
	"Kotlin":     78,
	"Go":         60,
	"Rust":       73,
	"Swift":      83,
	"R":          80,
	"Dart":       75,
}

// Client implements app.Executor against a remote Judge0 deployment.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     int
	log          *logging.Logger
}

// Option configures the client.
type Option func(*Client)

// WithPollInterval overrides the 1s poll cadence (tests use a short one).
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxPolls overrides the per-case poll budget.
func WithMaxPolls(n int) Option {
	return func(c *Client) { c.maxPolls = n }
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL, apiKey string, log *logging.Logger, opts ...Option) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RuntimeFor resolves a language name to its sandbox runtime ID.
func (c *Client) RuntimeFor(languageName string) (int, bool) {
	id, ok := runtimeIDs[languageName]
	return id, ok
}

type submissionRequest struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type submissionToken struct {
	Token string `json:"token"`
}

type submissionStatus struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout string `json:"stdout"`
}

// Execute judges the source against every test case independently. The
// overall verdict is the AND across cases; a sandbox outage or an
// exhausted poll budget is an error, never a failing verdict.
func (c *Client) Execute(ctx context.Context, source string, runtimeID int, cases []domain.TestCase) (domain.ExecutionOutcome, error) {
	outcome := domain.ExecutionOutcome{AllPassed: true, Cases: make([]domain.CaseResult, 0, len(cases))}
	for _, tc := range cases {
		result, err := c.runCase(ctx, source, runtimeID, tc)
		if err != nil {
			return domain.ExecutionOutcome{}, err
		}
		outcome.Cases = append(outcome.Cases, result)
		if !result.Passed {
			outcome.AllPassed = false
		}
	}
	return outcome, nil
}

func (c *Client) runCase(ctx context.Context, source string, runtimeID int, tc domain.TestCase) (domain.CaseResult, error) {
	token, err := c.submit(ctx, submissionRequest{
		SourceCode:     source,
		LanguageID:     runtimeID,
		Stdin:          tc.Input,
		ExpectedOutput: strings.TrimSpace(tc.ExpectedOutput),
	})
	if err != nil {
		return domain.CaseResult{}, err
	}

	status, err := c.awaitVerdict(ctx, token)
	if err != nil {
		return domain.CaseResult{}, err
	}

	passed := status.Status.ID == statusAccepted &&
		strings.TrimSpace(status.Stdout) == strings.TrimSpace(tc.ExpectedOutput)
	return domain.CaseResult{
		Passed:   passed,
		StatusID: status.Status.ID,
		Status:   status.Status.Description,
		Stdout:   status.Stdout,
	}, nil
}

// awaitVerdict is the bounded poll state machine: SUBMITTED -> POLLING
// -> {DONE, TIMED_OUT}. The wait is context-aware so a cancelled request
// stops polling immediately.
func (c *Client) awaitVerdict(ctx context.Context, token string) (submissionStatus, error) {
	for attempt := 0; attempt < c.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return submissionStatus{}, fmt.Errorf("%w: %v", domain.ErrExecutionService, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		status, err := c.fetchStatus(ctx, token)
		if err != nil {
			return submissionStatus{}, err
		}
		if status.Status.ID > lastQueuedStatus {
			return status, nil
		}
	}
	c.log.Warn("poll budget exhausted", "token", token, "polls", c.maxPolls)
	return submissionStatus{}, domain.ErrExecutionTimeout
}

func (c *Client) submit(ctx context.Context, reqBody submissionRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: encode submission: %v", domain.ErrExecutionService, err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExecutionService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	var token submissionToken
	if err := c.do(req, &token); err != nil {
		return "", err
	}
	if token.Token == "" {
		return "", fmt.Errorf("%w: empty submission token", domain.ErrExecutionService)
	}
	return token.Token, nil
}

func (c *Client) fetchStatus(ctx context.Context, token string) (submissionStatus, error) {
	url := fmt.Sprintf("%s/submissions/%s?base64_encoded=false&fields=*", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return submissionStatus{}, fmt.Errorf("%w: %v", domain.ErrExecutionService, err)
	}
	c.authorize(req)

	var status submissionStatus
	if err := c.do(req, &status); err != nil {
		return submissionStatus{}, err
	}
	return status, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExecutionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", domain.ErrExecutionService, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrExecutionService, err)
	}
	return nil
}

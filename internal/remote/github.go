package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/logging"
)

const (
	stepAuth   = "authentication"
	stepLookup = "lookup"
	stepCommit = "commit"

	maxErrorBody = 512
)

// GitHubClient commits the snapshot to a repository with the contents API.
type GitHubClient struct {
	token         string
	repoURL       string
	branch        string
	remotePath    string
	baseURL       string
	maxRetries    int
	retryInterval time.Duration
	httpClient    *http.Client
	now           func() time.Time
}

type Option func(*GitHubClient)

// WithHTTPClient replaces the default client. Its Timeout should be set.
func WithHTTPClient(c *http.Client) Option {
	return func(g *GitHubClient) { g.httpClient = c }
}

func WithClock(now func() time.Time) Option {
	return func(g *GitHubClient) { g.now = now }
}

func NewGitHubClient(cfg config.RemoteConfig, opts ...Option) *GitHubClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	remotePath := strings.TrimPrefix(cfg.Path, "/")
	if remotePath == "" {
		remotePath = "data/db_backup.json"
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	g := &GitHubClient{
		token:         strings.TrimSpace(cfg.Token),
		repoURL:       cfg.RepoURL,
		branch:        branch,
		remotePath:    remotePath,
		baseURL:       baseURL,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		httpClient:    &http.Client{Timeout: timeout},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type response struct {
	status int
	header http.Header
	body   []byte
}

type userPayload struct {
	Login string `json:"login"`
}

type contentPayload struct {
	SHA string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putPayload struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Push verifies the token, looks up the current blob sha and commits the
// file at localPath over it.
func (g *GitHubClient) Push(ctx context.Context, localPath string) (*SyncResult, error) {
	if err := CheckToken(g.token); err != nil {
		return nil, preconditionError(err)
	}
	repo, err := ParseRepository(g.repoURL)
	if err != nil {
		return nil, preconditionError(err)
	}
	data, err := os.ReadFile(localPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, preconditionError(ErrSnapshotMissing)
	}
	if err != nil {
		return nil, preconditionError(fmt.Errorf("failed to read snapshot: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, preconditionError(ErrSnapshotEmpty)
	}

	login, err := g.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	contentsURL := g.contentsURL(repo)
	sha, err := g.currentSHA(ctx, contentsURL)
	if err != nil {
		return nil, err
	}

	result, err := g.commit(ctx, contentsURL, data, sha)
	if err != nil {
		return nil, err
	}
	result.Login = login
	result.Target = repo.String()

	logging.With("remote").Info().
		Str("repo", repo.String()).
		Str("branch", g.branch).
		Str("commit", result.CommitSHA).
		Bool("created", result.Created).
		Msg("snapshot pushed")
	return result, nil
}

func (g *GitHubClient) authenticate(ctx context.Context) (string, error) {
	resp, err := g.send(ctx, stepAuth, http.MethodGet, g.baseURL+"/user", nil)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", classify(stepAuth, resp)
	}
	var user userPayload
	if err := json.Unmarshal(resp.body, &user); err != nil {
		return "", &Error{Kind: KindHTTP, Step: stepAuth, Status: resp.status, Message: "unreadable user response", Err: err}
	}
	return user.Login, nil
}

// currentSHA returns "" when the file does not exist yet.
func (g *GitHubClient) currentSHA(ctx context.Context, contentsURL string) (string, error) {
	resp, err := g.send(ctx, stepLookup, http.MethodGet, contentsURL+"?ref="+url.QueryEscape(g.branch), nil)
	if err != nil {
		return "", err
	}
	switch resp.status {
	case http.StatusOK:
		var content contentPayload
		if err := json.Unmarshal(resp.body, &content); err != nil {
			return "", &Error{Kind: KindHTTP, Step: stepLookup, Status: resp.status, Message: "unreadable contents response", Err: err}
		}
		return content.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", classify(stepLookup, resp)
	}
}

func (g *GitHubClient) commit(ctx context.Context, contentsURL string, data []byte, sha string) (*SyncResult, error) {
	body, err := json.Marshal(putRequest{
		Message: fmt.Sprintf("Update %s %s", path.Base(g.remotePath), g.now().UTC().Format(time.RFC3339)),
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  g.branch,
		SHA:     sha,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode commit request: %w", err)
	}

	resp, err := g.send(ctx, stepCommit, http.MethodPut, contentsURL, body)
	if err != nil {
		return nil, err
	}
	switch resp.status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return nil, &Error{Kind: KindConflict, Step: stepCommit, Status: resp.status,
			Message: "remote file changed since it was read: " + bodyMessage(resp.body)}
	case http.StatusUnprocessableEntity:
		msg := bodyMessage(resp.body)
		if strings.Contains(strings.ToLower(msg), "sha") {
			return nil, &Error{Kind: KindConflict, Step: stepCommit, Status: resp.status,
				Message: "remote revision does not match: " + msg}
		}
		return nil, classify(stepCommit, resp)
	default:
		return nil, classify(stepCommit, resp)
	}

	var payload putPayload
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, &Error{Kind: KindHTTP, Step: stepCommit, Status: resp.status, Message: "unreadable commit response", Err: err}
	}
	return &SyncResult{
		Provider:   config.RemoteGitHub,
		Path:       g.remotePath,
		CommitSHA:  payload.Commit.SHA,
		ContentSHA: payload.Content.SHA,
		Created:    sha == "",
	}, nil
}

func (g *GitHubClient) contentsURL(repo Repository) string {
	segments := strings.Split(g.remotePath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.baseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), strings.Join(segments, "/"))
}

// send performs one request, retrying transport failures and 5xx responses.
// Any response below 500 is returned for the caller to interpret.
func (g *GitHubClient) send(ctx context.Context, step, method, target string, body []byte) (*response, error) {
	log := logging.With("remote")

	var resp *response
	var last *Error
	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Authorization", "token "+g.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		req.Header.Set("User-Agent", "go-photo-gallery")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := g.httpClient.Do(req)
		if err != nil {
			last = &Error{Kind: KindTransport, Step: step, Err: err}
			return last
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			last = &Error{Kind: KindTransport, Step: step, Status: httpResp.StatusCode, Err: err}
			return last
		}
		r := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if r.status >= 500 {
			last = classify(step, r)
			return last
		}
		resp = r
		return nil
	}

	err := backoff.RetryNotify(operation, g.backoff(ctx), func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("step", step).Dur("retry_in", wait).Msg("transient sync failure, retrying")
	})
	if err == nil {
		return resp, nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return nil, err
	}
	// The context ended before a retry succeeded; keep the last failure visible.
	e := &Error{Kind: KindTransport, Step: step, Err: err}
	if last != nil {
		e.Status = last.Status
		e.Message = last.Message
		if e.Message == "" && last.Err != nil {
			e.Message = last.Err.Error()
		}
	}
	return nil, e
}

func (g *GitHubClient) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if g.retryInterval > 0 {
		exp.InitialInterval = g.retryInterval
	}
	exp.MaxElapsedTime = 0
	retries := g.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// classify turns a non-success response into an *Error.
func classify(step string, resp *response) *Error {
	msg := bodyMessage(resp.body)
	e := &Error{Kind: KindHTTP, Step: step, Status: resp.status, Message: msg}

	switch {
	case resp.status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		e.Message = "GitHub rejected the token, it may be invalid or expired"
	case resp.status == http.StatusForbidden && resp.header.Get("X-RateLimit-Remaining") == "0":
		e.Kind = KindRateLimited
		e.Message = "GitHub API rate limit exceeded"
		if reset := resp.header.Get("X-RateLimit-Reset"); reset != "" {
			e.Message += ", resets at " + reset
		}
	case resp.status == http.StatusForbidden:
		e.Kind = KindForbidden
		e.Message = "token lacks permission for this repository: " + msg
	case resp.status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = "GitHub API rate limit exceeded"
	case resp.status == http.StatusNotFound:
		e.Message = "repository or branch not found, or the token cannot see it"
	}
	return e
}

// bodyMessage extracts GitHub's "message" field, falling back to the raw body.
func bodyMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

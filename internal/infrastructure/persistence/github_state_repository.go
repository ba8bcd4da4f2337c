package persistence

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tecsitel/backend/internal/application/state"
	"github.com/tecsitel/backend/internal/infrastructure/config"
)

// GitHubStateRepository persists the full state snapshot as a JSON document
// committed to a GitHub repository through the contents API, mirroring the
// original serverless proxy: GET decodes the base64 blob, PUT overwrites it
// with the current SHA so GitHub rejects racing writers.
type GitHubStateRepository struct {
	baseURL   string
	repo      string
	filePath  string
	token     string
	committer string
	email     string
	client    *http.Client
}

// NewGitHubStateRepository creates a repository for the configured repo/path
func NewGitHubStateRepository(cfg config.GitHubConfig) *GitHubStateRepository {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubStateRepository{
		baseURL:   baseURL,
		repo:      cfg.Repo,
		filePath:  cfg.FilePath,
		token:     cfg.Token,
		committer: cfg.Committer,
		email:     cfg.Email,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *GitHubStateRepository) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", r.baseURL, r.repo, r.filePath)
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// fetchContents returns the decoded document and its SHA. notFound is true
// when the file does not exist yet.
func (r *GitHubStateRepository) fetchContents(ctx context.Context) (doc []byte, sha string, notFound bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.contentsURL(), nil)
	if err != nil {
		return nil, "", false, err
	}
	r.setHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", false, fmt.Errorf("contents GET returned %s", resp.Status)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", false, err
	}
	decoded, err := base64.StdEncoding.DecodeString(stripNewlines(body.Content))
	if err != nil {
		return nil, "", false, fmt.Errorf("invalid base64 content: %w", err)
	}
	return decoded, body.SHA, false, nil
}

// Load reads the persisted snapshot from the repository. A missing file is
// not an error: the first run starts from an empty, normalized state.
func (r *GitHubStateRepository) Load(ctx context.Context) (*state.FullState, error) {
	doc, _, notFound, err := r.fetchContents(ctx)
	if err != nil {
		return nil, state.NewPersistenceError("load", err)
	}
	if notFound {
		fresh := &state.FullState{}
		fresh.Normalize()
		return fresh, nil
	}

	var loaded state.FullState
	if err := json.Unmarshal(doc, &loaded); err != nil {
		return nil, state.NewPersistenceError("load", err)
	}
	loaded.Normalize()
	return &loaded, nil
}

type updateRequest struct {
	Message   string     `json:"message"`
	Content   string     `json:"content"`
	SHA       string     `json:"sha,omitempty"`
	Committer *committer `json:"committer,omitempty"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Save commits the snapshot, overwriting the whole remote document. The
// document is pretty-printed so the committed JSON stays readable.
func (r *GitHubStateRepository) Save(ctx context.Context, snapshot *state.FullState) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return state.NewPersistenceError("save", err)
	}

	// The contents API requires the current SHA to update an existing file.
	_, sha, notFound, err := r.fetchContents(ctx)
	if err != nil {
		return state.NewPersistenceError("save", err)
	}

	payload := updateRequest{
		Message: "chore: update database [skip ci]",
		Content: base64.StdEncoding.EncodeToString(data),
	}
	if !notFound {
		payload.SHA = sha
	}
	if r.committer != "" {
		payload.Committer = &committer{Name: r.committer, Email: r.email}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return state.NewPersistenceError("save", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return state.NewPersistenceError("save", err)
	}
	r.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return state.NewPersistenceError("save", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return state.NewPersistenceError("save", fmt.Errorf("contents PUT returned %s: %s", resp.Status, detail))
	}
	return nil
}

func (r *GitHubStateRepository) setHeaders(req *http.Request) {
	if r.token != "" {
		req.Header.Set("Authorization", "token "+r.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// stripNewlines removes the line breaks GitHub inserts into base64 blobs
func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/whitelex/ai-writer-assistant/internal/books"
)

// defaultRemoteTimeout is generous to tolerate cold starts on the remote
// store; a timeout is treated like any other remote failure.
const defaultRemoteTimeout = 10 * time.Second

// Remote speaks the studio API over JSON/HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
}

// RemoteConfig configures the API client.
type RemoteConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewRemote constructs an API client for the given base URL.
func NewRemote(cfg RemoteConfig) *Remote {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	return &Remote{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponsePayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type savePayload struct {
	UserID string       `json:"userId"`
	Books  []books.Book `json:"books"`
}

type saveResponsePayload struct {
	Success bool `json:"success"`
}

type aiRequestPayload struct {
	Content string `json:"content,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Context string `json:"context,omitempty"`
}

type aiResponsePayload struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AIResult pairs a transformation's input with the suggested replacement. It
// is transient: accepted or discarded, never persisted.
type AIResult struct {
	Original   string
	Suggestion string
}

// Signup registers a new account and returns a ready session.
func (r *Remote) Signup(ctx context.Context, email, password string) (Session, error) {
	return r.authenticate(ctx, "/signup", email, password)
}

// Login authenticates an existing account and returns a ready session.
func (r *Remote) Login(ctx context.Context, email, password string) (Session, error) {
	return r.authenticate(ctx, "/login", email, password)
}

func (r *Remote) authenticate(ctx context.Context, path, email, password string) (Session, error) {
	var response authResponsePayload
	err := r.roundTrip(ctx, http.MethodPost, path, "", credentialsPayload{Email: email, Password: password}, &response)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: response.ID, Email: response.Email, Token: response.Token}, nil
}

// FetchBooks reads the full book set for the session's user from the remote
// store.
func (r *Remote) FetchBooks(ctx context.Context, session Session) ([]books.Book, error) {
	if session.ID == "" {
		return nil, ErrNoSession
	}
	path := "/books?userId=" + url.QueryEscape(session.ID)
	var result []books.Book
	if err := r.roundTrip(ctx, http.MethodGet, path, session.Token, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// PushBooks replaces the full book set for the session's user on the remote
// store.
func (r *Remote) PushBooks(ctx context.Context, session Session, tree []books.Book) error {
	if session.ID == "" {
		return ErrNoSession
	}
	var response saveResponsePayload
	err := r.roundTrip(ctx, http.MethodPost, "/save", session.Token, savePayload{UserID: session.ID, Books: tree}, &response)
	if err != nil {
		return err
	}
	if !response.Success {
		return &RemoteRejectedError{Status: http.StatusOK, Message: "save not acknowledged"}
	}
	return nil
}

// FixGrammar requests a grammar correction for an HTML fragment.
func (r *Remote) FixGrammar(ctx context.Context, session Session, content string) (AIResult, error) {
	var response aiResponsePayload
	err := r.roundTrip(ctx, http.MethodPost, "/ai/grammar", session.Token, aiRequestPayload{Content: content}, &response)
	if err != nil {
		return AIResult{}, err
	}
	return AIResult{Original: response.Original, Suggestion: response.Suggestion}, nil
}

// ExpandText requests a prose expansion of a snippet within its chapter
// context.
func (r *Remote) ExpandText(ctx context.Context, session Session, snippet, chapterHTML string) (AIResult, error) {
	var response aiResponsePayload
	err := r.roundTrip(ctx, http.MethodPost, "/ai/expand", session.Token, aiRequestPayload{Snippet: snippet, Context: chapterHTML}, &response)
	if err != nil {
		return AIResult{}, err
	}
	return AIResult{Original: response.Original, Suggestion: response.Suggestion}, nil
}

func (r *Remote) roundTrip(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := r.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetworkUnreachable, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var remoteErr errorPayload
		message := ""
		if json.Unmarshal(payload, &remoteErr) == nil {
			message = remoteErr.Error
			if remoteErr.Details != "" {
				message = message + ": " + remoteErr.Details
			}
		}
		return &RemoteRejectedError{Status: response.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

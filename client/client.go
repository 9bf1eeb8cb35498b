// Package client is the Go SDK for the Picstream API. It wraps the HTTP
// surface with typed records, transparent token refresh, bounded retries for
// idempotent reads, and the optimistic interaction reconciler used by UIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a Picstream backend on behalf of one user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	gate       *Gate
	retry      RetryConfig

	sessions *sessionState
}

// Config holds client construction options.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.picstream.example".
	BaseURL string
	// HTTPClient overrides the default 30s-timeout client.
	HTTPClient *http.Client
	// Store persists the session pair. Defaults to an in-memory store.
	Store TokenStore
	// Gate, when set, is fed session changes so UIs can route on auth state.
	Gate *Gate
	// Retry bounds retries of idempotent reads. Zero value disables retries.
	Retry RetryConfig
}

// New constructs a client and restores any session the store holds.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryTokenStore()
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		store:      store,
		gate:       cfg.Gate,
		retry:      cfg.Retry,
		sessions:   &sessionState{},
	}

	session, err := store.Load()
	switch {
	case err == nil:
		c.sessions.set(session)
		c.notifyGate(session.UserID, session.Tokens.AccessToken)
	case errors.Is(err, ErrNoSession):
		c.notifySignedOut()
	default:
		return nil, err
	}

	return c, nil
}

// UserID returns the signed-in identity, or "" when signed out.
func (c *Client) UserID() string {
	session, ok := c.sessions.get()
	if !ok {
		return ""
	}
	return session.UserID
}

// SignUp registers a new account and stores the issued session.
func (c *Client) SignUp(ctx context.Context, email, password, username string) (Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	})
}

// SignIn authenticates an existing account and stores the issued session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (Session, error) {
	var resp struct {
		UserID string        `json:"userId"`
		Tokens SessionTokens `json:"tokens"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp, requestOptions{}); err != nil {
		return Session{}, err
	}

	session := Session{UserID: resp.UserID, Tokens: resp.Tokens}
	c.sessions.set(session)
	if err := c.store.Save(session); err != nil {
		return Session{}, err
	}
	c.notifyGate(session.UserID, session.Tokens.AccessToken)

	return session, nil
}

// SignOut revokes the session server-side and clears local state. The local
// session is discarded even when the revocation call fails.
func (c *Client) SignOut(ctx context.Context) error {
	session, ok := c.sessions.get()
	if !ok {
		return nil
	}

	reqErr := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signout", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	}, nil, requestOptions{authenticated: true})

	c.sessions.clear()
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.notifySignedOut()

	return reqErr
}

// UsernameAvailable reports whether a candidate username can still be
// claimed. Any transport or decode failure reads as unavailable so callers
// never create a duplicate on bad information.
func (c *Client) UsernameAvailable(ctx context.Context, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}

	var resp struct {
		Available bool `json:"available"`
	}
	path := "/api/v1/auth/username-available?username=" + url.QueryEscape(candidate)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, requestOptions{idempotent: true}); err != nil {
		return false
	}

	return resp.Available
}

// Profile fetches a profile by id.
func (c *Client) Profile(ctx context.Context, id string) (Profile, error) {
	var profile Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/profiles/"+url.PathEscape(id), nil, &profile,
		requestOptions{authenticated: true, idempotent: true})
	return profile, err
}

// ProfileByUsername fetches a profile by its handle.
func (c *Client) ProfileByUsername(ctx context.Context, username string) (Profile, error) {
	var profile Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/profiles/username/"+url.PathEscape(username), nil, &profile,
		requestOptions{authenticated: true, idempotent: true})
	return profile, err
}

// ProfileUpdate carries the owner-editable profile fields. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// UpdateProfile patches the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	var profile Profile
	err := c.doJSON(ctx, http.MethodPatch, "/api/v1/profiles/me", update, &profile,
		requestOptions{authenticated: true})
	return profile, err
}

// UpdateAvatar replaces the signed-in user's avatar image.
func (c *Client) UpdateAvatar(ctx context.Context, contentType string, image io.Reader) (Profile, error) {
	var profile Profile
	err := c.doMultipart(ctx, http.MethodPut, "/api/v1/profiles/me/avatar", contentType, image, nil, &profile)
	return profile, err
}

// CreatePost uploads a new post. The response arrives before media ingestion
// completes; MediaStatus starts as "pending".
func (c *Client) CreatePost(ctx context.Context, caption, contentType string, image io.Reader) (Post, error) {
	var post Post
	err := c.doMultipart(ctx, http.MethodPost, "/api/v1/posts", contentType, image,
		map[string]string{"caption": caption}, &post)
	return post, err
}

// GetPost fetches a single post with viewer flags.
func (c *Client) GetPost(ctx context.Context, id string) (Post, error) {
	var post Post
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(id), nil, &post,
		requestOptions{authenticated: true, idempotent: true})
	return post, err
}

// DeletePost removes one of the signed-in user's posts.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/posts/"+url.PathEscape(id), nil, nil,
		requestOptions{authenticated: true})
}

// PostsByOwner lists a user's ready posts.
func (c *Client) PostsByOwner(ctx context.Context, ownerID string) ([]Post, error) {
	var posts []Post
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/profiles/"+url.PathEscape(ownerID)+"/posts", nil, &posts,
		requestOptions{authenticated: true, idempotent: true})
	return posts, err
}

// Feed fetches the home feed, newest first. A non-positive limit takes the
// server default.
func (c *Client) Feed(ctx context.Context, limit int) ([]Post, error) {
	path := "/api/v1/feed"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var posts []Post
	err := c.doJSON(ctx, http.MethodGet, path, nil, &posts,
		requestOptions{authenticated: true, idempotent: true})
	return posts, err
}

// SavedPosts lists the posts the signed-in user has saved.
func (c *Client) SavedPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/posts/saved", nil, &posts,
		requestOptions{authenticated: true, idempotent: true})
	return posts, err
}

// Like marks a post liked. Repeats converge silently server-side.
func (c *Client) Like(ctx context.Context, postID string) error {
	return c.toggle(ctx, http.MethodPost, postID, "like")
}

// Unlike removes a like.
func (c *Client) Unlike(ctx context.Context, postID string) error {
	return c.toggle(ctx, http.MethodDelete, postID, "like")
}

// SavePost bookmarks a post.
func (c *Client) SavePost(ctx context.Context, postID string) error {
	return c.toggle(ctx, http.MethodPost, postID, "save")
}

// UnsavePost removes a bookmark.
func (c *Client) UnsavePost(ctx context.Context, postID string) error {
	return c.toggle(ctx, http.MethodDelete, postID, "save")
}

func (c *Client) toggle(ctx context.Context, method, postID, action string) error {
	path := "/api/v1/posts/" + url.PathEscape(postID) + "/" + action
	return c.doJSON(ctx, method, path, nil, nil, requestOptions{authenticated: true})
}

// CreateComment posts a comment.
func (c *Client) CreateComment(ctx context.Context, postID, content string) (Comment, error) {
	var comment Comment
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/posts/"+url.PathEscape(postID)+"/comments",
		map[string]string{"content": content}, &comment, requestOptions{authenticated: true})
	return comment, err
}

// Comments lists a post's comments, oldest first.
func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(postID)+"/comments", nil, &comments,
		requestOptions{authenticated: true, idempotent: true})
	return comments, err
}

// DeleteComment removes a comment the signed-in user may moderate.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/comments/"+url.PathEscape(commentID), nil, nil,
		requestOptions{authenticated: true})
}

// Follow adds the signed-in user as a follower of userID.
func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(userID)+"/follow", nil, nil,
		requestOptions{authenticated: true})
}

// Unfollow removes a follow edge.
func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(userID)+"/follow", nil, nil,
		requestOptions{authenticated: true})
}

// Followers lists a user's followers.
func (c *Client) Followers(ctx context.Context, userID string) ([]Profile, error) {
	var profiles []Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID)+"/followers", nil, &profiles,
		requestOptions{authenticated: true, idempotent: true})
	return profiles, err
}

// Following lists who a user follows.
func (c *Client) Following(ctx context.Context, userID string) ([]Profile, error) {
	var profiles []Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID)+"/following", nil, &profiles,
		requestOptions{authenticated: true, idempotent: true})
	return profiles, err
}

// CreateStory uploads a story visible for the next 24 hours.
func (c *Client) CreateStory(ctx context.Context, contentType string, image io.Reader) (Story, error) {
	var story Story
	err := c.doMultipart(ctx, http.MethodPost, "/api/v1/stories", contentType, image, nil, &story)
	return story, err
}

// ActiveStories lists unexpired stories from the signed-in user and everyone
// they follow.
func (c *Client) ActiveStories(ctx context.Context) ([]Story, error) {
	var stories []Story
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/stories", nil, &stories,
		requestOptions{authenticated: true, idempotent: true})
	return stories, err
}

// ViewStory records that the signed-in user saw a story.
func (c *Client) ViewStory(ctx context.Context, storyID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/stories/"+url.PathEscape(storyID)+"/view", nil, nil,
		requestOptions{authenticated: true})
}

// StoryViewers lists who saw one of the signed-in user's stories.
func (c *Client) StoryViewers(ctx context.Context, storyID string) ([]Profile, error) {
	var profiles []Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/stories/"+url.PathEscape(storyID)+"/viewers", nil, &profiles,
		requestOptions{authenticated: true, idempotent: true})
	return profiles, err
}

// Reconciler returns an optimistic toggle reconciler bound to this client.
func (c *Client) Reconciler() *Reconciler {
	return NewReconciler(remoteFunc(func(ctx context.Context, itemID string, kind ToggleKind, active bool) error {
		switch {
		case kind == ToggleLike && active:
			return c.Like(ctx, itemID)
		case kind == ToggleLike:
			return c.Unlike(ctx, itemID)
		case kind == ToggleSave && active:
			return c.SavePost(ctx, itemID)
		default:
			return c.UnsavePost(ctx, itemID)
		}
	}))
}

type requestOptions struct {
	authenticated bool
	idempotent    bool
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts requestOptions) error {
	var payload []byte
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, payload, out, opts)
}

// doMultipart issues an authenticated multipart upload with an image part
// plus optional text fields.
func (c *Client) doMultipart(ctx context.Context, method, path, imageType string, image io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="image"`)
	header.Set("Content-Type", imageType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	return c.do(ctx, method, path, writer.FormDataContentType(), buf.Bytes(), out,
		requestOptions{authenticated: true})
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any, opts requestOptions) error {
	maxAttempts := 1
	if opts.idempotent && c.retry.MaxRetries > 0 {
		maxAttempts = c.retry.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.retry.backoffFor(attempt)); err != nil {
				return err
			}
		}

		resp, err := c.roundTrip(ctx, method, path, contentType, body, opts)
		if err != nil {
			lastErr = err
			if retryableError(err) {
				continue
			}
			return err
		}

		if opts.idempotent && retryableStatus(resp.StatusCode) {
			resp.Body.Close()
			lastErr = &APIError{Status: resp.StatusCode}
			continue
		}

		return c.consume(resp, out)
	}

	return lastErr
}

// roundTrip performs one HTTP exchange, refreshing the session once on a 401.
func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, body []byte, opts requestOptions) (*http.Response, error) {
	send := func(accessToken string) (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}
		return c.httpClient.Do(req)
	}

	accessToken := ""
	if opts.authenticated {
		session, ok := c.sessions.get()
		if !ok {
			return nil, ErrSignedOut
		}
		accessToken = session.Tokens.AccessToken
	}

	resp, err := send(accessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && opts.authenticated {
		resp.Body.Close()
		refreshed, err := c.refreshSession(ctx)
		if err != nil {
			return nil, err
		}
		return send(refreshed.Tokens.AccessToken)
	}

	return resp, nil
}

// refreshSession rotates the refresh token. An irrecoverable rejection
// discards the stored session and reports ErrSignedOut.
func (c *Client) refreshSession(ctx context.Context) (Session, error) {
	session, ok := c.sessions.get()
	if !ok {
		return Session{}, ErrSignedOut
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": session.Tokens.RefreshToken})
	if err != nil {
		return Session{}, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return Session{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.forceSignOut()
		return Session{}, ErrSignedOut
	}
	if resp.StatusCode != http.StatusOK {
		return Session{}, readAPIError(resp)
	}

	var refreshed struct {
		Tokens SessionTokens `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		return Session{}, &SchemaError{Type: "session tokens", Err: err}
	}

	session.Tokens = refreshed.Tokens
	c.sessions.set(session)
	if err := c.store.Save(session); err != nil {
		return Session{}, err
	}
	c.notifyGate(session.UserID, session.Tokens.AccessToken)

	return session, nil
}

func (c *Client) forceSignOut() {
	c.sessions.clear()
	_ = c.store.Clear()
	c.notifySignedOut()
}

func (c *Client) consume(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &SchemaError{Type: fmt.Sprintf("%T", out), Err: err}
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = envelope.Error
	}

	return apiErr
}

func (c *Client) notifyGate(userID, accessToken string) {
	if c.gate != nil {
		c.gate.SetSession(userID, accessToken)
	}
}

func (c *Client) notifySignedOut() {
	if c.gate != nil {
		c.gate.ClearSession()
	}
}

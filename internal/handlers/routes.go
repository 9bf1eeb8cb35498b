package handlers

import (
	"net/http"
	"time"

	"github.com/picstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Profiles     ProfileStore
	Posts        PostStore
	Interactions InteractionStore
	Comments     CommentStore
	Follows      FollowStore
	Stories      StoryStore

	Sessions SessionManager
	Verifier middleware.TokenVerifier
	Ingestor MediaIngestor
	Blobs    BlobStore
	Events   EventPublisher
	Hub      ChangeStreamer

	AuthLimiter       RateLimiter
	PasswordMinLength int
	MaxUploadSize     int64
	NowFunc           func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Users:             deps.Users,
		Profiles:          deps.Profiles,
		Sessions:          deps.Sessions,
		Events:            deps.Events,
		Limiter:           deps.AuthLimiter,
		PasswordMinLength: deps.PasswordMinLength,
		NowFunc:           deps.NowFunc,
	}
	profiles := ProfileHandler{Profiles: deps.Profiles, Blobs: deps.Blobs, Events: deps.Events, MaxUploadSize: deps.MaxUploadSize}
	posts := PostHandler{Posts: deps.Posts, Ingestor: deps.Ingestor, Events: deps.Events, MaxUploadSize: deps.MaxUploadSize, NowFunc: deps.NowFunc}
	interactions := InteractionHandler{Interactions: deps.Interactions, Events: deps.Events}
	comments := CommentHandler{Comments: deps.Comments, Events: deps.Events, NowFunc: deps.NowFunc}
	follows := FollowHandler{Follows: deps.Follows, Events: deps.Events}
	stories := StoryHandler{Stories: deps.Stories, Blobs: deps.Blobs, Events: deps.Events, MaxUploadSize: deps.MaxUploadSize, NowFunc: deps.NowFunc}
	stream := RealtimeHandler{Hub: deps.Hub}

	authn := middleware.Authenticate(deps.Verifier)
	protected := func(h http.HandlerFunc) http.Handler { return authn(h) }

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("GET /api/v1/auth/username-available", auth.UsernameAvailable)
	mux.Handle("POST /api/v1/auth/signout", protected(auth.SignOut))

	mux.Handle("GET /api/v1/profiles/{id}", protected(profiles.Get))
	mux.Handle("GET /api/v1/profiles/username/{username}", protected(profiles.GetByUsername))
	mux.Handle("PATCH /api/v1/profiles/me", protected(profiles.UpdateMe))
	mux.Handle("PUT /api/v1/profiles/me/avatar", protected(profiles.UpdateAvatar))
	mux.Handle("GET /api/v1/profiles/{id}/posts", protected(posts.ListByOwner))

	mux.Handle("POST /api/v1/posts", protected(posts.Create))
	mux.Handle("GET /api/v1/posts/saved", protected(interactions.ListSaved))
	mux.Handle("GET /api/v1/posts/{id}", protected(posts.Get))
	mux.Handle("DELETE /api/v1/posts/{id}", protected(posts.Delete))
	mux.Handle("GET /api/v1/feed", protected(posts.Feed))

	mux.Handle("POST /api/v1/posts/{id}/like", protected(interactions.Like))
	mux.Handle("DELETE /api/v1/posts/{id}/like", protected(interactions.Unlike))
	mux.Handle("POST /api/v1/posts/{id}/save", protected(interactions.Save))
	mux.Handle("DELETE /api/v1/posts/{id}/save", protected(interactions.Unsave))

	mux.Handle("POST /api/v1/posts/{id}/comments", protected(comments.Create))
	mux.Handle("GET /api/v1/posts/{id}/comments", protected(comments.List))
	mux.Handle("DELETE /api/v1/comments/{id}", protected(comments.Delete))

	mux.Handle("POST /api/v1/users/{id}/follow", protected(follows.Follow))
	mux.Handle("DELETE /api/v1/users/{id}/follow", protected(follows.Unfollow))
	mux.Handle("GET /api/v1/users/{id}/followers", protected(follows.Followers))
	mux.Handle("GET /api/v1/users/{id}/following", protected(follows.Following))

	mux.Handle("POST /api/v1/stories", protected(stories.Create))
	mux.Handle("GET /api/v1/stories", protected(stories.ListActive))
	mux.Handle("POST /api/v1/stories/{id}/view", protected(stories.MarkViewed))
	mux.Handle("GET /api/v1/stories/{id}/viewers", protected(stories.ListViewers))

	mux.Handle("GET /api/v1/realtime", protected(stream.Stream))
}

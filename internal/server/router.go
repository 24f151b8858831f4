// Package server wires the services into the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skilltrade/backend/internal/handlers"
	appMiddleware "github.com/skilltrade/backend/internal/middleware"
	"github.com/skilltrade/backend/internal/services"
	"github.com/skilltrade/backend/internal/web"
	ws "github.com/skilltrade/backend/internal/websocket"
)

// Deps is everything the router needs.
type Deps struct {
	Sessions  *appMiddleware.Sessions
	Profiles  *services.ProfileService
	Posts     *services.PostService
	Feed      *services.FeedService
	Messaging *services.MessagingService
	Images    *services.ImageService
	Hub       *ws.Hub
	Renderer  *web.Renderer

	AllowedOrigins  []string
	UploadDir       string
	MaxUploadSizeMB int64
}

func NewRouter(d Deps) http.Handler {
	accountHandler := handlers.NewAccountHandler(d.Profiles, d.Feed, d.Messaging)
	profileHandler := handlers.NewProfileHandler(d.Profiles)
	postHandler := handlers.NewPostHandler(d.Posts, d.Feed)
	messageHandler := handlers.NewMessageHandler(d.Messaging)
	imageHandler := handlers.NewImageHandler(d.Images, d.MaxUploadSizeMB)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)
	pages := handlers.NewPageHandler(d.Profiles, d.Posts, d.Feed, d.Messaging, d.Images, d.Renderer, d.MaxUploadSizeMB)

	requireProfilePage := appMiddleware.RequireProfilePage(d.Profiles)
	requireProfileAPI := appMiddleware.RequireProfileAPI(d.Profiles)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))

	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Middleware)

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   d.AllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
				ExposedHeaders:   []string{"Link"},
				AllowCredentials: true,
				MaxAge:           300,
			}))

			r.Get("/session", accountHandler.Session)
			r.Post("/logout", accountHandler.Logout)
			r.Delete("/account", accountHandler.DeleteAccount)

			r.Post("/profile", profileHandler.CreateProfile)
			r.Get("/posts", postHandler.ListPosts)
			r.Post("/posts", postHandler.CreatePost)
			r.Post("/upload", imageHandler.Upload)
			r.Delete("/upload/{imageId}", imageHandler.Delete)

			// Profile required
			r.Group(func(r chi.Router) {
				r.Use(requireProfileAPI)

				r.Get("/profile", profileHandler.GetProfile)
				r.Put("/profile", profileHandler.UpdateProfile)

				r.Get("/feed", postHandler.Feed)
				r.Post("/feed/{postId}/like", postHandler.ToggleLike)

				r.Route("/conversations", func(r chi.Router) {
					r.Get("/", messageHandler.ListConversations)
					r.Post("/open", messageHandler.OpenConversation)
					r.Get("/{conversationId}", messageHandler.GetConversation)
					r.Post("/{conversationId}/messages", messageHandler.SendMessage)
				})

				r.Get("/ws", wsHandler.Serve)
			})

			r.NotFound(handlers.APINotFound)
		})

		r.Get("/", pages.Static("index", "Home"))
		r.Get("/skills", pages.Static("skills", "Skills"))
		r.Get("/trades", pages.Static("trades", "Trades"))
		r.Get("/about", pages.Static("about", "About"))
		r.Get("/settings", pages.Static("settings", "Settings"))

		r.Get("/create-profile", pages.CreateProfileForm)
		r.Post("/create-profile", pages.CreateProfile)
		r.Get("/create-post", pages.CreatePostForm)
		r.Post("/create-post", pages.CreatePost)
		r.Post("/logout", pages.Logout)

		// Profile required
		r.Group(func(r chi.Router) {
			r.Use(requireProfilePage)

			r.Get("/feed", pages.Feed)
			r.Post("/feed/{postId}/like", pages.ToggleLike)
			r.Get("/profile", pages.Profile)
			r.Get("/edit-profile", pages.EditProfileForm)
			r.Post("/edit-profile", pages.EditProfile)
			r.Get("/messages", pages.Messages)
			r.Post("/messages/open", pages.OpenConversation)
			r.Post("/messages/{conversationId}", pages.SendMessage)
		})

		r.NotFound(pages.NotFound)
	})

	return r
}

package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/event-portal/docs"
	"github.com/Dosada05/event-portal/handlers"
	"github.com/Dosada05/event-portal/middleware"
)

type Handlers struct {
	Event        *handlers.EventHandler
	Registration *handlers.RegistrationHandler
	Profile      *handlers.ProfileHandler
	Notification *handlers.NotificationHandler
	CheckIn      *handlers.CheckInHandler
	WebSocket    *handlers.WebSocketHandler
}

type Options struct {
	Auth           *middleware.Authenticator
	SubmitLimiter  *middleware.RateLimiter
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// websocket живет дольше таймаута запросов
	router.With(opts.Auth.AuthenticateQuery).Get("/ws/notifications", h.WebSocket.ServeNotifications)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Event.ListEvents)
			r.Get("/{eventID}", h.Event.GetEvent)

			r.Route("/{eventID}/registration", func(r chi.Router) {
				r.With(opts.Auth.OptionalAuthenticate).Get("/", h.Registration.GetRegistrationState)

				r.Group(func(r chi.Router) {
					r.Use(opts.Auth.Authenticate)
					r.With(opts.SubmitLimiter.Middleware(middleware.ByIdentity)).Post("/", h.Registration.Register)
					r.Post("/submission", h.Registration.SubmitDeliverable)
				})
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(opts.Auth.Authenticate)

			r.Get("/", h.Profile.GetOverview)
			r.Get("/profile", h.Profile.GetProfile)
			r.Put("/profile", h.Profile.UpdateProfile)
			r.Post("/profile/avatar", h.Profile.UploadAvatar)
			r.Get("/registrations", h.Profile.ListRegistrations)
			r.Get("/registrations/{eventID}/ticket", h.Profile.GetTicket)
			r.Get("/notifications", h.Notification.ListNotifications)
			r.Post("/notifications/{notificationID}/read", h.Notification.MarkRead)
		})

		r.With(opts.Auth.Authenticate, middleware.RequireOrganizer).Post("/checkin", h.CheckIn.CheckIn)
	})
}

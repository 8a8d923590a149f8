package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"movie-votr-api/internal/handler"
	"movie-votr-api/internal/middleware"
	"movie-votr-api/internal/service"
)

// Services are the domain services the routes are served by.
type Services struct {
	Auth    *service.AuthService
	Groups  *service.GroupService
	Movies  *service.MovieService
	Polls   *service.PollService
	Watched *service.WatchedService
	Admin   *service.AdminService
}

// Options tune the app around the routes.
type Options struct {
	APIPrefix   string
	RateLimiter *middleware.RateLimiter
	SwaggerYAML []byte
	AccessLog   bool
}

// New builds the Fiber app with every route mounted.
func New(svc Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Movie Votr API",
		ServerHeader: "Movie-Votr",
		ErrorHandler: handler.ErrorHandler,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	if opts.SwaggerYAML != nil {
		handler.RegisterSwagger(app, opts.SwaggerYAML)
	}

	limiter := opts.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil, 0, 0)
	}

	authH := handler.NewAuthHandler(svc.Auth)
	groupH := handler.NewGroupHandler(svc.Groups)
	movieH := handler.NewMovieHandler(svc.Movies)
	pollH := handler.NewPollHandler(svc.Polls)
	watchedH := handler.NewWatchedHandler(svc.Watched)
	adminH := handler.NewAdminHandler(svc.Admin, svc.Polls, svc.Movies)

	requireUser := middleware.RequireUser(svc.Auth)

	api := app.Group(opts.APIPrefix)
	api.Get("/health", handler.Health)

	// Public auth routes
	api.Post("/register", limiter.Handler("register"), authH.Register)
	api.Post("/login", limiter.Handler("login"), authH.Login)
	api.Post("/login/oauth", limiter.Handler("login"), authH.LoginOAuth)

	users := api.Group("/users", requireUser)
	users.Get("/me", authH.Me)
	users.Get("/:id", authH.GetUser)

	groups := api.Group("/groups", requireUser)
	groups.Post("/", groupH.Create)
	groups.Get("/", groupH.List)
	groups.Get("/:id", groupH.Get)
	groups.Post("/:id/join", groupH.Join)
	groups.Post("/:id/watched", watchedH.Log)
	groups.Get("/:id/watched", watchedH.List)

	movies := api.Group("/movies", requireUser)
	movies.Get("/tmdb/search", movieH.Search)
	movies.Post("/catalog", movieH.AddToCatalog)
	movies.Get("/catalog", movieH.ListCatalog)
	movies.Get("/catalog/:id", movieH.GetCatalogMovie)

	polls := api.Group("/polls", requireUser)
	polls.Post("/groups/:group_id/polls", pollH.Create)
	polls.Get("/groups/:group_id/polls", pollH.ListActive)
	polls.Get("/:id", pollH.Get)
	polls.Post("/:id/vote", pollH.Vote)
	polls.Post("/:id/close", pollH.Close)

	watched := api.Group("/watched", requireUser)
	watched.Put("/:id/rating", watchedH.Rate)
	watched.Get("/:id/ratings", watchedH.Ratings)

	admin := api.Group("/admin", requireUser, middleware.RequireSuperuser())
	admin.Get("/users", adminH.ListUsers)
	admin.Get("/users/:id", adminH.GetUser)
	admin.Delete("/users/:id", adminH.DeleteUser)
	admin.Get("/groups", adminH.ListGroups)
	admin.Get("/groups/:id", adminH.GetGroup)
	admin.Delete("/groups/:id", adminH.DeleteGroup)
	admin.Get("/polls", adminH.ListPolls)
	admin.Post("/polls", adminH.CreatePoll)
	admin.Get("/polls/:id", adminH.GetPoll)
	admin.Delete("/polls/:id", adminH.DeletePoll)
	admin.Delete("/movies/:id", adminH.DeleteMovie)

	return app
}

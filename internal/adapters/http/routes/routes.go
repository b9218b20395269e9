package routes

import (
	"time"

	"estatehub/internal/adapters/http/handlers"
	"estatehub/internal/adapters/http/middleware"
	"estatehub/internal/adapters/persistence/repositories"
	"estatehub/internal/config"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup configures all routes for the application.
// storageService may be nil when no bucket is configured.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, log *zap.Logger, storageService *services.StorageService) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	listingRepo := repositories.NewListingRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)

	// Initialize services
	issuer := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	authService := services.NewAuthService(userRepo, refreshTokenRepo, issuer, log)
	profileService := services.NewProfileService(profileRepo, log)
	listingService := services.NewListingService(listingRepo, log)
	cartService := services.NewCartService(cartRepo, listingRepo, log)
	favoriteService := services.NewFavoriteService(favoriteRepo, listingRepo)
	dashboardService := services.NewDashboardService(userRepo, profileRepo, listingRepo, cartRepo, favoriteRepo)

	// Initialize handlers
	h := &routeHandlers{
		health:    handlers.NewHealthHandler(db, cfg.AppMode),
		auth:      handlers.NewAuthHandler(authService, cfg),
		profile:   handlers.NewProfileHandler(profileService),
		listing:   handlers.NewListingHandler(listingService),
		cart:      handlers.NewCartHandler(cartService),
		favorite:  handlers.NewFavoriteHandler(favoriteService),
		storage:   handlers.NewStorageHandler(storageService),
		payment:   handlers.NewPaymentHandler(listingService),
		dashboard: handlers.NewDashboardHandler(dashboardService),
	}
	guards := &routeGuards{
		auth:     middleware.AuthMiddleware(authService),
		role:     middleware.ResolveRole(profileService),
		admin:    middleware.RequireAdmin(),
		noCache:  middleware.NoCacheHeaders(),
		authRate: middleware.AuthRateLimiter(),
	}

	// Health check & root routes
	app.Get("/", h.health.Root)
	app.Get("/health", h.health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group; every request carries the anon key
	apiV1 := app.Group("/api/v1", middleware.APIKey(cfg.API.AnonKey))
	setupAPIV1Routes(apiV1, h, guards)
}

type routeHandlers struct {
	health    *handlers.HealthHandler
	auth      *handlers.AuthHandler
	profile   *handlers.ProfileHandler
	listing   *handlers.ListingHandler
	cart      *handlers.CartHandler
	favorite  *handlers.FavoriteHandler
	storage   *handlers.StorageHandler
	payment   *handlers.PaymentHandler
	dashboard *handlers.DashboardHandler
}

type routeGuards struct {
	auth     fiber.Handler
	role     fiber.Handler
	admin    fiber.Handler
	noCache  fiber.Handler
	authRate fiber.Handler
}

// signedIn is auth followed by a fresh role lookup
func (g *routeGuards) signedIn() []fiber.Handler {
	return []fiber.Handler{g.auth, g.role}
}

// adminOnly adds the admin check on top of signedIn
func (g *routeGuards) adminOnly() []fiber.Handler {
	return []fiber.Handler{g.auth, g.role, g.admin}
}

func with(guards []fiber.Handler, h fiber.Handler) []fiber.Handler {
	return append(guards, h)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h *routeHandlers, g *routeGuards) {
	// Auth routes
	auth := router.Group("/auth", g.noCache)
	auth.Post("/signup", g.authRate, h.auth.SignUp)
	auth.Post("/signin", g.authRate, h.auth.SignIn)
	auth.Post("/refresh", g.authRate, h.auth.Refresh)
	auth.Post("/signout", h.auth.SignOut)
	auth.Post("/signout-all", with(g.signedIn(), h.auth.SignOutAll)...)
	auth.Get("/session", with(g.signedIn(), h.auth.Session)...)

	// Profile routes
	profiles := router.Group("/profiles", g.noCache)
	profiles.Get("/me", with(g.signedIn(), h.profile.GetMe)...)
	profiles.Put("/me", with(g.signedIn(), h.profile.UpdateMe)...)
	profiles.Post("/", with(g.signedIn(), h.profile.Create)...)
	profiles.Get("/", with(g.adminOnly(), h.profile.List)...)
	profiles.Get("/:id", with(g.signedIn(), h.profile.GetByID)...)
	profiles.Put("/:id/role", with(g.adminOnly(), h.profile.ChangeRole)...)

	// Listing routes (reads are public)
	listings := router.Group("/listings")
	listings.Get("/", middleware.CacheControl(30*time.Second), h.listing.List)
	listings.Post("/batch", h.listing.Batch)
	listings.Get("/:id", middleware.CacheControl(30*time.Second), h.listing.GetByID)
	listings.Post("/", with(g.adminOnly(), h.listing.Create)...)
	listings.Put("/:id", with(g.signedIn(), h.listing.Update)...)
	listings.Delete("/:id", with(g.signedIn(), h.listing.Delete)...)

	// Cart routes
	cart := router.Group("/cart", g.noCache)
	cart.Get("/", with(g.signedIn(), h.cart.List)...)
	cart.Post("/", with(g.signedIn(), h.cart.Add)...)
	cart.Delete("/", with(g.signedIn(), h.cart.Clear)...)
	cart.Delete("/:listingID", with(g.signedIn(), h.cart.Remove)...)

	// Favorite routes
	favorites := router.Group("/favorites", g.noCache)
	favorites.Get("/", with(g.signedIn(), h.favorite.List)...)
	favorites.Post("/", with(g.signedIn(), h.favorite.Add)...)
	favorites.Delete("/:listingID", with(g.signedIn(), h.favorite.Remove)...)

	// Storage routes (admin)
	router.Post("/storage/images", with(g.adminOnly(), h.storage.UploadImage)...)

	// Payment estimate
	router.Post("/payment/estimate", with(g.signedIn(), h.payment.Estimate)...)

	// Dashboard
	router.Get("/dashboard", with(g.signedIn(), h.dashboard.GetDashboard)...)
}

package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"menupick/internal/admin"
	"menupick/internal/menuoptions"
	"menupick/internal/user"
	"menupick/internal/utility"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Platform"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	// Liveness
	e.GET("/up", s.healthHandler)

	// Options registry
	e.GET("/menu_options", s.menuOptionsHandler)
	e.GET("/menu_options/food_types", s.foodTypesHandler)
	e.GET("/menu_options/cuisine_types", s.cuisineTypesHandler)
	e.GET("/menu_options/situations", s.situationsHandler)

	// Account lifecycle
	e.POST("/users", user.CreateUserHandler)
	e.GET("/users/:uuid", user.GetUserHandler)
	e.PATCH("/users/:uuid", user.UpdateUserHandler)
	e.DELETE("/users/:uuid", user.DeleteUserHandler)

	// Recommendations
	e.GET("/users/:uuid/recommendations", user.ListRecommendationsHandler)
	e.POST("/users/:uuid/recommendations", user.CreateRecommendationHandler)
	e.PATCH("/users/:uuid/recommendations/:id/respond", user.RespondRecommendationHandler)
	e.GET("/users/:uuid/recommendations/greeting", user.GreetingHandler)
	e.GET("/users/:uuid/recommendations/insights", user.InsightsHandler)

	// Admin surface
	e.GET("/admin/:uuid/verify", admin.VerifyHandler)
	e.GET("/admin/:uuid/cleanup_status", admin.CleanupStatusHandler)
	e.POST("/admin/:uuid/cleanup_run", admin.CleanupRunHandler)
	e.GET("/admin/:uuid/system", admin.SystemStatusHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.db.Health())
}

func (s *Server) menuOptionsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, menuoptions.AllOptions(c.QueryParam("lang")))
}

func (s *Server) foodTypesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"food_types": menuoptions.FoodTypes(c.QueryParam("lang")),
	})
}

func (s *Server) cuisineTypesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"cuisine_types": menuoptions.CuisineTypes(c.QueryParam("lang")),
	})
}

func (s *Server) situationsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"situations": menuoptions.Situations(c.QueryParam("lang")),
	})
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("remote_ip", utility.GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}

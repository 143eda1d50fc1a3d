package server

import (
	"github.com/aidetectsai/detector-api/server/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth   *AuthHandler
	Detect *DetectHandler
	Tokens middleware.TokenValidator
}

// RegisterRoutes wires middleware and routes onto the engine. The
// authentication filter runs on every request; RequireAuth gates only the
// protected groups.
func (s *Server) RegisterRoutes(h Handlers) {
	registerValidators()

	s.engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Authentication(h.Tokens),
	)

	s.engine.GET("/health", h.Detect.Health)

	authGroup := s.engine.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/oauth/:provider", h.Auth.OAuthCallback)
	}

	api := s.engine.Group("/api", middleware.RequireAuth())
	{
		api.POST("/useModel", h.Detect.Analyze)
	}

	admin := s.engine.Group("/admin", middleware.RequireAuth())
	{
		admin.POST("/rekey", h.Auth.Rekey)
	}
}

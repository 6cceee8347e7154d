package server

import (
	"github.com/agri4/agri-server/internal/api"
	"github.com/agri4/agri-server/internal/api/middleware"
	"github.com/agri4/agri-server/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) SetupRoutes(app *app.App) {
	// Health check endpoints
	s.ginEngine.GET("/health", api.Health)
	s.ginEngine.GET("/healthz", api.Health)
	s.ginEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Not an API, just a simple file server endpoint
	s.ginEngine.GET("/file/:filename", handlerWrapper(app, api.GetFile))

	apiKey := handlerWrapper(app, middleware.APIKeyMiddleware)
	r := s.ginEngine.Group("/api")

	r.POST("/upload", handlerWrapper(app, api.UploadFile))

	predict := r.Group("/predict")
	predict.POST("/pest", handlerWrapper(app, api.PredictPest))
	predict.POST("/crop", handlerWrapper(app, api.PredictCrop))
	predict.POST("/multispectral", handlerWrapper(app, api.PredictMultispectral))
	predict.GET("/multispectral", handlerWrapper(app, api.MultispectralStatus))

	r.GET("/models", handlerWrapper(app, api.GetModelStatus))
	r.POST("/models/load", apiKey, handlerWrapper(app, api.LoadModels))

	// The LLM routes share one per-IP rate limit
	llm := r.Group("")
	if limits := app.Config().RateLimit; limits != nil {
		llm.Use(middleware.NewIPRateLimiter(limits.RequestsPerMinute, limits.Burst).Middleware())
	}
	llm.POST("/chat", handlerWrapper(app, api.Chat))
	llm.POST("/chat/stream", handlerWrapper(app, api.ChatStream))
	llm.POST("/consult", handlerWrapper(app, api.Consult))
	llm.GET("/consult/test", handlerWrapper(app, api.ConsultTest))
	llm.POST("/tips", handlerWrapper(app, api.Tips))

	auth := r.Group("/auth")
	auth.POST("/register", handlerWrapper(app, api.Register))
	auth.POST("/login", handlerWrapper(app, api.Login))
	auth.GET("/me", handlerWrapper(app, middleware.JWTMiddleware), handlerWrapper(app, api.Me))

	market := r.Group("/market")
	market.GET("", handlerWrapper(app, api.ListMarketItems))
	market.POST("", apiKey, handlerWrapper(app, api.CreateMarketItem))
	market.DELETE("/:id", apiKey, handlerWrapper(app, api.DeleteMarketItem))

	community := r.Group("/community")
	community.GET("/posts", handlerWrapper(app, api.ListPosts))
	community.POST("/posts", handlerWrapper(app, api.CreatePost))
	community.GET("/posts/:id", handlerWrapper(app, api.GetPost))
	community.DELETE("/posts/:id", handlerWrapper(app, api.DeletePost))
	community.POST("/posts/:id/like", handlerWrapper(app, api.ToggleLike))
	community.GET("/posts/:id/comments", handlerWrapper(app, api.ListComments))
	community.POST("/posts/:id/comments", handlerWrapper(app, api.CreateComment))
	community.DELETE("/comments/:id", handlerWrapper(app, api.DeleteComment))
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}

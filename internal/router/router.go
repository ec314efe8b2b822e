package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/handler"
	"github.com/pupilnest/pupilnest-backend/internal/middleware"
	"github.com/pupilnest/pupilnest-backend/internal/response"
	"github.com/pupilnest/pupilnest-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Subject *handler.SubjectHandler
	Report  *handler.ReportHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// authLimiter throttles login and signup; the caller owns its lifetime.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	authLimiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth (Public, Rate Limited) ────────────────────────────────
	auth := router.Group("")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/signup", authLimiter.Middleware(), handlers.Auth.Signup)
		auth.POST("/logout",
			middleware.RequireStudentJWT(authService),
			middleware.CheckStudentSession(authService),
			handlers.Auth.Logout,
		)
	}

	// ─── 2. Exam (token optional) ──────────────────────────────────────
	// Kiosk clients may run without a login; a token, when sent, pins studentId.
	exam := router.Group("/api")
	exam.Use(middleware.NoStore(), middleware.OptionalStudentJWT(authService))
	{
		exam.POST("/questions", handlers.Exam.GetQuestions)
		exam.POST("/submit-exam", handlers.Exam.SubmitExam)
	}

	// Subjects change rarely; let clients reuse the list for five minutes.
	router.GET("/api/subjects", middleware.CacheControl(300), handlers.Subject.GetAll)

	// ─── 3. Student (JWT + current session) ────────────────────────────
	student := router.Group("/api")
	student.Use(
		middleware.NoStore(),
		middleware.RequireStudentJWT(authService),
		middleware.CheckStudentSession(authService),
	)
	{
		student.GET("/me", handlers.Auth.Me)
		student.GET("/reports", handlers.Report.List)
		student.GET("/reports/summary", handlers.Report.Summary)
	}

	// ─── 4. WebSocket (feed token) ─────────────────────────────────────
	router.GET("/ws/results", handlers.WS.ResultsFeed)

	return router
}

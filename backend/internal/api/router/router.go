package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/api/handler"
	"literacy-hub/backend/internal/api/middleware"
	"literacy-hub/backend/internal/model"
	"literacy-hub/backend/pkg/jwt"
	"literacy-hub/backend/pkg/reporter"
)

// Store is the redis surface the middleware needs. nil when redis is down.
type Store interface {
	middleware.TokenBlacklist
	middleware.RateLimiter
}

// publicSubmitLimit submissions per minute per IP on the public quiz endpoint.
const publicSubmitLimit = 30

// Setup builds the gin engine.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, store Store, logger *zap.Logger, rep reporter.Reporter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// a nil Store must reach the middleware as a nil interface
	var blacklist middleware.TokenBlacklist
	var limiter middleware.RateLimiter
	if store != nil {
		blacklist, limiter = store, store
	}

	// ── global middleware ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger, rep))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── health & metrics ──
	r.GET("/health", func(c *gin.Context) {
		redisStatus := "up"
		if store == nil {
			redisStatus = "down"
		}
		c.JSON(200, gin.H{"status": "ok", "redis": redisStatus})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// ── auth (public) ──
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// ── quiz join (public) ──
		join := api.Group("/quiz/join/:code")
		{
			join.GET("", h.Quiz.JoinQuiz)
			join.POST("/submit", middleware.RateLimit(limiter, publicSubmitLimit, time.Minute), h.Quiz.SubmitQuiz)
		}

		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			authorized.GET("/profile", h.Profile.GetProfile)
			authorized.PUT("/profile", h.Profile.UpdateProfile)

			registerSuperAdmin(authorized, h)
			registerMasterTeacher(authorized, h)
			registerCoordinator(authorized, h)
			registerClassTeacher(authorized, h, model.RoleTeacher)
			registerClassTeacher(authorized, h, model.RoleRemedialTeacher)

			// quizzes; drafts come before :id
			quizzes := authorized.Group("/quizzes")
			{
				quizzes.GET("/drafts", h.Quiz.ListDrafts)
				quizzes.POST("/drafts", h.Quiz.SaveDraft)
				quizzes.GET("/drafts/:draft_id", h.Quiz.GetDraft)
				quizzes.PUT("/drafts/:draft_id", h.Quiz.SaveDraft)
				quizzes.DELETE("/drafts/:draft_id", h.Quiz.DeleteDraft)

				quizzes.GET("", h.Quiz.ListQuizzes)
				quizzes.POST("", h.Quiz.CreateQuiz)
				quizzes.GET("/:id", h.Quiz.GetQuiz)
				quizzes.PUT("/:id", h.Quiz.UpdateQuiz)
				quizzes.DELETE("/:id", h.Quiz.DeleteQuiz)
				quizzes.POST("/:id/publish", h.Quiz.PublishQuiz)
				quizzes.POST("/:id/close", h.Quiz.CloseQuiz)
				quizzes.GET("/:id/qr", h.Quiz.QRCode)
				quizzes.GET("/:id/responses", h.Quiz.Responses)
				quizzes.GET("/:id/responses/export", h.Quiz.ExportResponses)
			}

			// flashcards
			cardEditors := middleware.RoleAuth(model.RoleSuperAdmin, model.RoleMasterTeacher, model.RoleRemedialTeacher)
			flashcards := authorized.Group("/flashcards")
			{
				flashcards.GET("", h.Flashcard.ListFlashcards)
				flashcards.POST("", cardEditors, h.Flashcard.CreateFlashcard)
				flashcards.PUT("/:id", cardEditors, h.Flashcard.UpdateFlashcard)
				flashcards.DELETE("/:id", cardEditors, h.Flashcard.DeleteFlashcard)
				flashcards.POST("/:id/attempts", cardEditors, h.Flashcard.Attempt)
			}
			authorized.GET("/students/:id/attempts", h.Flashcard.History)

			// calendar
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("/sessions", h.Calendar.ListSessions)
				calendar.POST("/sessions", h.Calendar.CreateSession)
				calendar.GET("/sessions.ics", h.Calendar.ExportICS)
				calendar.PUT("/sessions/:id", h.Calendar.UpdateSession)
				calendar.DELETE("/sessions/:id", h.Calendar.DeleteSession)
				calendar.POST("/import", h.Calendar.ImportICS)
			}
		}
	}

	return r
}

// registerSuperAdmin /api/super_admin: accounts and the archive.
func registerSuperAdmin(rg *gin.RouterGroup, h *handler.Handler) {
	g := rg.Group("/"+model.RoleSuperAdmin, middleware.RoleAuth(model.RoleSuperAdmin))

	users := g.Group("/users")
	{
		users.GET("", h.User.ListUsers)
		users.POST("", h.User.CreateUser)
		users.POST("/import", h.User.ImportUsers)
		users.GET("/export", h.User.ExportUsers)
		users.GET("/:id", h.User.GetUser)
		users.PUT("/:id", h.User.UpdateUser)
		users.POST("/:id/reset-password", h.User.ResetPassword)
		users.POST("/:id/archive", h.Archive.ArchiveUser)
	}

	archive := g.Group("/archive")
	{
		archive.GET("", h.Archive.ListArchive)
		archive.POST("/purge", h.Archive.PurgeArchive)
		archive.GET("/:type/:id", h.Archive.GetArchive)
		archive.POST("/:type/:id/restore", h.Archive.RestoreArchive)
		archive.DELETE("/:type/:id", h.Archive.DeleteArchive)
	}

	g.GET("/dashboard", h.Dashboard.GetDashboard)
}

// registerMasterTeacher /api/master_teacher; super admins share it.
func registerMasterTeacher(rg *gin.RouterGroup, h *handler.Handler) {
	g := rg.Group("/"+model.RoleMasterTeacher, middleware.RoleAuth(model.RoleMasterTeacher, model.RoleSuperAdmin))

	registerStudentRoutes(g, h, true)
	g.POST("/students/:id/archive", h.Archive.ArchiveStudent)
	g.GET("/coordinator/students", h.Student.CoordinatorStudents)
	registerAssignmentRoutes(g, h)
	g.GET("/dashboard", h.Dashboard.GetDashboard)
}

// registerCoordinator /api/coordinator; scope is the coordinator's grade.
func registerCoordinator(rg *gin.RouterGroup, h *handler.Handler) {
	g := rg.Group("/"+model.RoleCoordinator, middleware.RoleAuth(model.RoleCoordinator))

	registerStudentRoutes(g, h, true)
	registerAssignmentRoutes(g, h)
	g.GET("/dashboard", h.Dashboard.GetDashboard)
}

// registerClassTeacher read-only views of the caller's assigned students.
func registerClassTeacher(rg *gin.RouterGroup, h *handler.Handler, role string) {
	g := rg.Group("/"+role, middleware.RoleAuth(role))

	registerStudentRoutes(g, h, false)
	g.GET("/dashboard", h.Dashboard.GetDashboard)
}

func registerStudentRoutes(g *gin.RouterGroup, h *handler.Handler, writable bool) {
	students := g.Group("/students")
	students.GET("", h.Student.ListStudents)
	students.GET("/export", h.Student.ExportStudents)
	students.GET("/:id", h.Student.GetStudent)
	if !writable {
		return
	}
	students.POST("", h.Student.CreateStudent)
	students.POST("/import", h.Student.ImportStudents)
	students.PUT("/:id", h.Student.UpdateStudent)
}

func registerAssignmentRoutes(g *gin.RouterGroup, h *handler.Handler) {
	assignments := g.Group("/assignments")
	assignments.GET("", h.Assignment.ListAssignments)
	assignments.POST("", h.Assignment.Assign)
	assignments.POST("/auto", h.Assignment.AutoAssign)
	assignments.DELETE("/:student_id", h.Assignment.Unassign)
}

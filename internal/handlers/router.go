package handlers

import (
	"github.com/atenciaj/Vib-Test/internal/middleware"
	"github.com/atenciaj/Vib-Test/internal/services"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth      *AuthHandler
	Exam      *ExamHandler
	Results   *ResultsHandler
	Questions *QuestionHandler
	WS        *WSHandler
}

// RegisterRoutes wires all HTTP routes to the handler methods.
func RegisterRoutes(r *gin.Engine, h Handlers, authService *services.AuthService) {
	r.GET("/ws/exams/:id", h.WS.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/categories", h.Exam.ListCategories)

		exams := api.Group("/exams")
		{
			exams.POST("", h.Exam.CreateExam)
			exams.GET("/:id", h.Exam.GetExam)
			exams.DELETE("/:id", h.Exam.DeleteExam)
			exams.POST("/:id/start", h.Exam.RestartExam)
			exams.GET("/:id/questions/:qid", h.Exam.GetQuestion)
			exams.POST("/:id/answers", h.Exam.SubmitAnswer)
			exams.POST("/:id/finish", h.Exam.FinishExam)
			exams.POST("/:id/reset", h.Exam.ResetExam)
		}

		results := api.Group("/results")
		{
			results.GET("", h.Results.ListResults)
			results.GET("/stats", h.Results.GetStats)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(authService))
		{
			admin.POST("/questions/import", h.Questions.ImportQuestions)
			admin.GET("/results/export", h.Results.ExportResults)
		}
	}
}

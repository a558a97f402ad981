package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"
	"github.com/atenciaj/Vib-Test/internal/services"
	"github.com/atenciaj/Vib-Test/internal/ws"

	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	manager   *services.ExamManager
	hub       *ws.Hub
	timerTick time.Duration

	mu         sync.Mutex
	countdowns map[string]*services.Countdown
}

func NewExamHandler(manager *services.ExamManager, hub *ws.Hub, timerTick time.Duration) *ExamHandler {
	if timerTick <= 0 {
		timerTick = time.Second
	}
	return &ExamHandler{
		manager:    manager,
		hub:        hub,
		timerTick:  timerTick,
		countdowns: make(map[string]*services.Countdown),
	}
}

type StartExamRequest struct {
	Category string `json:"category" binding:"required" example:"Category I"`
	IsTrial  bool   `json:"is_trial" example:"false"`
}

type SubmitAnswerRequest struct {
	QuestionID          string `json:"question_id" binding:"required" example:"cat1-q001"`
	SelectedOptionIndex *int   `json:"selected_option_index" binding:"required" example:"2"`
}

type CreateExamResponse struct {
	ID   string   `json:"id"`
	Exam ExamView `json:"exam"`
}

type FinishExamResponse struct {
	Result  *models.ExamResult `json:"result"`
	Warning string             `json:"warning,omitempty"`
}

type CategoryInfo struct {
	Category             models.Category         `json:"category"`
	Defaults             models.CategoryDefaults `json:"defaults"`
	TrialQuestions       int                     `json:"trial_questions"`
	TrialDurationMinutes int                     `json:"trial_duration_minutes"`
	PassMarkPercent      int                     `json:"pass_mark_percent"`
}

// ExamView is the client-facing shape of a session. Correct options and
// explanations stay hidden until the exam is finished.
type ExamView struct {
	State           services.ExamState  `json:"state"`
	Category        *models.Category    `json:"category"`
	DurationMinutes int                 `json:"duration_minutes,omitempty"`
	PassMarkPercent float64             `json:"pass_mark_percent,omitempty"`
	IsTrial         bool                `json:"is_trial"`
	Questions       []interface{}       `json:"questions"`
	Answers         []models.UserAnswer `json:"answers"`
	Result          *models.ExamResult  `json:"result,omitempty"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
}

func newExamView(state services.SessionState) ExamView {
	view := ExamView{
		State:     state.State,
		Category:  state.Category,
		Questions: []interface{}{},
		Answers:   state.Answers,
		Result:    state.Result,
		StartedAt: state.StartedAt,
	}
	if state.Config == nil {
		return view
	}

	view.DurationMinutes = state.Config.DurationMinutes
	view.PassMarkPercent = state.Config.PassMarkPercent
	view.IsTrial = state.Config.IsTrial
	for i := range state.Config.Questions {
		view.Questions = append(view.Questions, questionView(&state.Config.Questions[i], state.State))
	}
	return view
}

func questionView(q *models.Question, state services.ExamState) interface{} {
	if state == services.ExamStateFinished {
		return q
	}
	return q.Public()
}

// ListCategories godoc
// @Summary      List exam categories
// @Tags         exams
// @Produce      json
// @Success      200 {array} CategoryInfo
// @Router       /api/v1/categories [get]
func (h *ExamHandler) ListCategories(c *gin.Context) {
	out := make([]CategoryInfo, 0, len(models.AllCategories))
	for _, cat := range models.AllCategories {
		defaults, _ := cat.Defaults()
		out = append(out, CategoryInfo{
			Category:             cat,
			Defaults:             defaults,
			TrialQuestions:       models.TrialQuestionCount,
			TrialDurationMinutes: models.TrialDurationMinutes,
			PassMarkPercent:      models.PassMarkPercent,
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateExam godoc
// @Summary      Start a new exam
// @Description  Create a session, sample questions for the category and start the timer
// @Tags         exams
// @Accept       json
// @Produce      json
// @Param        request body StartExamRequest true "Exam parameters"
// @Success      201 {object} CreateExamResponse
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      504 {object} ErrorResponse
// @Router       /api/v1/exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	id, session := h.manager.Create(h.broadcastState)
	if err := h.start(c.Request.Context(), id, session, category, req.IsTrial); err != nil {
		h.manager.Delete(id)
		c.JSON(startErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, CreateExamResponse{ID: id, Exam: newExamView(session.Snapshot())})
}

// RestartExam godoc
// @Summary      Start a new attempt in an existing session
// @Tags         exams
// @Accept       json
// @Produce      json
// @Param        id path string true "Exam ID"
// @Param        request body StartExamRequest true "Exam parameters"
// @Success      200 {object} ExamView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/exams/{id}/start [post]
func (h *ExamHandler) RestartExam(c *gin.Context) {
	id := c.Param("id")
	session, err := h.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	var req StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.start(c.Request.Context(), id, session, category, req.IsTrial); err != nil {
		c.JSON(startErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, newExamView(session.Snapshot()))
}

func (h *ExamHandler) start(ctx context.Context, id string, session *services.ExamSession, category models.Category, isTrial bool) error {
	h.stopCountdown(id)

	if err := session.StartExam(ctx, category, isTrial); err != nil {
		return err
	}

	attempt := session.Attempt()
	state := session.Snapshot()
	if state.Config != nil {
		h.startCountdown(id, session, attempt, time.Duration(state.Config.DurationMinutes)*time.Minute)
	}
	return nil
}

// GetExam godoc
// @Summary      Get exam state
// @Tags         exams
// @Produce      json
// @Param        id path string true "Exam ID"
// @Success      200 {object} ExamView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, newExamView(session.Snapshot()))
}

// GetQuestion godoc
// @Summary      Get one question of the active exam
// @Tags         exams
// @Produce      json
// @Param        id path string true "Exam ID"
// @Param        qid path string true "Question ID"
// @Success      200 {object} models.PublicQuestion
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/exams/{id}/questions/{qid} [get]
func (h *ExamHandler) GetQuestion(c *gin.Context) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	q, ok := session.GetQuestionByID(c.Param("qid"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "question not found"})
		return
	}

	c.JSON(http.StatusOK, questionView(&q, session.Snapshot().State))
}

// SubmitAnswer godoc
// @Summary      Answer a question
// @Description  Record or overwrite the selected option for a question
// @Tags         exams
// @Accept       json
// @Produce      json
// @Param        id path string true "Exam ID"
// @Param        request body SubmitAnswerRequest true "Answer"
// @Success      200 {object} ExamView
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/exams/{id}/answers [post]
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	// Answers are visible once finished, so changes stop there.
	if session.Snapshot().State == services.ExamStateFinished {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "exam already finished"})
		return
	}

	if err := session.SubmitAnswer(req.QuestionID, *req.SelectedOptionIndex); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, newExamView(session.Snapshot()))
}

// FinishExam godoc
// @Summary      Finish the exam
// @Description  Score the answers; non-trial results are added to the history
// @Tags         exams
// @Produce      json
// @Param        id path string true "Exam ID"
// @Success      200 {object} FinishExamResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/exams/{id}/finish [post]
func (h *ExamHandler) FinishExam(c *gin.Context) {
	id := c.Param("id")
	session, err := h.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	h.stopCountdown(id)

	result, err := session.FinishAttempt(session.Attempt())
	if errors.Is(err, services.ErrAttemptClosed) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "exam already finished"})
		return
	}
	if result == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no active exam"})
		return
	}

	resp := FinishExamResponse{Result: result}
	if err != nil {
		resp.Warning = err.Error()
	}
	h.hub.Broadcast(id, ws.WSMessage{Type: ws.MessageFinished, Data: result})

	c.JSON(http.StatusOK, resp)
}

// ResetExam godoc
// @Summary      Reset the exam
// @Tags         exams
// @Produce      json
// @Param        id path string true "Exam ID"
// @Success      200 {object} ExamView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/exams/{id}/reset [post]
func (h *ExamHandler) ResetExam(c *gin.Context) {
	id := c.Param("id")
	session, err := h.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	h.stopCountdown(id)
	session.ResetExam()

	c.JSON(http.StatusOK, newExamView(session.Snapshot()))
}

// DeleteExam godoc
// @Summary      Remove an exam session
// @Tags         exams
// @Produce      json
// @Param        id path string true "Exam ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id := c.Param("id")
	h.stopCountdown(id)

	if err := h.manager.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "exam deleted"})
}

func (h *ExamHandler) broadcastState(id string, state services.SessionState) {
	h.hub.Broadcast(id, ws.WSMessage{Type: ws.MessageState, Data: newExamView(state)})
}

// startCountdown finishes attempt when duration runs out. A timer that fires
// after the attempt was finished, restarted or reset does nothing.
func (h *ExamHandler) startCountdown(id string, session *services.ExamSession, attempt uint64, duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.countdowns[id]; ok {
		prev.Stop()
	}

	var countdown *services.Countdown
	countdown = services.StartCountdown(duration, h.timerTick,
		func(remaining time.Duration) {
			h.hub.Broadcast(id, ws.WSMessage{
				Type: ws.MessageTick,
				Data: gin.H{"remaining_seconds": int(remaining.Seconds())},
			})
		},
		func() {
			h.mu.Lock()
			if h.countdowns[id] == countdown {
				delete(h.countdowns, id)
			}
			h.mu.Unlock()

			result, err := session.FinishAttempt(attempt)
			if errors.Is(err, services.ErrAttemptClosed) {
				log.Printf("exam: %s timer fired for a closed attempt, ignored", id)
				return
			}
			if err != nil {
				log.Printf("exam: %s timed out, %v", id, err)
			}
			if result != nil {
				log.Printf("exam: %s time is up, scored %.1f%%", id, result.ScorePercent)
				h.hub.Broadcast(id, ws.WSMessage{Type: ws.MessageFinished, Data: result})
			}
		},
	)
	h.countdowns[id] = countdown
}

func (h *ExamHandler) stopCountdown(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if countdown, ok := h.countdowns[id]; ok {
		countdown.Stop()
		delete(h.countdowns, id)
	}
}

func (h *ExamHandler) activeCountdowns() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.countdowns)
}

func startErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCategoryConfig):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoQuestionsAvailable), errors.Is(err, services.ErrQuestionSelectionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrQuestionFetchTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrStartSuperseded):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

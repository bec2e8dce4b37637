package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/services"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/gin-gonic/gin"
)

// NextQuestionResponse is a drawn question without its answer key
type NextQuestionResponse struct {
	Index          int                  `json:"index"`
	Question       *models.QuestionView `json:"question"`
	MasteryCount   int                  `json:"mastery_count"`
	RemainingCount int                  `json:"remaining_count"`
}

// SubmitAnswerRequest carries raw learner input for the question at Index
type SubmitAnswerRequest struct {
	Index  *int   `json:"index" validate:"required,min=0"`
	Answer string `json:"answer" validate:"required"`
}

type StudyHandler struct {
	BaseHandler
	studyService services.StudyService
	validator    *validator.Validator
}

// NewStudyHandler creates the study handler. studyService may be nil, in which case every
// study route answers 503.
func NewStudyHandler(
	studyService services.StudyService,
	validator *validator.Validator,
	logger utils.Logger,
) *StudyHandler {
	return &StudyHandler{
		BaseHandler:  NewBaseHandler(logger),
		studyService: studyService,
		validator:    validator,
	}
}

func (h *StudyHandler) requireBank(c *gin.Context) bool {
	if h.studyService == nil {
		h.handleServiceError(c, services.ErrBankNotLoaded)
		return false
	}
	return true
}

// NextQuestion draws the next question by weighted selection over the remaining set
// @Summary Draw next question
// @Tags study
// @Produce json
// @Success 200 {object} SuccessResponse{data=NextQuestionResponse}
// @Failure 503 {object} ErrorResponse
// @Router /study/next [get]
func (h *StudyHandler) NextQuestion(c *gin.Context) {
	if !h.requireBank(c) {
		return
	}

	sel, ok := h.studyService.Next(c.Request.Context())
	if !ok {
		h.RespondWithSuccess(c, http.StatusOK, "All questions mastered", gin.H{
			"exhausted": true,
			"stats":     h.studyService.Stats(c.Request.Context()),
		})
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Question selected", NextQuestionResponse{
		Index:          sel.Index,
		Question:       h.studyService.Describe(sel),
		MasteryCount:   sel.MasteryCount,
		RemainingCount: sel.RemainingCount,
	})
}

// SubmitAnswer checks an answer and records it when correct
// @Summary Submit answer
// @Tags study
// @Accept json
// @Produce json
// @Param request body SubmitAnswerRequest true "Question index and learner answer"
// @Success 200 {object} SuccessResponse{data=models.AnswerOutcome}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /study/answers [post]
func (h *StudyHandler) SubmitAnswer(c *gin.Context) {
	if !h.requireBank(c) {
		return
	}

	var req SubmitAnswerRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	outcome, err := h.studyService.Submit(c.Request.Context(), *req.Index, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	message := "Incorrect"
	if outcome.Correct {
		message = "Correct"
	}
	h.RespondWithSuccess(c, http.StatusOK, message, outcome)
}

// ResetProgress zeroes every mastery counter
// @Summary Reset progress
// @Tags study
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.BankStats}
// @Router /study/reset [post]
func (h *StudyHandler) ResetProgress(c *gin.Context) {
	if !h.requireBank(c) {
		return
	}

	h.LogRequest(c, "Resetting study progress")

	stats, err := h.studyService.Reset(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Progress reset", stats)
}

// GetStats reports mastery progress
// @Summary Study statistics
// @Tags study
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.BankStats}
// @Router /study/stats [get]
func (h *StudyHandler) GetStats(c *gin.Context) {
	if !h.requireBank(c) {
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Study statistics", h.studyService.Stats(c.Request.Context()))
}

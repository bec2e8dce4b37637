package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/services"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/gin-gonic/gin"
)

type ConversionHandler struct {
	BaseHandler
	conversionService services.ConversionService
	validator         *validator.Validator
}

func NewConversionHandler(
	conversionService services.ConversionService,
	validator *validator.Validator,
	logger utils.Logger,
) *ConversionHandler {
	return &ConversionHandler{
		BaseHandler:       NewBaseHandler(logger),
		conversionService: conversionService,
		validator:         validator,
	}
}

// ConvertTabular normalizes a header-anchored sheet into the canonical table
// @Summary Convert tabular question sheet
// @Tags conversions
// @Accept json
// @Produce json
// @Param request body models.ConversionRequest true "Input and output paths"
// @Success 200 {object} SuccessResponse{data=models.ConversionResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /conversions/tabular [post]
func (h *ConversionHandler) ConvertTabular(c *gin.Context) {
	h.convert(c, models.StrategyTabular, h.conversionService.ConvertTabular)
}

// ConvertEmbedded normalizes a sheet of composite question cells into the canonical table
// @Summary Convert embedded question sheet
// @Tags conversions
// @Accept json
// @Produce json
// @Param request body models.ConversionRequest true "Input and output paths"
// @Success 200 {object} SuccessResponse{data=models.ConversionResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /conversions/embedded [post]
func (h *ConversionHandler) ConvertEmbedded(c *gin.Context) {
	h.convert(c, models.StrategyEmbedded, h.conversionService.ConvertEmbedded)
}

type convertFunc func(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error)

func (h *ConversionHandler) convert(c *gin.Context, strategy models.ConversionStrategy, run convertFunc) {
	var req models.ConversionRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	h.LogRequest(c, "Converting question table",
		"strategy", strategy,
		"input_path", req.InputPath)

	result, err := run(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Conversion completed", result)
}

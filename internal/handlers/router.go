package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quizbank/internal/services"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	conversionHandler *ConversionHandler
	studyHandler      *StudyHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		conversionHandler: NewConversionHandler(serviceManager.Conversion(), validator, logger),
		studyHandler:      NewStudyHandler(serviceManager.Study(), validator, logger),
	}
}

// NewRouter builds a gin engine with recovery, access logging and all routes
func NewRouter(hm *HandlerManager, logger utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		conversions := v1.Group("/conversions")
		{
			conversions.POST("/tabular", hm.conversionHandler.ConvertTabular)
			conversions.POST("/embedded", hm.conversionHandler.ConvertEmbedded)
		}

		study := v1.Group("/study")
		{
			study.GET("/next", hm.studyHandler.NextQuestion)
			study.POST("/answers", hm.studyHandler.SubmitAnswer)
			study.POST("/reset", hm.studyHandler.ResetProgress)
			study.GET("/stats", hm.studyHandler.GetStats)
		}
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quizbank",
	})
}

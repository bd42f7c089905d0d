package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/AYushgupta4387/airtribe-hackathon/config"
	"github.com/AYushgupta4387/airtribe-hackathon/models"
	"github.com/AYushgupta4387/airtribe-hackathon/services"
)

// RAGController handles the HTTP requests of the answer API. It depends on
// the RAGService for the actual pipeline.
type RAGController struct {
	ragService services.RAGService
	log        zerolog.Logger
}

// NewRAGController creates a RAGController.
func NewRAGController(service services.RAGService, logger zerolog.Logger) *RAGController {
	return &RAGController{
		ragService: service,
		log:        logger.With().Str("component", "CONTROLLER").Logger(),
	}
}

// GetResponse is the handler for POST /get/response. Every failure, a
// malformed body included, is answered with 500 and {"error": message}.
func (c *RAGController) GetResponse(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.fail(ctx, fmt.Errorf("%w: invalid request body: %v", services.ErrInvalidInput, err))
		return
	}

	response, err := c.ragService.Answer(ctx.Request.Context(), req.Question)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// IndexStats is the handler for GET /index/stats.
func (c *RAGController) IndexStats(ctx *gin.Context) {
	stats, err := c.ragService.IndexStats(ctx.Request.Context())
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// Health is the handler for GET /health.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "redux-rag",
	})
}

func (c *RAGController) fail(ctx *gin.Context, err error) {
	c.log.Error().
		Err(err).
		Str("kind", services.ErrorKind(err)).
		Str("request_id", ctx.GetString(requestIDKey)).
		Str("path", ctx.Request.URL.Path).
		Msg("request failed")
	ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
}

// NewRouter wires middleware and routes onto a gin engine.
func NewRouter(ctrl *RAGController, cfg config.ServerConfig, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(logger), CORS(cfg.CORSOrigins))

	router.GET("/health", ctrl.Health)
	router.GET("/index/stats", ctrl.IndexStats)
	router.POST("/get/response", ctrl.GetResponse)
	return router
}

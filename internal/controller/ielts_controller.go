package controller

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/anyexamai/backend/config"
	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/dto"
	"github.com/anyexamai/backend/internal/model"
	"github.com/anyexamai/backend/internal/repository"
	"github.com/anyexamai/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type IELTSController struct {
	readingService    service.ReadingService
	writingService    service.WritingService
	listeningService  service.ListeningService
	evaluationService service.EvaluationService
	topicRepo         repository.TopicRepository
	archiveRepo       repository.ArchiveRepository
	audioDir          string
}

func NewIELTSController(
	readingService service.ReadingService,
	writingService service.WritingService,
	listeningService service.ListeningService,
	evaluationService service.EvaluationService,
	topicRepo repository.TopicRepository,
	archiveRepo repository.ArchiveRepository,
	cfg *config.Config,
) *IELTSController {
	return &IELTSController{
		readingService:    readingService,
		writingService:    writingService,
		listeningService:  listeningService,
		evaluationService: evaluationService,
		topicRepo:         topicRepo,
		archiveRepo:       archiveRepo,
		audioDir:          cfg.Audio.OutputDir,
	}
}

func (ctrl *IELTSController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", ctrl.Health)

	// Rendered listening audio: asset file_path values are relative URLs under
	// /audio, mirroring where the renderer writes them.
	router.Static("/audio", filepath.Join(ctrl.audioDir, "audio"))

	api := router.Group("/api/ielts")
	{
		api.GET("/reading", ctrl.GenerateReadingTest)
		api.GET("/writing", ctrl.GenerateWritingTest)
		api.GET("/listening", ctrl.GenerateListeningTest)
		api.POST("/writing/evaluate", ctrl.EvaluateWriting)

		api.GET("/topics", ctrl.GetTopicHistory)
		api.DELETE("/topics", ctrl.ClearTopicHistory)

		api.GET("/archive/:test_type", ctrl.ListArchivedTests)
		api.GET("/archive/test/:test_id", ctrl.GetArchivedTest)
	}
}

// Health godoc
// @Summary Service health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (ctrl *IELTSController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: "ielts-content-api"})
}

// GenerateReadingTest godoc
// @Summary Generate an IELTS Academic Reading test
// @Description Generates 3 passages with 40 questions at the requested band. Topics are model-selected and previously used topics are excluded automatically.
// @Tags generation
// @Produce json
// @Param difficulty query string false "Target band (5.0-9.0 in 0.5 steps)" default(7.0)
// @Param exclude_topics query string false "Extra topics to exclude, comma separated"
// @Success 200 {object} schema.ReadingTest
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/ielts/reading [get]
func (ctrl *IELTSController) GenerateReadingTest(c *gin.Context) {
	difficulty := c.DefaultQuery("difficulty", "7.0")

	var extraExclusions []string
	if raw := c.Query("exclude_topics"); raw != "" {
		for _, topic := range strings.Split(raw, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				extraExclusions = append(extraExclusions, topic)
			}
		}
	}

	test, err := ctrl.readingService.GenerateTest(c.Request.Context(), difficulty, extraExclusions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// GenerateWritingTest godoc
// @Summary Generate an IELTS Writing test
// @Description Generates both writing tasks with sample responses and detailed rubrics for the requested module.
// @Tags generation
// @Produce json
// @Param module query string false "Academic or General Training" default(Academic)
// @Param difficulty query string false "Target band (5.0-9.0 in 0.5 steps)" default(7.0)
// @Success 200 {object} schema.WritingTest
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/ielts/writing [get]
func (ctrl *IELTSController) GenerateWritingTest(c *gin.Context) {
	module := c.DefaultQuery("module", "Academic")
	difficulty := c.DefaultQuery("difficulty", "7.0")

	test, err := ctrl.writingService.GenerateTest(c.Request.Context(), module, difficulty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// GenerateListeningTest godoc
// @Summary Generate an IELTS Listening test
// @Description Generates 4 sections with 40 questions plus 8 rendered audio blocks in alternating accents. Audio failures degrade per asset and never fail the test.
// @Tags generation
// @Produce json
// @Param difficulty query string false "Target band (5.0-9.0 in 0.5 steps)" default(7.0)
// @Success 200 {object} schema.ListeningTest
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/ielts/listening [get]
func (ctrl *IELTSController) GenerateListeningTest(c *gin.Context) {
	difficulty := c.DefaultQuery("difficulty", "7.0")

	test, err := ctrl.listeningService.GenerateTest(c.Request.Context(), difficulty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// EvaluateWriting godoc
// @Summary Evaluate a writing response
// @Description Scores a submitted writing response against the four official criteria and returns per-criterion bands with specific feedback.
// @Tags evaluation
// @Accept json
// @Produce json
// @Param request body dto.EvaluateWritingRequest true "Submission to evaluate"
// @Success 200 {object} dto.EvaluateWritingResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/ielts/writing/evaluate [post]
func (ctrl *IELTSController) EvaluateWriting(c *gin.Context) {
	var req dto.EvaluateWritingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Module == "" {
		req.Module = "Academic"
	}
	if req.Difficulty == "" {
		req.Difficulty = "7.0"
	}

	result, wordCount, err := ctrl.evaluationService.EvaluateResponse(c.Request.Context(), service.EvaluationRequest{
		UserResponse: req.UserResponse,
		TaskNumber:   req.TaskNumber,
		Module:       req.Module,
		Difficulty:   req.Difficulty,
		TaskPrompt:   req.TaskPrompt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EvaluateWritingResponse{
		Success:    true,
		Evaluation: result,
		WordCount:  wordCount,
		TaskNumber: result.TaskNumber,
		Module:     req.Module,
	})
}

// GetTopicHistory godoc
// @Summary List previously used reading topics
// @Tags topics
// @Produce json
// @Success 200 {object} dto.TopicHistoryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/ielts/topics [get]
func (ctrl *IELTSController) GetTopicHistory(c *gin.Context) {
	topics, err := ctrl.topicRepo.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load topic history"})
		return
	}
	count, err := ctrl.topicRepo.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count topic history"})
		return
	}
	c.JSON(http.StatusOK, dto.TopicHistoryResponse{Count: count, Topics: topics})
}

// ClearTopicHistory godoc
// @Summary Clear the reading topic history
// @Description Removes all recorded topics so future tests may reuse them.
// @Tags topics
// @Produce json
// @Success 200 {object} dto.ClearTopicsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/ielts/topics [delete]
func (ctrl *IELTSController) ClearTopicHistory(c *gin.Context) {
	if err := ctrl.topicRepo.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear topic history")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to clear topic history"})
		return
	}
	c.JSON(http.StatusOK, dto.ClearTopicsResponse{Success: true, Message: "Topic history cleared"})
}

// ListArchivedTests godoc
// @Summary List archived generated tests of one type
// @Tags archive
// @Produce json
// @Param test_type path string true "reading, writing or listening"
// @Success 200 {array} dto.ArchivedTestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/ielts/archive/{test_type} [get]
func (ctrl *IELTSController) ListArchivedTests(c *gin.Context) {
	testType := c.Param("test_type")
	switch testType {
	case model.TestTypeReading, model.TestTypeWriting, model.TestTypeListening:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid test_type: must be reading, writing or listening"})
		return
	}

	records, err := ctrl.archiveRepo.FindAllByType(testType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list archived tests"})
		return
	}

	responses := make([]dto.ArchivedTestResponse, 0, len(records))
	if err := copier.Copy(&responses, &records); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to map archived tests"})
		return
	}
	c.JSON(http.StatusOK, responses)
}

// GetArchivedTest godoc
// @Summary Fetch one archived test with its full payload
// @Tags archive
// @Produce json
// @Param test_id path string true "Short test id"
// @Success 200 {object} dto.ArchivedTestDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/ielts/archive/test/{test_id} [get]
func (ctrl *IELTSController) GetArchivedTest(c *gin.Context) {
	record, err := ctrl.archiveRepo.FindByTestID(c.Param("test_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Archived test not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load archived test"})
		return
	}

	var response dto.ArchivedTestDetailResponse
	if err := copier.Copy(&response, record); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to map archived test"})
		return
	}
	response.Payload = record.Payload
	c.JSON(http.StatusOK, response)
}

// respondError maps the pipeline error taxonomy onto HTTP statuses: upstream
// model failures are 502, bad caller input is 400, everything else (parse
// failures, exhausted validation retries, configuration) is 500.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindModel:
		status = http.StatusBadGateway
	case apperr.KindValidation:
		if appErr.IsInput() {
			status = http.StatusBadRequest
		}
	}

	log.Error().Str("kind", string(appErr.Kind)).Int("status", status).Msg(appErr.Message)
	c.JSON(status, dto.ErrorResponse{
		Error:   appErr.Message,
		Kind:    string(appErr.Kind),
		Details: appErr.Details,
	})
}

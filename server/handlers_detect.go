package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aidetectsai/detector-api/auth/authctx"
	"github.com/aidetectsai/detector-api/detector"
	apperrors "github.com/aidetectsai/detector-api/errors"
	"github.com/aidetectsai/detector-api/logger"
	"github.com/aidetectsai/detector-api/version"
)

// DetectHandler serves the image analysis endpoint.
type DetectHandler struct {
	svc *detector.Service
	log *logger.Logger
}

// NewDetectHandler creates the handler.
func NewDetectHandler(svc *detector.Service) *DetectHandler {
	return &DetectHandler{
		svc: svc,
		log: logger.WithComponent("detecthandler"),
	}
}

// Health handles GET /health. The process itself answers ok; the upstream
// field reports whether the detection service's health endpoint responds.
func (h *DetectHandler) Health(c *gin.Context) {
	upstream := "ok"
	if !h.svc.Healthy(c.Request.Context()) {
		upstream = "unreachable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"build":    version.Get(),
		"upstream": upstream,
	})
}

// Analyze handles POST /api/useModel. The route sits behind the session
// gate; the upload is read fully here so the relay owns the bytes.
func (h *DetectHandler) Analyze(c *gin.Context) {
	login, _ := authctx.Login(c.Request.Context())

	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("No image file provided"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("Unable to read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.svc.MaxUploadBytes()+1))
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("Unable to read uploaded file"))
		return
	}

	upload := detector.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}

	result, err := h.svc.Analyze(c.Request.Context(), upload)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	h.log.Info("image analyzed", map[string]interface{}{
		"login": login, "filename": upload.Filename, "result": result.Result,
	})
	RespondOK(c, result)
}

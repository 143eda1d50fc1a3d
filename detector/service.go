// Package detector relays uploaded images to the external AI-content
// detection service and normalizes its reply.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/aidetectsai/detector-api/errors"
	"github.com/aidetectsai/detector-api/httpclient"
	"github.com/aidetectsai/detector-api/logger"
)

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Result is the normalized detection outcome returned to clients.
type Result struct {
	Result       string  `json:"result"`
	Confidence   float64 `json:"confidence"`
	ModelUsed    string  `json:"modelUsed"`
	ProcessingMs int64   `json:"processingTimeMs"`
}

// upstreamReply is the detection service's raw response shape.
type upstreamReply struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Service forwards images to the detection service.
type Service struct {
	client *httpclient.Client
	cfg    Config
	log    *logger.Logger
}

// NewService creates the relay from configuration.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("detector: build client: %w", err)
	}

	return &Service{
		client: client,
		cfg:    cfg,
		log:    logger.WithComponent("detector"),
	}, nil
}

// MaxUploadBytes returns the configured upload cap.
func (s *Service) MaxUploadBytes() int64 {
	return s.cfg.MaxUploadBytes
}

// Analyze validates the upload and forwards it to the detection service.
func (s *Service) Analyze(ctx context.Context, upload Upload) (*Result, error) {
	if err := s.validate(upload); err != nil {
		return nil, err
	}

	start := time.Now()
	s.log.Info("forwarding image to detection service", map[string]interface{}{
		"filename": upload.Filename, "bytes": upload.Size,
	})

	resp, err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   s.cfg.Endpoint,
		Body: &httpclient.MultipartBody{
			Files: []httpclient.FileField{{
				FieldName:   "image",
				FileName:    upload.Filename,
				ContentType: upload.ContentType,
				Data:        upload.Data,
			}},
		},
	})
	if err != nil {
		return nil, s.classifyUpstream(err)
	}

	var reply upstreamReply
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return nil, apperrors.UpstreamFailure("Invalid response format from detection service", err)
	}
	if reply.Prediction == "" {
		reply.Prediction = "Image processed successfully"
	}

	return &Result{
		Result:       reply.Prediction,
		Confidence:   reply.Confidence,
		ModelUsed:    s.cfg.ModelName,
		ProcessingMs: time.Since(start).Milliseconds(),
	}, nil
}

// Healthy reports whether the detection service answers its health endpoint.
func (s *Service) Healthy(ctx context.Context) bool {
	resp, err := s.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	if err != nil {
		s.log.Warn("detection service health check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return resp.IsSuccess()
}

func (s *Service) validate(upload Upload) error {
	if len(upload.Data) == 0 {
		return apperrors.InvalidInput("No image file provided")
	}
	if upload.Size > s.cfg.MaxUploadBytes {
		return apperrors.InvalidInput(fmt.Sprintf(
			"File size too large. Maximum allowed size is %d bytes", s.cfg.MaxUploadBytes))
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return apperrors.InvalidInput("File must be an image")
	}
	return nil
}

func (s *Service) classifyUpstream(err error) error {
	switch {
	case httpclient.IsTimeout(err):
		return apperrors.UpstreamTimeout("Detection service timed out", err)
	case httpclient.IsConnection(err):
		return apperrors.UpstreamFailure("Unable to connect to detection service", err)
	default:
		return apperrors.UpstreamFailure("Detection service request failed", err)
	}
}

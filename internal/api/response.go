package api

import (
	"fmt"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cognivox/voicescreen-go/internal/analysis"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/logger"
	"github.com/cognivox/voicescreen-go/internal/privacy"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

// ScreeningNote accompanies every successful prediction.
const ScreeningNote = "This is a screening tool and should not replace professional medical diagnosis."

// Probabilities carries both class probabilities, as fractions and percentages.
type Probabilities struct {
	Normal             float64 `json:"normal"`
	NormalPercentage   float64 `json:"normal_percentage"`
	Dementia           float64 `json:"dementia"`
	DementiaPercentage float64 `json:"dementia_percentage"`
}

// AudioInfo describes the analyzed recording.
type AudioInfo struct {
	LengthSeconds     float64 `json:"length_seconds"`
	MFCCFeaturesShape []int   `json:"mfcc_features_shape"`
}

// PredictionResponse is the success payload for the predict endpoints.
type PredictionResponse struct {
	Status        string        `json:"status"`
	Result        string        `json:"result"`
	Probabilities Probabilities `json:"probabilities"`
	Confidence    float64       `json:"confidence"`
	Message       string        `json:"message"`
	AudioInfo     AudioInfo     `json:"audio_info"`
	Note          string        `json:"note"`
}

// ErrorDetail is the error payload for every non-2xx response.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// newPredictionResponse shapes an analysis result for the wire, probabilities
// rounded to four decimals and percentages to two.
func newPredictionResponse(result *analysis.Result) *PredictionResponse {
	p := result.Prediction

	message := fmt.Sprintf("Normal voice detected (%.2f%% confidence). The voice appears to be within normal range.", p.ProbNormal*100)
	if p.Label == tcn.LabelDementia {
		message = fmt.Sprintf("High dementia probability detected (%.2f%%). This suggests possible signs of dementia in the voice.", p.ProbDementia*100)
	}

	return &PredictionResponse{
		Status: "success",
		Result: p.Label,
		Probabilities: Probabilities{
			Normal:             round4(p.ProbNormal),
			NormalPercentage:   round2(p.ProbNormal * 100),
			Dementia:           round4(p.ProbDementia),
			DementiaPercentage: round2(p.ProbDementia * 100),
		},
		Confidence: round4(p.Confidence),
		Message:    message,
		AudioInfo: AudioInfo{
			LengthSeconds:     round2(result.LengthSeconds),
			MFCCFeaturesShape: []int{result.Frames, result.Coefficients},
		},
		Note: ScreeningNote,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// handleError maps a pipeline error to its HTTP status and writes the
// {"detail": ...} payload the clients expect.
func (s *Server) handleError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	detail := err.Error()
	errorType := "unknown"

	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		errorType = enhanced.GetCategory()
		switch enhanced.GetCategory() {
		case string(errors.CategoryValidation), string(errors.CategoryAudioDecode):
			status = http.StatusBadRequest
		case string(errors.CategoryUnauthorized):
			status = http.StatusUnauthorized
		case string(errors.CategoryForbidden):
			status = http.StatusForbidden
		case string(errors.CategoryNotFound):
			status = http.StatusNotFound
		case string(errors.CategoryModelInit), string(errors.CategoryModelLoad):
			// The service stays up, the registry retries on the next request
			detail = "Model not available: " + err.Error()
		}
	}

	if s.metrics != nil {
		s.metrics.HTTP.RecordHTTPRequestError(c.Request().Method, c.Path(), errorType)
	}

	// Fetch failures embed the remote URL, which may carry signed tokens.
	// The persisted log line gets the scrubbed form.
	s.log.Error("Request failed",
		logger.String("method", c.Request().Method),
		logger.String("path", c.Request().URL.Path),
		logger.Int("status", status),
		logger.String("category", errorType),
		logger.Error(privacy.WrapError(err)))

	return c.JSON(status, ErrorDetail{Detail: detail})
}

// handleEchoError shapes framework-level errors, unknown routes, rejected
// methods and oversized bodies, into the same {"detail": ...} payload the
// pipeline errors use.
func (s *Server) handleEchoError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := http.StatusText(status)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(status)
		}
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(status); err != nil {
			s.log.Error("Failed to write error response", logger.Error(err))
		}
		return
	}

	if err := c.JSON(status, ErrorDetail{Detail: detail}); err != nil {
		s.log.Error("Failed to write error response", logger.Error(err))
	}
}

package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cognivox/voicescreen-go/internal/audiofile"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
)

// handleInfo serves the service description at the root path.
func (s *Server) handleInfo(c echo.Context) error {
	endpoints := map[string]string{
		"predict":     "POST /predict - multipart upload of an audio file",
		"predict_url": "POST /predict/url - analyze audio from a URL",
		"health":      "GET /health - service health",
	}
	if s.settings.Telemetry.Enabled {
		endpoints["metrics"] = "GET /metrics - Prometheus metrics"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"name":         s.settings.Main.Name,
		"version":      s.settings.Version,
		"status":       "running",
		"model_loaded": s.registry.Loaded(),
		"endpoints":    endpoints,
	})
}

// handleHealth reports liveness. The service is healthy even while the model
// is still loading, inference readiness is reported separately.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": s.registry.Loaded(),
		"ready":        true,
	})
}

// handlePredict classifies an uploaded audio file.
func (s *Server) handlePredict(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return s.handleError(c, errors.Newf("No audio file uploaded. Attach the recording as the 'file' form field.").
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "read-upload").
			Build())
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if err := audiofile.ValidateExtension(ext); err != nil {
		return s.handleError(c, err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return s.handleError(c, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "open-upload").
			Build())
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return s.handleError(c, errors.New(err).
			Component("api").
			Category(errors.CategoryHTTP).
			Context("operation", "read-upload").
			Build())
	}

	result, err := s.analyzer.AnalyzeBytes(c.Request().Context(), data, ext, metrics.SourceUpload)
	if err != nil {
		return s.handleError(c, err)
	}

	return c.JSON(http.StatusOK, newPredictionResponse(result))
}

// urlRequest is the JSON body for the predict-from-URL endpoint.
type urlRequest struct {
	URL string `json:"url"`
}

// handlePredictURL downloads an audio file and classifies it. Credentials for
// protected storage come from the Authorization header.
func (s *Server) handlePredictURL(c echo.Context) error {
	var req urlRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, errors.Newf("Invalid request body. Send a JSON object with a 'url' field.").
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "bind-url-request").
			Build())
	}
	if strings.TrimSpace(req.URL) == "" {
		return s.handleError(c, errors.Newf("No URL provided. Send a JSON object with a 'url' field.").
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "bind-url-request").
			Build())
	}

	bearer := c.Request().Header.Get(echo.HeaderAuthorization)
	result, err := s.analyzer.AnalyzeURL(c.Request().Context(), req.URL, bearer)
	if err != nil {
		return s.handleError(c, err)
	}

	return c.JSON(http.StatusOK, newPredictionResponse(result))
}

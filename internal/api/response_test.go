package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognivox/voicescreen-go/internal/analysis"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

func TestNewPredictionResponseNormal(t *testing.T) {
	resp := newPredictionResponse(&analysis.Result{
		Prediction: &tcn.Result{
			Label:        tcn.LabelNormal,
			ProbNormal:   0.87325111,
			ProbDementia: 0.12674889,
			Confidence:   0.87325111,
		},
		LengthSeconds: 12.3456,
		Frames:        1233,
		Coefficients:  13,
	})

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "normal", resp.Result)
	assert.InDelta(t, 0.8733, resp.Probabilities.Normal, 1e-9)
	assert.InDelta(t, 87.33, resp.Probabilities.NormalPercentage, 1e-9)
	assert.InDelta(t, 0.1267, resp.Probabilities.Dementia, 1e-9)
	assert.InDelta(t, 12.67, resp.Probabilities.DementiaPercentage, 1e-9)
	assert.InDelta(t, 0.8733, resp.Confidence, 1e-9)
	assert.Equal(t, "Normal voice detected (87.33% confidence). The voice appears to be within normal range.", resp.Message)
	assert.InDelta(t, 12.35, resp.AudioInfo.LengthSeconds, 1e-9)
	assert.Equal(t, []int{1233, 13}, resp.AudioInfo.MFCCFeaturesShape)
	assert.Equal(t, ScreeningNote, resp.Note)
}

func TestNewPredictionResponseDementia(t *testing.T) {
	resp := newPredictionResponse(&analysis.Result{
		Prediction: &tcn.Result{
			Label:        tcn.LabelDementia,
			ProbNormal:   0.31,
			ProbDementia: 0.69,
			Confidence:   0.69,
		},
		LengthSeconds: 8.5,
		Frames:        849,
		Coefficients:  13,
	})

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "dementia_detected", resp.Result)
	assert.InDelta(t, 0.69, resp.Probabilities.Dementia, 1e-9)
	assert.InDelta(t, 69.00, resp.Probabilities.DementiaPercentage, 1e-9)
	assert.Equal(t, "High dementia probability detected (69.00%). This suggests possible signs of dementia in the voice.", resp.Message)
	assert.Equal(t, []int{849, 13}, resp.AudioInfo.MFCCFeaturesShape)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name: "validation maps to 400",
			err: errors.Newf("No URL provided. Send a JSON object with a 'url' field.").
				Component("api").
				Category(errors.CategoryValidation).
				Build(),
			wantStatus: http.StatusBadRequest,
			wantDetail: "No URL provided. Send a JSON object with a 'url' field.",
		},
		{
			name: "decode failure maps to 400",
			err: errors.Newf("unsupported bit depth: 8").
				Component("audiofile").
				Category(errors.CategoryAudioDecode).
				Build(),
			wantStatus: http.StatusBadRequest,
			wantDetail: "unsupported bit depth: 8",
		},
		{
			name: "unauthorized maps to 401",
			err: errors.Newf("Unauthorized: Invalid or missing authentication token. For Supabase, provide a valid Bearer token.").
				Component("fetcher").
				Category(errors.CategoryUnauthorized).
				Build(),
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Unauthorized: Invalid or missing authentication token. For Supabase, provide a valid Bearer token.",
		},
		{
			name: "forbidden maps to 403",
			err: errors.Newf("Forbidden: Access denied. Check if the file is public or use a signed URL with proper authentication.").
				Component("fetcher").
				Category(errors.CategoryForbidden).
				Build(),
			wantStatus: http.StatusForbidden,
			wantDetail: "Forbidden: Access denied. Check if the file is public or use a signed URL with proper authentication.",
		},
		{
			name: "not found maps to 404",
			err: errors.Newf("File not found at the provided URL.").
				Component("fetcher").
				Category(errors.CategoryNotFound).
				Build(),
			wantStatus: http.StatusNotFound,
			wantDetail: "File not found at the provided URL.",
		},
		{
			name: "model load failure maps to 500 with availability prefix",
			err: errors.Newf("model file not found at /models/tcn_dementia.tflite and no model URL is configured").
				Component("tcn").
				Category(errors.CategoryModelLoad).
				Build(),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Model not available: model file not found at /models/tcn_dementia.tflite and no model URL is configured",
		},
		{
			name: "model init failure maps to 500 with availability prefix",
			err: errors.Newf("failed to allocate tensors").
				Component("tcn").
				Category(errors.CategoryModelInit).
				Build(),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Model not available: failed to allocate tensors",
		},
		{
			name: "network failure maps to 500",
			err: errors.Newf("connection refused").
				Component("fetcher").
				Category(errors.CategoryNetwork).
				Build(),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "connection refused",
		},
		{
			name:       "plain error maps to 500",
			err:        fmt.Errorf("something unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "something unexpected",
		},
	}

	s := &Server{log: GetLogger()}
	e := echo.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, s.handleError(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var payload ErrorDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tt.wantDetail, payload.Detail)
		})
	}
}

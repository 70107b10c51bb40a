package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/spellcheck_service/internal/errors"
)

func newSpeechTestServer(t *testing.T, status int, body string) (*AzureSpeechClient, *http.Request) {
	t.Helper()
	captured := &http.Request{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.Clone(context.Background())
		_, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	c, err := NewAzureSpeechClient("key", "", WithSpeechEndpoint(ts.URL), WithSpeechLanguage("en-GB"))
	require.NoError(t, err)
	return c, captured
}

func TestNewAzureSpeechClient_MissingCredentials(t *testing.T) {
	_, err := NewAzureSpeechClient("", "westeurope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfiguration, errors.CodeOf(err))

	_, err = NewAzureSpeechClient("key", "")
	assert.Equal(t, errors.ErrConfiguration, errors.CodeOf(err))
}

func TestAzureSpeechClient_AssessPronunciation(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedOutcome RecognitionOutcome
		expectedScore   float64
		expectedText    string
		expectedReason  string
	}{
		{
			name:   "success with top level scores",
			status: http.StatusOK,
			body: `{"RecognitionStatus":"Success","DisplayText":"Lumos.",
				"NBest":[{"Display":"Lumos.","AccuracyScore":85.5,"FluencyScore":90,"CompletenessScore":100,"PronScore":88}]}`,
			expectedOutcome: OutcomeRecognized,
			expectedScore:   85.5,
			expectedText:    "Lumos.",
		},
		{
			name:   "success with nested assessment",
			status: http.StatusOK,
			body: `{"RecognitionStatus":"Success","DisplayText":"Nox.",
				"NBest":[{"Display":"Nox.","PronunciationAssessment":{"AccuracyScore":42}}]}`,
			expectedOutcome: OutcomeRecognized,
			expectedScore:   42,
			expectedText:    "Nox.",
		},
		{
			name:            "no match",
			status:          http.StatusOK,
			body:            `{"RecognitionStatus":"NoMatch"}`,
			expectedOutcome: OutcomeNoMatch,
			expectedReason:  "NoMatch",
		},
		{
			name:            "initial silence",
			status:          http.StatusOK,
			body:            `{"RecognitionStatus":"InitialSilenceTimeout"}`,
			expectedOutcome: OutcomeNoMatch,
			expectedReason:  "InitialSilenceTimeout",
		},
		{
			name:            "provider error status",
			status:          http.StatusOK,
			body:            `{"RecognitionStatus":"Error"}`,
			expectedOutcome: OutcomeCanceled,
			expectedReason:  "Error",
		},
		{
			name:            "unauthorized",
			status:          http.StatusUnauthorized,
			body:            `{"error":"invalid key"}`,
			expectedOutcome: OutcomeCanceled,
			expectedReason:  "HTTP 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, req := newSpeechTestServer(t, tt.status, tt.body)

			res, err := c.AssessPronunciation(context.Background(), []byte("RIFF"), "Lumos")
			require.NoError(t, err)
			require.NotNil(t, res)

			assert.Equal(t, tt.expectedOutcome, res.Outcome)
			assert.Equal(t, tt.expectedScore, res.AccuracyScore)
			assert.Equal(t, tt.expectedText, res.DisplayText)
			if tt.expectedReason != "" {
				assert.Equal(t, tt.expectedReason, res.Reason)
			}

			assert.Equal(t, recognitionPath, req.URL.Path)
			assert.Equal(t, "en-GB", req.URL.Query().Get("language"))
			assert.Equal(t, "detailed", req.URL.Query().Get("format"))
			assert.Equal(t, "key", req.Header.Get("Ocp-Apim-Subscription-Key"))
		})
	}
}

func TestAzureSpeechClient_AssessmentHeader(t *testing.T) {
	c, req := newSpeechTestServer(t, http.StatusOK, `{"RecognitionStatus":"NoMatch"}`)

	_, err := c.AssessPronunciation(context.Background(), []byte("RIFF"), "Wingardium Leviosa")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(req.Header.Get("Pronunciation-Assessment"))
	require.NoError(t, err)

	var params map[string]any
	require.NoError(t, json.Unmarshal(raw, &params))
	assert.Equal(t, "Wingardium Leviosa", params["ReferenceText"])
	assert.Equal(t, "HundredMark", params["GradingSystem"])
	assert.Equal(t, "Phoneme", params["Granularity"])
	assert.Equal(t, "audio/wav; codecs=audio/pcm; samplerate=16000", req.Header.Get("Content-Type"))
}

func TestAzureSpeechClient_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c, err := NewAzureSpeechClient("key", "", WithSpeechEndpoint(url))
	require.NoError(t, err)

	res, err := c.AssessPronunciation(context.Background(), []byte("RIFF"), "Lumos")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCanceled, res.Outcome)
	assert.NotEmpty(t, res.ErrorDetails)
}

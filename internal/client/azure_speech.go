package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/windfall/spellcheck_service/internal/errors"
)

const recognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"

// RecognitionOutcome is the terminal state of one recognition round trip.
type RecognitionOutcome string

const (
	OutcomeRecognized RecognitionOutcome = "recognized"
	OutcomeNoMatch    RecognitionOutcome = "no_match"
	OutcomeCanceled   RecognitionOutcome = "canceled"
)

// PronunciationResult is the classified provider response.
type PronunciationResult struct {
	Outcome           RecognitionOutcome
	RecognitionStatus string
	DisplayText       string
	AccuracyScore     float64
	FluencyScore      float64
	CompletenessScore float64
	PronScore         float64
	// Reason is the provider status or a short cause for no_match and canceled.
	Reason string
	// ErrorDetails carries the HTTP body or transport error for canceled.
	ErrorDetails string
}

// AzureSpeechClient wraps the Azure AI Speech short-audio REST API.
type AzureSpeechClient struct {
	apiKey   string
	region   string
	endpoint string
	language string
	client   *http.Client
}

// AzureSpeechOption configures an AzureSpeechClient.
type AzureSpeechOption func(*AzureSpeechClient)

// WithSpeechEndpoint overrides the regional recognition host, e.g. for sovereign clouds.
func WithSpeechEndpoint(endpoint string) AzureSpeechOption {
	return func(c *AzureSpeechClient) { c.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithSpeechLanguage sets the recognition locale.
func WithSpeechLanguage(language string) AzureSpeechOption {
	return func(c *AzureSpeechClient) {
		if language != "" {
			c.language = language
		}
	}
}

// WithSpeechHTTPClient replaces the HTTP client.
func WithSpeechHTTPClient(hc *http.Client) AzureSpeechOption {
	return func(c *AzureSpeechClient) { c.client = hc }
}

// NewAzureSpeechClient creates a new Azure Speech client.
func NewAzureSpeechClient(apiKey, region string, opts ...AzureSpeechOption) (*AzureSpeechClient, error) {
	c := &AzureSpeechClient{
		apiKey:   apiKey,
		region:   region,
		language: "en-US",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" || (c.region == "" && c.endpoint == "") {
		return nil, errors.Configuration("Azure Speech credentials not configured")
	}
	return c, nil
}

type pronunciationAssessmentParams struct {
	ReferenceText string `json:"ReferenceText"`
	GradingSystem string `json:"GradingSystem"`
	Granularity   string `json:"Granularity"`
	Dimension     string `json:"Dimension"`
	EnableMiscue  bool   `json:"EnableMiscue"`
}

type scoreBlock struct {
	AccuracyScore     *float64 `json:"AccuracyScore"`
	FluencyScore      float64  `json:"FluencyScore"`
	CompletenessScore float64  `json:"CompletenessScore"`
	PronScore         float64  `json:"PronScore"`
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Display string `json:"Display"`
		scoreBlock
		PronunciationAssessment *scoreBlock `json:"PronunciationAssessment"`
	} `json:"NBest"`
}

func (c *AzureSpeechClient) recognitionURL() string {
	base := c.endpoint
	if base == "" {
		base = fmt.Sprintf("https://%s.stt.speech.microsoft.com", c.region)
	}

	q := url.Values{}
	q.Set("language", c.language)
	q.Set("format", "detailed")
	return base + recognitionPath + "?" + q.Encode()
}

// AssessPronunciation sends 16 kHz mono PCM WAV audio for a single pronunciation
// assessment against referenceText. Provider-side failures are reported through
// the result Outcome; the error return is reserved for local faults.
func (c *AzureSpeechClient) AssessPronunciation(ctx context.Context, wav []byte, referenceText string) (*PronunciationResult, error) {
	params, err := json.Marshal(pronunciationAssessmentParams{
		ReferenceText: referenceText,
		GradingSystem: "HundredMark",
		Granularity:   "Phoneme",
		Dimension:     "Comprehensive",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.recognitionURL(), bytes.NewReader(wav))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Pronunciation-Assessment", base64.StdEncoding.EncodeToString(params))
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json;text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return &PronunciationResult{
			Outcome:      OutcomeCanceled,
			Reason:       "Error",
			ErrorDetails: err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PronunciationResult{
			Outcome:      OutcomeCanceled,
			Reason:       "Error",
			ErrorDetails: fmt.Sprintf("failed to read response: %v", err),
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &PronunciationResult{
			Outcome:      OutcomeCanceled,
			Reason:       fmt.Sprintf("HTTP %d", resp.StatusCode),
			ErrorDetails: strings.TrimSpace(string(body)),
		}, nil
	}

	var parsed recognitionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &PronunciationResult{
			Outcome:      OutcomeCanceled,
			Reason:       "Error",
			ErrorDetails: fmt.Sprintf("failed to decode response: %v", err),
		}, nil
	}

	return classify(&parsed), nil
}

func classify(r *recognitionResponse) *PronunciationResult {
	res := &PronunciationResult{RecognitionStatus: r.RecognitionStatus}

	switch r.RecognitionStatus {
	case "Success":
		res.Outcome = OutcomeRecognized
		res.DisplayText = r.DisplayText
		if len(r.NBest) > 0 {
			best := r.NBest[0]
			scores := best.scoreBlock
			if scores.AccuracyScore == nil && best.PronunciationAssessment != nil {
				scores = *best.PronunciationAssessment
			}
			if scores.AccuracyScore != nil {
				res.AccuracyScore = *scores.AccuracyScore
			}
			res.FluencyScore = scores.FluencyScore
			res.CompletenessScore = scores.CompletenessScore
			res.PronScore = scores.PronScore
			if res.DisplayText == "" {
				res.DisplayText = best.Display
			}
		}
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		res.Outcome = OutcomeNoMatch
		res.Reason = r.RecognitionStatus
	default:
		res.Outcome = OutcomeCanceled
		res.Reason = r.RecognitionStatus
		if res.Reason == "" {
			res.Reason = "Error"
		}
		res.ErrorDetails = "recognition status " + res.Reason
	}

	return res
}

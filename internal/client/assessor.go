package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/models"
)

// AssessorClient calls a remote assessment service over HTTP.
type AssessorClient struct {
	baseURL string
	client  *http.Client
}

// NewAssessorClient creates a client for the assessment service at baseURL.
func NewAssessorClient(baseURL string, timeout time.Duration) (*AssessorClient, error) {
	if baseURL == "" {
		return nil, errors.Configuration("assessment service URL is empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AssessorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Assess uploads the recording as multipart form data to POST /assess.
func (c *AssessorClient) Assess(ctx context.Context, req models.AssessRequest) (*models.AssessmentResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("spell", req.Spell); err != nil {
		return nil, fmt.Errorf("failed to write spell field: %w", err)
	}

	filename := req.Filename
	if filename == "" {
		filename = "recording.webm"
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio part: %w", err)
	}
	if req.Audio != nil {
		if _, err := io.Copy(part, req.Audio); err != nil {
			return nil, fmt.Errorf("failed to copy audio: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assess", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(httpReq)
}

// AssessStored re-assesses an already stored recording via POST /assess/{fileID}.
func (c *AssessorClient) AssessStored(ctx context.Context, fileID uuid.UUID, spell string) (*models.AssessmentResult, error) {
	form := url.Values{}
	form.Set("spell", spell)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/assess/"+fileID.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(httpReq)
}

func (c *AssessorClient) do(req *http.Request) (*models.AssessmentResult, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAIService, "assessment service unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAIService, "failed to read assessment response", err)
	}

	if resp.StatusCode == http.StatusOK {
		var result models.AssessmentResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(errors.ErrAIService, "failed to decode assessment response", err)
		}
		return &result, nil
	}

	detail := remoteDetail(data)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, errors.New(errors.ErrNotFound, detail)
	case http.StatusUnprocessableEntity:
		return nil, errors.Unprocessable(detail)
	case http.StatusRequestEntityTooLarge:
		return nil, errors.TooLarge(detail)
	default:
		return nil, errors.New(errors.ErrAIService,
			fmt.Sprintf("assessment service returned %d: %s", resp.StatusCode, detail))
	}
}

func remoteDetail(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(data))
}

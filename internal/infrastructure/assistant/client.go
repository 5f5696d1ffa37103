package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/health-chat-assistant/internal/domain/entity"
	"github.com/yourusername/health-chat-assistant/internal/domain/repository"
)

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
	sem     chan struct{}
	mu      sync.Mutex
	last    time.Time
	delay   time.Duration
}

// NewClient creates a client for the remote assistant endpoints.
func NewClient(baseURL string, timeout time.Duration) repository.AssistantRepository {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log.With().Str("component", "assistant").Logger(),
		sem:     make(chan struct{}, 3), // no more than 3 requests at once
		delay:   350 * time.Millisecond, // minimal interval
	}
}

type chatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

type chatResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error"`
}

// GenerateReply sends {message, language} to the chat endpoint. An error
// payload, a non-ok status or an empty reply all count as a failed call.
func (c *httpClient) GenerateReply(ctx context.Context, message, language string) (string, error) {
	release := c.acquire()
	defer release()

	var parsed chatResponse
	status, err := c.postJSON(ctx, "/chat", chatRequest{Message: message, Language: language}, &parsed)
	if err != nil {
		return "", &entity.RemoteError{Kind: "chat", Message: err.Error()}
	}
	if parsed.Error != "" {
		return "", &entity.RemoteError{Kind: "chat", Message: parsed.Error}
	}
	if status != http.StatusOK {
		return "", &entity.RemoteError{Kind: "chat", Message: fmt.Sprintf("the server returned status %d", status)}
	}
	if parsed.Reply == "" {
		return "", &entity.RemoteError{Kind: "chat", Message: "the server returned an empty response"}
	}
	return parsed.Reply, nil
}

type translateRequest struct {
	Text     string `json:"text"`
	SrcLang  string `json:"src_lang"`
	DestLang string `json:"dest_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	Error          string `json:"error"`
}

// Translate sends text to the translate endpoint.
func (c *httpClient) Translate(ctx context.Context, text, srcLang, destLang string) (string, error) {
	release := c.acquire()
	defer release()

	var parsed translateResponse
	req := translateRequest{Text: text, SrcLang: srcLang, DestLang: destLang}
	status, err := c.postJSON(ctx, "/translate", req, &parsed)
	if err != nil {
		return "", &entity.RemoteError{Kind: "translate", Message: err.Error()}
	}
	if parsed.Error != "" {
		return "", &entity.RemoteError{Kind: "translate", Message: parsed.Error}
	}
	if status != http.StatusOK {
		return "", &entity.RemoteError{Kind: "translate", Message: fmt.Sprintf("the server returned status %d", status)}
	}
	return parsed.TranslatedText, nil
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Transcribe uploads recorded audio as a multipart form and returns the
// transcript text.
func (c *httpClient) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	release := c.acquire()
	defer release()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio part: %w", err)
	}
	if err := form.WriteField("language", language); err != nil {
		return "", fmt.Errorf("failed to write language field: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe_audio", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var parsed transcribeResponse
	status, err := c.do(req, &parsed)
	if err != nil {
		return "", &entity.RemoteError{Kind: "transcription", Message: err.Error()}
	}
	if parsed.Error != "" {
		return "", &entity.RemoteError{Kind: "transcription", Message: parsed.Error}
	}
	if status != http.StatusOK {
		return "", &entity.RemoteError{Kind: "transcription", Message: fmt.Sprintf("the server returned status %d", status)}
	}
	if parsed.Text == "" {
		return "", &entity.RemoteError{Kind: "transcription", Message: "could not understand audio"}
	}
	return parsed.Text, nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload, out any) (int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes the request and decodes the JSON body. Error payloads ride
// on non-2xx responses, so the body is decoded before the status check
// and any error field in it wins over the bare status line. The status is
// returned so callers can fail a non-ok response whose body carries no
// error field; the server answers some upstream failures with a non-ok
// status and an ordinary-looking payload.
func (c *httpClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("non-ok response")
	}
	return resp.StatusCode, nil
}

func (c *httpClient) acquire() func() {
	c.sem <- struct{}{}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.last.IsZero() {
		c.last = now
	} else {
		if sleep := c.delay - now.Sub(c.last); sleep > 0 {
			time.Sleep(sleep)
			now = time.Now()
		}
		c.last = now
	}

	return func() {
		<-c.sem
	}
}

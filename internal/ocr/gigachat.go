package ocr

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"agro-kyc/internal/kyc"
	"agro-kyc/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatModel    = "GigaChat"

	// The vision endpoint reports no confidence; extracted text is assumed
	// reasonably but not fully reliable.
	visionConfidence = 0.85
)

// Phrases the model uses when it refuses instead of transcribing.
var refusalPhrases = []string{
	"não posso ajudar",
	"não consigo",
	"не могу помочь",
	"не могу обработать",
	"не могу извлечь",
	"cannot help",
	"cannot process",
	"please provide",
	"i'm unable",
}

// GigaChatRecognizer extracts text through the GigaChat Vision API: the image
// is uploaded to the files endpoint and referenced as a chat attachment.
type GigaChatRecognizer struct {
	config     *config.GigaChatConfig
	httpClient *http.Client
	baseURL    string
	oauthURL   string
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// GigaChatOption overrides endpoints, mostly for tests.
type GigaChatOption func(*GigaChatRecognizer)

func WithGigaChatEndpoints(baseURL, oauthURL string) GigaChatOption {
	return func(r *GigaChatRecognizer) {
		r.baseURL = baseURL
		r.oauthURL = oauthURL
	}
}

func WithHTTPClient(client *http.Client) GigaChatOption {
	return func(r *GigaChatRecognizer) {
		r.httpClient = client
	}
}

func NewGigaChatRecognizer(cfg *config.GigaChatConfig, logger *zap.Logger, opts ...GigaChatOption) *GigaChatRecognizer {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	r := &GigaChatRecognizer{
		config:     cfg,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		oauthURL:   gigaChatOAuthURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GigaChatRecognizer) Recognize(ctx context.Context, image []byte, languages []string) (kyc.Recognition, error) {
	token, err := r.token(ctx)
	if err != nil {
		return kyc.Recognition{}, err
	}

	fileID, err := r.uploadFile(ctx, token, image)
	if err != nil {
		return kyc.Recognition{}, err
	}

	text, err := r.extractText(ctx, token, fileID, buildPrompt(languages))
	if err != nil {
		return kyc.Recognition{}, err
	}
	if text == "" {
		return kyc.Recognition{}, nil
	}

	return kyc.Recognition{Text: text, Confidence: visionConfidence}, nil
}

func buildPrompt(languages []string) string {
	return fmt.Sprintf(`Transcribe all text visible on this identity document image.
The document may mix these languages (Tesseract codes): %s.
Return ONLY the transcribed text, keeping line breaks, with no comments or explanations.
If the text is unreadable, return an empty string.`, strings.Join(languages, ", "))
}

// token returns a cached OAuth access token, fetching a new one when it is
// missing or about to expire.
func (r *GigaChatRecognizer) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Until(r.expiresAt) > time.Minute {
		return r.accessToken, nil
	}

	rqUID := uuid.New().String()
	formData := url.Values{}
	formData.Set("scope", r.config.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// The API key is issued already Base64-encoded.
	req.Header.Set("Authorization", "Basic "+r.config.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		r.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d", resp.StatusCode)
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	r.accessToken = oauthResp.AccessToken
	// expires_at is in milliseconds since epoch.
	if oauthResp.ExpiresAt > 0 {
		r.expiresAt = time.UnixMilli(oauthResp.ExpiresAt)
	} else {
		r.expiresAt = time.Now().Add(30 * time.Minute)
	}

	r.logger.Info("Access token obtained", zap.Time("expires_at", r.expiresAt))
	return r.accessToken, nil
}

func (r *GigaChatRecognizer) uploadFile(ctx context.Context, token string, image []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" makes the file usable as a chat attachment.
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	mimeType := http.DetectContentType(image)
	ext := ".jpg"
	if mimeType == kyc.MimePNG {
		ext = ".png"
	}
	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="document%s"`, ext)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("file upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploadResp.ID == "" {
		return "", fmt.Errorf("empty file id in upload response")
	}

	return uploadResp.ID, nil
}

func (r *GigaChatRecognizer) extractText(ctx context.Context, token, fileID, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model": gigaChatModel,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     prompt,
				"attachments": []string{fileID},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)
	textLower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(textLower, phrase) {
			r.logger.Warn("Vision model refused to transcribe", zap.String("message", text))
			return "", fmt.Errorf("model returned refusal: %s", text)
		}
	}

	r.logger.Info("Text extracted via GigaChat Vision", zap.Int("text_length", len(text)))
	return text, nil
}

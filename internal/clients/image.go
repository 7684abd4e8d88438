package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eduvid/videogen-worker/internal/pipeline"
)

// styleGuides map a requested style onto prompt suffixes.
var styleGuides = map[string]string{
	"professional": "professional, clean, modern design, high quality",
	"academic":     "academic, educational, clear diagrams, technical",
	"casual":       "friendly, approachable, colorful, engaging",
	"minimalist":   "minimalist, simple, clean lines, white background",
}

// ImageClient generates illustrations through a DALL-E style images
// endpoint and downloads the result to a local file.
type ImageClient struct {
	baseURL    string
	apiKey     string
	model      string
	outputDir  string
	httpClient *http.Client
}

// NewImageClient creates an image generation client writing files under outputDir.
func NewImageClient(baseURL, apiKey, model, outputDir string) (*ImageClient, error) {
	if model == "" {
		model = "dall-e-3"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image output dir: %w", err)
	}
	return &ImageClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		outputDir:  outputDir,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate creates one image for the prompt and returns the local file path.
func (c *ImageClient) Generate(ctx context.Context, prompt, style, size string) (string, error) {
	if size == "" {
		size = "1024x1024"
	}

	reqBody := imageRequest{
		Model:   c.model,
		Prompt:  enhancePrompt(prompt, style),
		Size:    size,
		Quality: "standard",
		N:       1,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-generation", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/images/generations", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-generation", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-generation", Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-generation", Err: err}
	}

	var imgResp imageResponse
	if err := json.Unmarshal(respBytes, &imgResp); err != nil {
		return "", &pipeline.ProviderError{Op: "image-generation", Err: err}
	}
	if imgResp.Error != nil {
		return "", &pipeline.ProviderError{
			Op:  "image-generation",
			Err: fmt.Errorf("%s", imgResp.Error.Message),
		}
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].URL == "" {
		return "", &pipeline.ProviderError{
			Op:  "image-generation",
			Err: fmt.Errorf("no image in response"),
		}
	}

	return c.downloadImage(ctx, imgResp.Data[0].URL)
}

// downloadImage fetches the generated image URL into the output dir.
func (c *ImageClient) downloadImage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-download", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &pipeline.ProviderError{
			Op:  "image-download",
			Err: fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	outPath := filepath.Join(c.outputDir, fmt.Sprintf("img_%s.png", uuid.NewString()[:8]))
	out, err := os.Create(outPath)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "image-download", Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(outPath)
		return "", &pipeline.ProviderError{Op: "image-download", Err: err}
	}

	return outPath, nil
}

func enhancePrompt(prompt, style string) string {
	guide, ok := styleGuides[style]
	if !ok {
		guide = styleGuides["professional"]
	}
	return fmt.Sprintf("%s, %s, educational illustration", prompt, guide)
}

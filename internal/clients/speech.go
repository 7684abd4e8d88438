package clients

import (
	"context"
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

// SpeechClient synthesizes narration audio through a cognitive-services
// style TTS REST endpoint and saves the result to a local file.
type SpeechClient struct {
	endpoint     string
	apiKey       string
	defaultVoice string
	outputDir    string
	httpClient   *http.Client
}

// NewSpeechClient creates a TTS client writing audio under outputDir.
func NewSpeechClient(endpoint, apiKey, defaultVoice, outputDir string) (*SpeechClient, error) {
	if defaultVoice == "" {
		defaultVoice = "en-US-JennyNeural"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio output dir: %w", err)
	}
	return &SpeechClient{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		defaultVoice: defaultVoice,
		outputDir:    outputDir,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Synthesize converts text to speech and returns the audio file path.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if voice == "" {
		voice = c.defaultVoice
	}

	ssml := buildSSML(text, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/cognitiveservices/v1", strings.NewReader(ssml))
	if err != nil {
		return "", &pipeline.ProviderError{Op: "text-to-speech", Err: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "riff-24khz-16bit-mono-pcm")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "text-to-speech", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", &pipeline.ProviderError{
			Op:  "text-to-speech",
			Err: fmt.Errorf("synthesis failed with status %d: %s", resp.StatusCode, body),
		}
	}

	outPath := filepath.Join(c.outputDir, fmt.Sprintf("narration_%s.wav", uuid.NewString()[:8]))
	out, err := os.Create(outPath)
	if err != nil {
		return "", &pipeline.ProviderError{Op: "text-to-speech", Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(outPath)
		return "", &pipeline.ProviderError{Op: "text-to-speech", Err: err}
	}

	return outPath, nil
}

func buildSSML(text, voice string) string {
	var sb strings.Builder
	sb.WriteString(`<speak version="1.0" xml:lang="en-US">`)
	sb.WriteString(fmt.Sprintf(`<voice name="%s">`, voice))
	sb.WriteString(escapeXML(text))
	sb.WriteString(`</voice></speak>`)
	return sb.String()
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

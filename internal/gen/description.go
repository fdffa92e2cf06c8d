package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/muhdb91/therinproperty/internal/config"
)

// FallbackDescription is returned on any failure, including absent
// credentials; generation errors are logged, never surfaced.
const FallbackDescription = "Beautifully maintained property ready for its new owners. Features spacious living areas and modern amenities in a prime location."

// Details of the listing the description is generated for.
type Details struct {
	Title    string `json:"title"`
	Beds     int    `json:"beds"`
	Baths    int    `json:"baths"`
	Location string `json:"location"`
}

// IGenerator produces a marketing description for a listing.
type IGenerator interface {
	Generate(ctx context.Context, details Details) string
}

// generator implements IGenerator against a Gemini-style generateContent
// endpoint.
type generator struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewGenerator creates a description generator.
func NewGenerator(cfg *config.Config) IGenerator {
	return &generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type generateRequest struct {
	Contents []genContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// Generate calls the generation endpoint and falls back to the fixed text on
// any failure.
func (g *generator) Generate(ctx context.Context, details Details) string {
	if g.cfg.GeminiAPIKey == "" {
		log.Println("Generation API key missing. Descriptions will fall back to default text.")
		return FallbackDescription
	}

	prompt := fmt.Sprintf(
		"Create a compelling 3-sentence real estate listing description for a %d bed, %d bath property titled %q located in %s. Highlight luxury and comfort.",
		details.Beds, details.Baths, details.Title, details.Location)

	reqBody := generateRequest{
		Contents: []genContent{{Parts: []genPart{{Text: prompt}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		log.Printf("Generation request encode error: %v", err)
		return FallbackDescription
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		g.cfg.GeminiEndpoint, g.cfg.GeminiModel, g.cfg.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Generation request error: %v", err)
		return FallbackDescription
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("Generation call failed: %v", err)
		return FallbackDescription
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Generation response read error: %v", err)
		return FallbackDescription
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Generation endpoint returned status %d: %s", resp.StatusCode, string(body))
		return FallbackDescription
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		log.Printf("Generation response decode error: %v", err)
		return FallbackDescription
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 ||
		genResp.Candidates[0].Content.Parts[0].Text == "" {
		return FallbackDescription
	}
	return genResp.Candidates[0].Content.Parts[0].Text
}

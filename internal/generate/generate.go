// Package generate adapts a hosted image-editing diffusion endpoint behind
// the tryon.Generator contract. The endpoint receives the person and cloth
// references plus the instruction and returns one candidate try-on image.
package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/imaging"
)

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	PersonImage string  `json:"person_image"`
	ClothImage  string  `json:"cloth_image"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Steps       int     `json:"steps"`
	Guidance    float64 `json:"guidance"`
	Seed        int64   `json:"seed"`
}

type generateResponse struct {
	Image string `json:"image"`
}

// Adapter calls the generation endpoint over HTTP. It performs no retries;
// all retry policy lives in the feedback loop controller.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates a generator adapter from finalized configuration.
func New(cfg *Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		cfg: *cfg,
		client: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: logger.With("system", "generator"),
	}
}

// Generate requests one candidate image for the pair and instruction.
// Transport errors, non-200 responses, and undecodable payloads all wrap
// tryon.ErrGenerationFailed.
func (ad *Adapter) Generate(
	ctx context.Context,
	person, cloth tryon.Image,
	instruction string,
) (tryon.Image, error) {
	payload := generateRequest{
		Model:       ad.cfg.Model,
		Prompt:      instruction,
		PersonImage: base64.StdEncoding.EncodeToString(person.Data),
		ClothImage:  base64.StdEncoding.EncodeToString(cloth.Data),
		Width:       ad.cfg.Size,
		Height:      ad.cfg.Size,
		Steps:       ad.cfg.Steps,
		Guidance:    ad.cfg.Guidance,
		Seed:        ad.cfg.Seed,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return tryon.Image{}, fmt.Errorf("%w: encode request: %w", tryon.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ad.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return tryon.Image{}, fmt.Errorf("%w: build request: %w", tryon.ErrGenerationFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if ad.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ad.cfg.Token)
	}

	resp, err := ad.client.Do(req)
	if err != nil {
		return tryon.Image{}, fmt.Errorf("%w: %w", tryon.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return tryon.Image{}, fmt.Errorf(
			"%w: endpoint returned %d: %s",
			tryon.ErrGenerationFailed, resp.StatusCode, detail,
		)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return tryon.Image{}, fmt.Errorf("%w: decode response: %w", tryon.ErrGenerationFailed, err)
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.Image)
	if err != nil {
		return tryon.Image{}, fmt.Errorf("%w: decode image payload: %w", tryon.ErrGenerationFailed, err)
	}

	normalized, err := imaging.Normalize(raw)
	if err != nil {
		return tryon.Image{}, fmt.Errorf("%w: %w", tryon.ErrGenerationFailed, err)
	}

	ad.logger.InfoContext(
		ctx, "candidate generated",
		"person", person.Name,
		"cloth", cloth.Name,
		"bytes", len(normalized),
	)

	return tryon.Image{Name: "try_on", Data: normalized}, nil
}

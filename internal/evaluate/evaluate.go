// Package evaluate adapts a vision-language model behind the tryon.Evaluator
// contract. The model judges each candidate against the fixed constraint
// checklist and returns a strictly structured verdict.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/JaimeStill/go-agents/pkg/format"

	"github.com/tryonware/stitch/internal/prompts"
	"github.com/tryonware/stitch/internal/tryon"
	"github.com/tryonware/stitch/pkg/imaging"
)

// Adapter calls the evaluation model through go-agents vision requests.
type Adapter struct {
	agentCfg gaconfig.AgentConfig
	logger   *slog.Logger
}

// New creates an evaluator adapter. The agent itself is constructed per call,
// so one Adapter is safe to share across workers.
func New(cfg *gaconfig.AgentConfig, logger *slog.Logger) *Adapter {
	return &Adapter{
		agentCfg: *cfg,
		logger:   logger.With("system", "evaluator"),
	}
}

// Evaluate sends the person, cloth, and candidate history to the vision model
// and parses its response into a Verdict. attempt is the loop attempt index,
// which drifts ahead of the candidate count when a generation failed. Any
// transport failure or response that does not match the structured shape
// wraps tryon.ErrEvaluationFailed.
func (ad *Adapter) Evaluate(
	ctx context.Context,
	person, cloth tryon.Image,
	attempt int,
	candidates []tryon.Image,
) (tryon.Verdict, error) {
	if len(candidates) == 0 {
		return tryon.Verdict{}, fmt.Errorf("%w: no candidate image", tryon.ErrEvaluationFailed)
	}

	a, err := agent.New(&ad.agentCfg)
	if err != nil {
		return tryon.Verdict{}, fmt.Errorf("%w: create agent: %w", tryon.ErrEvaluationFailed, err)
	}

	uris, err := encodeImages(person, cloth, candidates)
	if err != nil {
		return tryon.Verdict{}, fmt.Errorf("%w: %w", tryon.ErrEvaluationFailed, err)
	}

	var sb strings.Builder
	sb.WriteString(prompts.ComposeEvaluateSystem())
	sb.WriteString("\n\n")
	sb.WriteString(prompts.ComposeEvaluateUser(attempt, len(candidates)))

	visionImages := make([]format.Image, 0, len(uris))
	for _, uri := range uris {
		visionImages = append(visionImages, format.Image{URL: uri})
	}

	resp, err := a.Vision(ctx, sb.String(), visionImages)
	if err != nil {
		return tryon.Verdict{}, fmt.Errorf("%w: vision call: %w", tryon.ErrEvaluationFailed, err)
	}

	verdict, err := ParseVerdict(resp.Text())
	if err != nil {
		return tryon.Verdict{}, err
	}

	ad.logger.InfoContext(
		ctx, "candidate evaluated",
		"attempt", attempt,
		"candidates", len(candidates),
		"overall_pass", verdict.OverallPass(),
	)

	return verdict, nil
}

func encodeImages(person, cloth tryon.Image, candidates []tryon.Image) ([]string, error) {
	images := make([]tryon.Image, 0, len(candidates)+2)
	images = append(images, person, cloth)
	images = append(images, candidates...)

	uris := make([]string, 0, len(images))
	for _, img := range images {
		uri, err := imaging.DataURI(img.Data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", img.Name, err)
		}
		uris = append(uris, uri)
	}

	return uris, nil
}

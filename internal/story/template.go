package story

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"text/template"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/emissions"
)

// storyTemplate reads like the hosted model's output so the frontend never
// has to care which generator produced the text.
var storyTemplate = template.Must(template.New("story").Parse(
	`In {{.Year}}, {{.State}} is on track for about {{.GHG}} tonnes of CO2e in greenhouse gas emissions. {{.Verdict}} Every tree planted, every mile left undriven and every kilowatt hour saved rewrites next year's chapter.`))

type templateView struct {
	Year    int
	State   string
	GHG     string
	Verdict string
}

// TemplateGenerator writes a deterministic story from the prediction alone.
// It needs no network and no credentials.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(_ context.Context, req Request) (string, error) {
	state := req.State
	if state == "" {
		state = emissions.DefaultState
	}

	var buf bytes.Buffer
	err := storyTemplate.Execute(&buf, templateView{
		Year:    req.Year,
		State:   state,
		GHG:     strconv.FormatFloat(req.GHG, 'f', 1, 64),
		Verdict: verdict(req.Certificate),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render story: %w", err)
	}

	return buf.String(), nil
}

func verdict(level emissions.Level) string {
	switch level {
	case emissions.LevelGold:
		return "That earns the community a Gold certificate, the strongest grade on the board."
	case emissions.LevelSilver:
		return "That earns a Silver certificate, close behind the leaders."
	case emissions.LevelBronze:
		return "That earns a Bronze certificate, with plenty of headroom left to climb."
	default:
		return "No certificate is graded yet, so this result sets the baseline."
	}
}

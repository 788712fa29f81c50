// Package assistant asks a generative model for product ideas and recipes.
// It never fails: every error is answered with a fixed fallback.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viepratiqueservice-arch/Visela/internal/metrics"
	"go.uber.org/zap"
)

const (
	recommendTemperature = 0.7
	recipeTemperature    = 0.9
	defaultTimeout       = 8 * time.Second
)

var (
	FallbackRecommendations = []string{"Avocats", "Quinoa", "Eau Minérale"}
	FallbackRecipes         = "Impossible de charger les recettes pour le moment."
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

type Assistant struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New builds an assistant. A nil generator always answers with the fallbacks.
func New(gen Generator, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Assistant {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{gen: gen, timeout: timeout, log: log, metrics: m}
}

// Recommend suggests raw, fresh products for a mood.
func (a *Assistant) Recommend(ctx context.Context, mood string) []string {
	prompt := fmt.Sprintf("Propose 3 types de produits alimentaires FRAIS et BRUTS (ex: fruits, légumes, céréales, eaux) "+
		"parfaits pour quelqu'un qui se sent %q. Donne juste les noms des produits séparés par des virgules, sans plats préparés.",
		strings.TrimSpace(mood))

	text, err := a.generate(ctx, prompt, recommendTemperature)
	if err == nil {
		if items := splitList(text); len(items) > 0 {
			return items
		}
		err = errEmptyReply
	}
	a.fallback("recommend", err)
	out := make([]string, len(FallbackRecommendations))
	copy(out, FallbackRecommendations)
	return out
}

// Speak returns short recipe ideas for a category, meant to be read aloud
// by the client.
func (a *Assistant) Speak(ctx context.Context, category string) string {
	prompt := fmt.Sprintf("Donne-moi 3 idées de recettes gourmandes et simples que je peux faire avec des produits "+
		"de la catégorie %q. Pour chaque recette, donne un titre court et une description de 10 mots.",
		strings.TrimSpace(category))

	text, err := a.generate(ctx, prompt, recipeTemperature)
	if err == nil {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
		err = errEmptyReply
	}
	a.fallback("speak", err)
	return FallbackRecipes
}

var (
	errEmptyReply  = errors.New("model returned no text")
	errNoGenerator = errors.New("no generator configured")
)

func (a *Assistant) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if a.gen == nil {
		return "", errNoGenerator
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.gen.Generate(ctx, prompt, temperature)
}

func (a *Assistant) fallback(operation string, err error) {
	a.log.Warn("assistant fell back",
		zap.String("component", "Assistant"),
		zap.String("operation", operation),
		zap.Error(err),
	)
	a.metrics.AIFallback(operation)
}

// splitList turns "Mangues, Épinards,  Bissap." into its trimmed items.
func splitList(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), ".")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

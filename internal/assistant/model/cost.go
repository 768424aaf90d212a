package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M tokens (text tokens).
var defaultPricing = map[string]Pricing{
	// Source: OpenAI pricing (Standard; text).
	"gpt-4o":      {InputPerM: 4.25, OutputPerM: 17.00},
	"gpt-4o-mini": {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4.1":     {InputPerM: 2.00, OutputPerM: 8.00},
}

// ResolvePricing returns hardcoded pricing for a model.
func ResolvePricing(model string) Pricing {
	var p Pricing
	var ok bool
	if p, ok = defaultPricing[model]; !ok {
		// fallback to zero pricing if unknown
		p = Pricing{}
	}
	return p
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

// CostFromTokens computes USD cost from raw token counts.
func CostFromTokens(inputTokens, outputTokens int, p Pricing) float64 {
	return p.InputPerM*float64(inputTokens)/1_000_000.0 + p.OutputPerM*float64(outputTokens)/1_000_000.0
}

// EstimateTokens approximates the token count of text when the provider did
// not report usage. Roughly four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

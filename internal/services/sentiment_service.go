package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"tripwise/internal/models/db_models"
	"tripwise/internal/models/response_models"
	"tripwise/pkg/utils"
)

type SentimentServiceInterface interface {
	ShouldAnalyze(record *db_models.VerificationRecord) bool
	Analyze(ctx context.Context, record *db_models.VerificationRecord) (*response_models.SentimentResult, error)
}

type SentimentService struct {
	ai utils.AIClientInterface
}

func NewSentimentService(ai utils.AIClientInterface) SentimentServiceInterface {
	return &SentimentService{ai: ai}
}

// ShouldAnalyze is the cheap gate before the expensive LLM call: only places
// with a provider identity and at least one category tag are worth analyzing.
func (s *SentimentService) ShouldAnalyze(record *db_models.VerificationRecord) bool {
	return record != nil && record.PlaceID != "" && len(record.Types) > 0
}

// Analyze asks the LLM for a recommendation score and summary. Results are
// intentionally not cached so the summary always reflects the latest reviews.
func (s *SentimentService) Analyze(ctx context.Context, record *db_models.VerificationRecord) (*response_models.SentimentResult, error) {
	prompt := fmt.Sprintf(`Rate the venue below for travelers. Return JSON only, no markdown:
{"score": 0.0, "summary": "...", "keywords": ["..."], "review_count": 0}
score is 0-5. Keep the summary to two sentences.

Venue: %s
Destination: %s
Categories: %s
Provider rating: %.1f`,
		record.CanonicalName, record.Destination, strings.Join(record.Types, ", "), record.Rating)

	raw, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Score       float64  `json:"score"`
		Summary     string   `json:"summary"`
		Keywords    []string `json:"keywords"`
		ReviewCount int      `json:"review_count"`
	}
	if err := json.Unmarshal([]byte(utils.CleanJSONResponse(raw)), &parsed); err != nil {
		return nil, utils.ErrAIOutputUnparseable
	}

	return &response_models.SentimentResult{
		Score:       parsed.Score,
		Label:       sentimentLabel(parsed.Score),
		Summary:     parsed.Summary,
		Keywords:    parsed.Keywords,
		ReviewCount: parsed.ReviewCount,
	}, nil
}

func sentimentLabel(score float64) string {
	switch {
	case score < 2.5:
		return "negative"
	case score > 3.5:
		return "positive"
	default:
		return "neutral"
	}
}

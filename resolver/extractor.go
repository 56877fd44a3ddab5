// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
)

// CompletionRequest is a single system+user chat completion.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Completer sends a completion request to a language model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

const extractionSystemPrompt = `You extract the physical location of an event from short, noisy clues
(flyer text, social media posts, venue mentions, phone numbers).

Answer with strict JSON and nothing else:
{"address": string, "locationNotes": string, "confidence": number between 0 and 1}

Rules:
1. Several US cities share their name with a state or with DC (Washington,
   Kansas City, New York, Virginia Beach...). Never resolve such a name without
   state context; use the user location or area code hints to pick the state.
2. Prefer a full address: "<street number> <street>, <city>, <ST> <zip>" when
   the clues allow it.
3. When no full address can be derived, put the best partial identification
   (business or venue name, cross streets, city and state) in "address" and
   any extra landmark detail in "locationNotes". Never invent a street
   number, street, city, state or zip that is not supported by the clues.
4. Phone number area codes identify a region; use them to disambiguate.
5. If nothing identifies a place, set "address" to "NO_ADDRESS" and describe
   what is known in "locationNotes" (or leave it empty).`

// AddressExtractor asks a language model for the address hidden in clues.
type AddressExtractor struct {
	completer   Completer
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewAddressExtractor creates an extractor using opts for model parameters.
func NewAddressExtractor(completer Completer, opts Options, logger *zap.Logger) *AddressExtractor {
	return &AddressExtractor{
		completer:   completer,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      logging.OrNop(logger).Named("extractor"),
	}
}

// BuildUserPrompt renders the user message for clueText and userContext.
func BuildUserPrompt(clueText, userContext string) string {
	var sb strings.Builder

	sb.WriteString("Clues: ")
	sb.WriteString(clueText)
	sb.WriteString("\n")

	if userContext != "" {
		sb.WriteString("User location: ")
		sb.WriteString(userContext)
		sb.WriteString("\n")
	}

	if hints := DetectAreaCodes(clueText); len(hints) > 0 {
		sb.WriteString("Area code hints:\n")

		for _, h := range hints {
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", h.Code, h.Region, h.State)
		}
	}

	return sb.String()
}

// Extract runs the extraction for the joined clue text. Completion failures
// and unparseable answers are returned as *ExtractionError.
func (x *AddressExtractor) Extract(ctx context.Context, clueText, userContext string) (Extraction, error) {
	content, err := x.completer.Complete(ctx, CompletionRequest{
		System:      extractionSystemPrompt,
		User:        BuildUserPrompt(clueText, userContext),
		Model:       x.model,
		Temperature: x.temperature,
		MaxTokens:   x.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Extraction{}, &ExtractionError{Err: fmt.Errorf("completion: %w", err)}
	}

	ext, err := ParseExtraction(content)
	if err != nil {
		x.logger.Warn("unparseable extraction", zap.String("content", content))

		return Extraction{}, err
	}

	x.logger.Debug("extracted",
		zap.String("address", ext.Address),
		zap.String("notes", ext.LocationNotes),
		zap.Float64("model_confidence", ext.Confidence),
		zap.String("source", string(ext.Source)))

	return ext, nil
}

// IsUnparseable reports whether err comes from an answer no parser stage understood.
func IsUnparseable(err error) bool {
	return errors.Is(err, ErrUnparseableExtraction)
}

// Package normalize turns raw model output into one of the canonical
// chat outcomes: a structured recipe, a conversational reply, a
// model-reported error, or a parse failure.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/thaifoodie/chat-backend/internal/types"
)

// Kind identifies the semantic outcome of a model response.
type Kind int

const (
	KindRecipe Kind = iota
	KindConversation
	KindModelError
	KindParseFailure
)

// String returns a short name for the outcome kind.
func (k Kind) String() string {
	switch k {
	case KindRecipe:
		return "recipe"
	case KindConversation:
		return "conversation"
	case KindModelError:
		return "model_error"
	case KindParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// Result is the canonical outcome of classifying one model response.
// Exactly one outcome applies: Recipe is set only for KindRecipe, Text
// carries the reply for KindConversation and the backend's message for
// KindModelError, and Raw/Err carry the diagnostic for KindParseFailure.
type Result struct {
	Kind   Kind
	Recipe *types.Recipe
	Text   string
	Raw    string
	Err    error
}

var (
	errEmptyInput        = errors.New("empty model response")
	errMissingDishName   = errors.New("recipe missing dishName")
	errEmptyIngredients  = errors.New("recipe has no ingredients")
	errEmptyInstructions = errors.New("recipe has no instructions")
)

// Classify parses one complete raw text block from the model and
// decides which outcome applies. It is a pure function of its input.
//
// Discriminant keys are checked in fixed priority order (error, then
// conversation, then recipe shape) so a malformed payload carrying more
// than one key resolves deterministically.
func Classify(raw string) Result {
	text := StripFence(strings.TrimSpace(raw))
	if text == "" {
		return Result{Kind: KindParseFailure, Raw: raw, Err: errEmptyInput}
	}
	repaired := RepairTrailingCommas(text)

	var probe struct {
		Error        *string `json:"error"`
		Conversation *string `json:"conversation"`
	}
	if err := json.Unmarshal([]byte(repaired), &probe); err != nil {
		return Result{Kind: KindParseFailure, Raw: raw, Err: err}
	}

	switch {
	case probe.Error != nil:
		return Result{Kind: KindModelError, Text: *probe.Error}
	case probe.Conversation != nil:
		return Result{Kind: KindConversation, Text: *probe.Conversation}
	}

	var recipe types.Recipe
	if err := json.Unmarshal([]byte(repaired), &recipe); err != nil {
		return Result{Kind: KindParseFailure, Raw: raw, Err: err}
	}
	if err := ValidateRecipe(&recipe); err != nil {
		return Result{Kind: KindParseFailure, Raw: raw, Err: err}
	}
	return Result{Kind: KindRecipe, Recipe: &recipe}
}

// ValidateRecipe checks the minimum shape a finalized recipe must have.
func ValidateRecipe(r *types.Recipe) error {
	if r.DishName == "" {
		return errMissingDishName
	}
	if len(r.Ingredients) == 0 {
		return errEmptyIngredients
	}
	if len(r.Instructions) == 0 {
		return errEmptyInstructions
	}
	return nil
}

// StripFence removes one surrounding markdown code fence, optionally
// tagged with a language ("```json"). Anything that is not a complete
// fence pair is returned unchanged.
func StripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	rest := trimmed[3:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		// The opening fence line may carry a language tag; it must not
		// contain anything else.
		tag := strings.TrimSpace(rest[:i])
		if strings.ContainsAny(tag, " \t{[") {
			return s
		}
		rest = rest[i+1:]
	} else {
		return s
	}
	if !strings.HasSuffix(strings.TrimSpace(rest), "```") {
		return s
	}
	rest = strings.TrimSpace(rest)
	return strings.TrimSpace(rest[:len(rest)-3])
}

// RepairTrailingCommas removes commas that directly precede a closing
// ']' or '}' at any nesting level, which the model is known to emit.
// The pass is string-aware so commas inside JSON string values are
// never touched, and the semantic content is otherwise unchanged.
func RepairTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			b.WriteByte(c)
		case ',':
			// Drop the comma when the next non-whitespace byte closes
			// the current value.
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// DiagnosticText renders a parse failure as a short, debuggable message
// suitable for showing in the transcript.
func DiagnosticText(r Result) string {
	snippet := r.Raw
	const maxSnippet = 120
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	return fmt.Sprintf("could not understand the model response: %v (response began: %q)", r.Err, snippet)
}

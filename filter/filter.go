// Package filter compiles boolean expressions evaluated locally against
// flashcards. Expressions see the fields front, back, difficulty,
// tagged and tag_id, plus a few string helpers, e.g.
//
//	contains(front, "verb") && difficulty >= 2
//	!tagged
package filter

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/EloSanz/iCardsMCP/icards"
)

// Filter is a compiled flashcard filter expression.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression into an executable filter.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(helperFunctions()),
		expr.AllowUndefinedVariables(), // flashcard fields are injected at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &Filter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expression }

// Match evaluates the filter against one flashcard.
func (f *Filter) Match(card icards.Flashcard) (bool, error) {
	env := helperFunctions()
	env["front"] = card.Front
	env["back"] = card.Back
	env["difficulty"] = card.Difficulty
	env["tagged"] = card.Tagged()
	if card.TagID != nil {
		env["tag_id"] = *card.TagID
	} else {
		env["tag_id"] = int64(0)
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression:  f.expression,
			FlashcardID: card.ID,
			Reason:      "failed to evaluate expression",
			Err:         err,
		}
	}

	result, ok := out.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression:  f.expression,
			FlashcardID: card.ID,
			Reason:      "expression did not return a boolean",
		}
	}
	return result, nil
}

// helperFunctions returns the case-insensitive string helpers available
// inside expressions.
func helperFunctions() map[string]any {
	return map[string]any{
		"contains": func(s, substr string) bool {
			return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
		},
		"hasPrefix": func(s, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
		},
		"hasSuffix": func(s, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
	}
}

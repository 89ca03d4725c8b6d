package parser

import "errors"

// Rule names the part of the grammar a SyntaxError violates.
type Rule string

const (
	RuleKeyword     Rule = "keyword"
	RuleParenthesis Rule = "parenthesis"
	RuleHead        Rule = "head"
	RuleAttribute   Rule = "attribute"
	RuleStyle       Rule = "style"
	RuleConnector   Rule = "connector"
)

// SyntaxError is the only error kind Parse returns. Msg is meant to be shown
// to the user as is.
type SyntaxError struct {
	Rule Rule
	Msg  string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Msg
}

// IsSyntaxError reports whether err wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func syntaxErr(rule Rule, msg string) error {
	return &SyntaxError{Rule: rule, Msg: msg}
}

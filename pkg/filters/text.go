// Package filters provides ready-made text predicates over any model that
// exposes its message text. They compose with the dispatch combinators
// like any other filter.
package filters

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ilyas-kalandar/slonogram/pkg/dispatch"
)

// Text is any model the text filters can read.
type Text interface {
	MessageText() string
}

// Eq matches when the message text equals text exactly.
func Eq[D any, T Text](text string) dispatch.Filter[D, T] {
	return func(_ context.Context, c *dispatch.Context[D, T]) (bool, error) {
		return c.Model.MessageText() == text, nil
	}
}

// Word matches when any whitespace-separated token of the message text
// equals one of the given words. Matching is exact, no case folding.
func Word[D any, T Text](words ...string) dispatch.Filter[D, T] {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return func(_ context.Context, c *dispatch.Context[D, T]) (bool, error) {
		for _, token := range strings.Fields(c.Model.MessageText()) {
			if _, ok := set[token]; ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Contains matches when the message text contains sub.
func Contains[D any, T Text](sub string) dispatch.Filter[D, T] {
	return func(_ context.Context, c *dispatch.Context[D, T]) (bool, error) {
		return strings.Contains(c.Model.MessageText(), sub), nil
	}
}

// HasPrefix matches when the message text starts with the literal prefix.
func HasPrefix[D any, T Text](prefix string) dispatch.Filter[D, T] {
	return func(_ context.Context, c *dispatch.Context[D, T]) (bool, error) {
		return strings.HasPrefix(c.Model.MessageText(), prefix), nil
	}
}

// Prefix matches when the start of the message text matches the regular
// expression expr. The expression is compiled once, at construction.
func Prefix[D any, T Text](expr string) (dispatch.Filter[D, T], error) {
	re, err := regexp.Compile("^(?:" + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("filters: bad prefix expression %q: %w", expr, err)
	}
	return func(_ context.Context, c *dispatch.Context[D, T]) (bool, error) {
		return re.MatchString(c.Model.MessageText()), nil
	}, nil
}

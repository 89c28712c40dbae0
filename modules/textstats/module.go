// Package textstats provides processors computing simple statistics over
// text inputs.
package textstats

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/featgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// WordCountParams defines the fixed parameters for the word_count processor.
type WordCountParams struct {
	Separator string `fg:"separator"`
}

// OnProcessWordCount is the handler for the 'word_count' processor. It counts
// the non-empty fields of the input split on the configured separator, so an
// empty input yields zero.
func OnProcessWordCount(ctx context.Context, params *WordCountParams, inputs []any) (any, error) {
	text, ok := inputs[0].(string)
	if !ok {
		return nil, fmt.Errorf("word_count expects a string input, got %T", inputs[0])
	}
	count := 0
	for _, field := range strings.Split(text, params.Separator) {
		if field != "" {
			count++
		}
	}
	return count, nil
}

// OnProcessCharCount is the handler for the 'char_count' processor. It counts
// runes, not bytes.
func OnProcessCharCount(ctx context.Context, inputs []any) (any, error) {
	text, ok := inputs[0].(string)
	if !ok {
		return nil, fmt.Errorf("char_count expects a string input, got %T", inputs[0])
	}
	return len([]rune(text)), nil
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("OnProcessWordCount", &registry.RegisteredProcessor{
		NewParams:  func() any { return new(WordCountParams) },
		ParamsType: reflect.TypeOf(WordCountParams{}),
		Fn:         OnProcessWordCount,
	})
	r.RegisterProcessor("OnProcessCharCount", &registry.RegisteredProcessor{
		Fn: OnProcessCharCount,
	})
}

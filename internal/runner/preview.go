package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// PreviewAck is the output for markup runs. The rendered document goes
// into the preview surface, never into the console output.
const PreviewAck = "Preview updated. Check the preview panel to see your page."

// PreviewExecutor renders html and css into a sanitized preview
// document instead of executing anything.
type PreviewExecutor struct {
	language domain.Language
	policy   *bluemonday.Policy
}

// NewPreviewExecutor creates a preview executor for html or css.
func NewPreviewExecutor(language domain.Language) *PreviewExecutor {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("style").Globally()
	policy.AllowElements("style")

	return &PreviewExecutor{
		language: language,
		policy:   policy,
	}
}

func (e *PreviewExecutor) Run(ctx context.Context, code string) (*Result, error) {
	start := time.Now()

	var doc string
	switch e.language {
	case domain.LanguageCSS:
		doc = cssScaffold(code)
	default:
		doc = code
	}

	return &Result{
		Output:   PreviewAck,
		Preview:  e.policy.Sanitize(doc),
		Duration: time.Since(start),
	}, nil
}

// cssScaffold wraps a stylesheet in a small demo document so the
// preview has something to style.
func cssScaffold(css string) string {
	// A stylesheet cannot close its own style element.
	safe := strings.ReplaceAll(css, "</style", "")

	return fmt.Sprintf(`<style>%s</style>
<h1>Heading</h1>
<p>A paragraph of sample text to style.</p>
<button>Button</button>
<ul><li>First item</li><li>Second item</li></ul>`, safe)
}

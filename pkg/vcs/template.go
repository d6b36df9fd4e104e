package vcs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/ixado-dev/ixado/pkg/ixerr"
)

// Template is a markdown PR body with {{var}} placeholders, rendered
// before being handed to createPullRequest.
type Template struct {
	Raw       string
	Variables map[string]string
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

var gm = goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))

// Render substitutes every {{var}} placeholder in t.Raw with t.Variables,
// failing with invalid-argument if a placeholder has no matching variable,
// then parses the result with goldmark to reject malformed markdown before
// it ever reaches `gh pr create`.
func (t Template) Render() (string, error) {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(t.Raw, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, ok := t.Variables[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return val
	})

	if len(missing) > 0 {
		return "", ixerr.New(ixerr.KindInvalidArgument, "PR template has unresolved placeholders").
			WithContext("missing", strings.Join(missing, ","))
	}

	if err := validateMarkdown(rendered); err != nil {
		return "", ixerr.Wrap(err, ixerr.KindInvalidArgument, "PR template body failed markdown validation")
	}

	return rendered, nil
}

// validateMarkdown parses source with goldmark and surfaces a parse
// failure as an error; goldmark's parser does not itself return errors for
// malformed input (it recovers into best-effort nodes), so we additionally
// reject control characters that indicate the body is not text at all.
func validateMarkdown(source string) error {
	for _, r := range source {
		if r == 0 {
			return fmt.Errorf("markdown body contains a NUL byte at an unknown offset")
		}
	}
	reader := text.NewReader([]byte(source))
	node := gm.Parser().Parse(reader)
	if node == nil {
		return fmt.Errorf("markdown body failed to parse")
	}
	return nil
}

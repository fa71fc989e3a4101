package analyze

import (
	"fmt"
	"strings"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/chunk"
)

// RenderChunk produces the annotated text the model reasons over: one
// "path (status)" header per unit followed by its patch lines, each prefixed
// with a 1-based index local to that unit's patch. Units are joined with a
// blank line.
func RenderChunk(c chunk.Chunk) string {
	var b strings.Builder
	for i, unit := range c.Units {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", unit.Path, unit.Status)
		for n, line := range strings.Split(unit.PatchText, "\n") {
			fmt.Fprintf(&b, "%d: %s\n", n+1, line)
		}
	}
	return b.String()
}

// SystemPrompt is the fixed role for chunk analysis. The analysis
// instructions are repeated in the user content as well, so the model does
// not anchor on the role text alone.
func SystemPrompt(language string) string {
	return "You are a senior software engineer reviewing a code submission.\n" +
		"Judge only the material in the diff you are given. Do not offer generic\n" +
		"advice, boilerplate checklists, or findings derived from examples rather\n" +
		"than from the code in front of you. If the shown changes give no grounds\n" +
		"for a finding, do not invent one.\n\n" +
		Instructions(language)
}

// Instructions returns the analysis instructions appended to the annotated
// diff text.
func Instructions(language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(`Review the annotated diff above. Each file starts with a "path (status)"
header and every patch line carries its 1-based index within that file's
patch. Consider correctness, potential bugs and edge cases, security,
performance, maintainability and style consistency. Cite the line indexes you
refer to. Report only issues grounded in the shown changes.
Write the review in %s. Format as markdown.`, language)
}

// BuildPrompt assembles the user content for one chunk request.
func BuildPrompt(rendered, language string) string {
	return rendered + "\n\n" + Instructions(language)
}

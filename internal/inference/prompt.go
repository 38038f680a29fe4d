package inference

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codescope/codescope-go/internal/models"
)

// systemPrompt returns the instruction block for one intent. Every
// backend sends the same instructions so responses stay comparable
// across strategy switches.
func systemPrompt(intent models.Intent) string {
	switch intent {
	case models.IntentExplain:
		return `You are a code intelligence assistant. Explain what the code does: its purpose, inputs, outputs, and notable control flow. Reference symbols by name and keep the explanation grounded in the provided context.`
	case models.IntentRefactor:
		return `You are a code intelligence assistant. Propose refactorings that improve structure without changing behavior. For each proposal name the symbols involved, the transformation, and the risk. Prefer small, independent steps.`
	case models.IntentDebug:
		return `You are a code intelligence assistant. Identify likely defects in the code. For each finding state the symptom, the suspect symbol or line, and a concrete fix. If the context is insufficient to localize a defect, say what is missing.`
	case models.IntentOptimize:
		return `You are a code intelligence assistant. Identify performance improvements: algorithmic complexity, allocation pressure, redundant work. Quantify the expected effect where possible and flag any behavioral trade-offs.`
	default:
		return `You are a code intelligence assistant. Suggest how to complete or extend the code at hand. Match the surrounding style and naming, and only use symbols visible in the provided context.`
	}
}

// userPrompt renders a completion context into sections the model can
// cite. Empty sections are omitted; Extra hints are sorted by key so the
// same context always produces the same prompt.
func userPrompt(cctx models.CompletionContext) string {
	var sb strings.Builder

	if cctx.FilePath != "" {
		fmt.Fprintf(&sb, "File: %s\n", cctx.FilePath)
	}
	if cctx.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", cctx.Language)
	}

	if len(cctx.SymbolExcerpts) > 0 {
		sb.WriteString("\nSymbols in scope:\n")
		for _, sym := range cctx.SymbolExcerpts {
			fmt.Fprintf(&sb, "- %s\n", sym)
		}
	}

	if cctx.GraphSummary != "" {
		fmt.Fprintf(&sb, "\nDependency context:\n%s\n", cctx.GraphSummary)
	}

	if len(cctx.SimilarFragments) > 0 {
		sb.WriteString("\nRelated code:\n")
		for i, frag := range cctx.SimilarFragments {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, frag)
		}
	}

	if len(cctx.Extra) > 0 {
		keys := make([]string, 0, len(cctx.Extra))
		for k := range cctx.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nHints:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "%s: %s\n", k, cctx.Extra[k])
		}
	}

	sb.WriteString("\nRequest:\n")
	sb.WriteString(cctx.Prompt)
	return sb.String()
}

package summary

import (
	"fmt"
	"strings"
)

// Generation parameters tuned for consistent Markdown output.
const (
	draftTemperature     = 0.3
	draftMaxTokens       = 4096
	translateTemperature = 0.2
	translateMaxTokens   = 4096
)

const draftSystemPrompt = `You are a professional meeting-minutes writer. You produce clear, well-structured Markdown summaries of meeting transcripts.

Rules:
- Write the entire summary in English.
- Base every statement strictly on the transcript; never invent facts.
- Use Markdown headings, bullet lists, and bold text for structure.
- Preserve concrete details: names, dates, numbers, decisions, action items.
- If the transcript is too sparse for a section, state that briefly rather than padding.`

const defaultDraftInstruction = `Summarize the following meeting transcript as Markdown with these parts:

## Summary
A concise paragraph describing what the meeting was about and its outcome.

## Key Points
A bullet list of the main topics discussed.

## Decisions
A bullet list of decisions that were made. Omit this section if none.

## Action Items
A bullet list of follow-ups in the form "**Owner**: task". Omit this section if none.`

const translateSystemPrompt = `You are a professional translator. Translate the given Markdown document faithfully.

Rules:
- Preserve the Markdown structure exactly: headings, lists, bold, links.
- Translate all prose; keep code spans, URLs, and proper nouns unchanged.
- Output only the translated document, no commentary.`

// BuildDraftPrompt constructs the system and user prompts for the canonical
// English draft. tpl may be nil for no-template generation. contextPrompt
// is optional caller-supplied background appended to the instructions.
func BuildDraftPrompt(transcript string, tpl *Template, contextPrompt string) (system, user string) {
	var b strings.Builder

	if tpl == nil {
		b.WriteString(defaultDraftInstruction)
	} else {
		fmt.Fprintf(&b, "Summarize the following meeting transcript as a %q Markdown document with exactly these sections:\n", tpl.Name)
		for i, s := range tpl.Sections {
			fmt.Fprintf(&b, "\n%d. ## %s\n   %s\n", i+1, s.Title, s.Instruction)
			switch s.Format {
			case FormatList:
				b.WriteString("   Format: bullet list.")
				if s.ItemFormat != "" {
					fmt.Fprintf(&b, " Each item: %s", s.ItemFormat)
				}
				b.WriteString("\n")
			case FormatParagraph:
				b.WriteString("   Format: one or more paragraphs.\n")
			default:
				b.WriteString("   Format: short text.\n")
			}
		}
	}

	if strings.TrimSpace(contextPrompt) != "" {
		b.WriteString("\nAdditional context from the organizer:\n")
		b.WriteString(strings.TrimSpace(contextPrompt))
		b.WriteString("\n")
	}

	b.WriteString("\nTranscript:\n\n")
	b.WriteString(transcript)

	return draftSystemPrompt, b.String()
}

// BuildTranslationPrompt constructs the system and user prompts for
// translating a finished Markdown summary into targetLanguage (a display
// name or language code).
func BuildTranslationPrompt(markdown, targetLanguage string) (system, user string) {
	user = fmt.Sprintf("Translate the following Markdown document into %s:\n\n%s", targetLanguage, markdown)
	return translateSystemPrompt, user
}

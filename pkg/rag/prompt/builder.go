package prompt

import (
	"fmt"
	"strings"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/entity"
)

// LawPromptBuilder builds the system prompt for one answer: the task, the
// retrieved law excerpts and the answering guidelines.
type LawPromptBuilder struct {
	mode     string
	excerpts []*entity.LawChunk
}

func NewLawPromptBuilder(mode string, excerpts []*entity.LawChunk) *LawPromptBuilder {
	return &LawPromptBuilder{mode: mode, excerpts: excerpts}
}

func (b *LawPromptBuilder) Build() string {
	var prompt strings.Builder
	b.writeTask(&prompt)
	b.writeReferenceMaterial(&prompt)
	b.writeGuidelines(&prompt)
	return prompt.String()
}

func (b *LawPromptBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are EasyLaw, an assistant that explains Indonesian laws and regulations in plain language.\n")
	if b.mode == constant.SessionModeLawsInternal {
		prompt.WriteString("The user is asking about the organisation's internal regulations.\n")
	} else {
		prompt.WriteString("The user is asking about public laws and regulations.\n")
	}
	prompt.WriteString("</task>\n\n")
}

func (b *LawPromptBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.excerpts) == 0 {
		return
	}
	prompt.WriteString("<reference_material>\n")
	for i, chunk := range b.excerpts {
		fmt.Fprintf(prompt, "[%d] %s\n%s\n\n", i+1, chunk.Source, strings.TrimSpace(chunk.Content))
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *LawPromptBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	if len(b.excerpts) > 0 {
		prompt.WriteString("1. Base your answer on the reference material and cite it as [n]\n")
		prompt.WriteString("2. If the material does not answer the question, say so honestly\n")
	} else {
		prompt.WriteString("1. No reference material was found; answer from general knowledge and say that the answer is not grounded in a specific regulation\n")
	}
	prompt.WriteString("- Answer in the language of the question\n")
	prompt.WriteString("- Keep the answer short and name the regulation and article when you know them\n")
	prompt.WriteString("- This is general information, not legal advice\n")
	prompt.WriteString("</guidelines>\n")
}

package services

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// systemInstruction tells the model to answer from the retrieved chunk only.
const systemInstruction = "Based on the provided context here give the answer to the question \n {{.context}}"

// Prompt is the system/user message pair sent to the answer generator.
type Prompt struct {
	System string
	User   string
}

var answerTemplate = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
	prompts.NewSystemMessagePromptTemplate(systemInstruction, []string{"context"}),
	prompts.NewHumanMessagePromptTemplate("{{.question}}", []string{"question"}),
})

// BuildAnswerPrompt pairs the system instruction and context with the question.
func BuildAnswerPrompt(context, question string) (Prompt, error) {
	messages, err := answerTemplate.FormatMessages(map[string]any{
		"context":  context,
		"question": question,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to format answer prompt: %w", err)
	}

	var p Prompt
	for _, m := range messages {
		switch m.GetType() {
		case llms.ChatMessageTypeSystem:
			p.System = m.GetContent()
		case llms.ChatMessageTypeHuman:
			p.User = m.GetContent()
		}
	}
	return p, nil
}

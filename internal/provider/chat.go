package provider

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/askdoc/askdoc-go/internal/rag"
)

// Chat adapts an eino ChatModel to the rag.ChatProvider capability
// interface: a single-turn prompt in, generated text out. No conversation
// state is kept between calls.
type Chat struct {
	model model.BaseChatModel
}

// NewChat wraps the given ChatModel.
func NewChat(m model.BaseChatModel) *Chat {
	return &Chat{model: m}
}

// Complete sends prompt as a single user message and returns the generated
// text. Model failures are wrapped in *rag.ChatProviderError.
func (c *Chat) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", &rag.ChatProviderError{Err: err}
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

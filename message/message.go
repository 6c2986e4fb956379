// Package message defines the platform-neutral chat message produced by
// commands. Text uses Markdown links ([label](url)) and bold (**text**);
// renderers translate it to each chat platform's payload.
package message

import "fmt"

// Response types.
const (
	Ephemeral = "ephemeral"
	InChannel = "in_channel"
)

// Block kinds.
const (
	SectionBlock = "section"
	ContextBlock = "context"
	DividerBlock = "divider"
	ImageBlock   = "image"
)

type (
	// Message is the chat message IR.
	Message struct {
		ResponseType string  `json:"response_type"`
		Text         string  `json:"text"`
		Blocks       []Block `json:"blocks,omitempty"`
	}

	// Block is a layout block; which fields are used depends on Kind.
	Block struct {
		Kind     string   `json:"kind"`
		Text     string   `json:"text,omitempty"`
		Fields   []string `json:"fields,omitempty"`
		Elements []string `json:"elements,omitempty"`
		ImageURL string   `json:"imageURL,omitempty"`
		AltText  string   `json:"altText,omitempty"`
	}
)

// NewEphemeral returns a message visible to the requesting user only.
func NewEphemeral(text string) *Message {
	return &Message{ResponseType: Ephemeral, Text: text}
}

// NewInChannel returns a message visible to the channel.
func NewInChannel(text string) *Message {
	return &Message{ResponseType: InChannel, Text: text}
}

// Section appends a text section.
func (m *Message) Section(text string) *Message {
	m.Blocks = append(m.Blocks, Block{Kind: SectionBlock, Text: text})
	return m
}

// Fields appends a section made of short fields.
func (m *Message) Fields(fields ...string) *Message {
	m.Blocks = append(m.Blocks, Block{Kind: SectionBlock, Fields: fields})
	return m
}

// Context appends a context line.
func (m *Message) Context(elements ...string) *Message {
	m.Blocks = append(m.Blocks, Block{Kind: ContextBlock, Elements: elements})
	return m
}

func (m *Message) Divider() *Message {
	m.Blocks = append(m.Blocks, Block{Kind: DividerBlock})
	return m
}

func (m *Message) Image(URL, altText string) *Message {
	m.Blocks = append(m.Blocks, Block{Kind: ImageBlock, ImageURL: URL, AltText: altText})
	return m
}

// Link formats a Markdown link.
func Link(label, URL string) string {
	return fmt.Sprintf("[%s](%s)", label, URL)
}

// Bold formats Markdown bold text.
func Bold(text string) string {
	return "**" + text + "**"
}

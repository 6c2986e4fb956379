package message

import (
	"regexp"
	"strings"

	"github.com/slack-go/slack"
)

// Renderer converts a Message into a platform payload posted to a webhook or
// returned as the synchronous command response.
type Renderer interface {
	Render(m *Message) any
}

var renderers = map[string]Renderer{
	"slack":      &Slack{},
	"mattermost": &Mattermost{},
}

// For returns the renderer for a chat client name.
func For(clientName string) (Renderer, bool) {
	r, ok := renderers[strings.ToLower(clientName)]
	return r, ok
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	markdownBold = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Slack renders Block Kit messages.
type Slack struct{}

// Mrkdwn converts Markdown links and bold to Slack mrkdwn.
func Mrkdwn(text string) string {
	text = markdownLink.ReplaceAllString(text, "<$2|$1>")
	return markdownBold.ReplaceAllString(text, "*$1*")
}

func (s *Slack) Render(m *Message) any {
	ret := &slack.Msg{ResponseType: m.ResponseType, Text: Mrkdwn(m.Text)}
	if ret.ResponseType == "" {
		ret.ResponseType = slack.ResponseTypeEphemeral
	}
	if len(m.Blocks) == 0 {
		return ret
	}
	var blocks []slack.Block
	for _, block := range m.Blocks {
		switch block.Kind {
		case SectionBlock:
			var text *slack.TextBlockObject
			if block.Text != "" {
				text = markdownText(block.Text)
			}
			var fields []*slack.TextBlockObject
			for _, field := range block.Fields {
				fields = append(fields, markdownText(field))
			}
			blocks = append(blocks, slack.NewSectionBlock(text, fields, nil))
		case ContextBlock:
			var elements []slack.MixedElement
			for _, element := range block.Elements {
				elements = append(elements, markdownText(element))
			}
			blocks = append(blocks, slack.NewContextBlock("", elements...))
		case DividerBlock:
			blocks = append(blocks, slack.NewDividerBlock())
		case ImageBlock:
			blocks = append(blocks, slack.NewImageBlock(block.ImageURL, block.AltText, "", nil))
		}
	}
	ret.Blocks = slack.Blocks{BlockSet: blocks}
	return ret
}

func markdownText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, Mrkdwn(text), false, false)
}

// MattermostMessage is the slash command response accepted by Mattermost.
type MattermostMessage struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// Mattermost renders blocks as Markdown text, which Mattermost displays natively.
type Mattermost struct{}

func (r *Mattermost) Render(m *Message) any {
	ret := &MattermostMessage{ResponseType: m.ResponseType, Text: m.Text}
	if ret.ResponseType == "" {
		ret.ResponseType = Ephemeral
	}
	if len(m.Blocks) == 0 {
		return ret
	}
	var lines []string
	if m.Text != "" {
		lines = append(lines, m.Text)
	}
	for _, block := range m.Blocks {
		switch block.Kind {
		case SectionBlock:
			// the fallback text often repeats the first section
			if block.Text != "" && block.Text != m.Text {
				lines = append(lines, block.Text)
			}
			for _, field := range block.Fields {
				lines = append(lines, "- "+field)
			}
		case ContextBlock:
			lines = append(lines, "_"+strings.Join(block.Elements, " | ")+"_")
		case DividerBlock:
			lines = append(lines, "---")
		case ImageBlock:
			lines = append(lines, "!"+Link(block.AltText, block.ImageURL))
		}
	}
	ret.Text = strings.Join(lines, "\n")
	return ret
}

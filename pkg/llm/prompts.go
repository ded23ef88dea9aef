package llm

import "strings"

// MaxPostCharacters is the hard cap on generated post length.
const MaxPostCharacters = 280

// Context is the timeline situation a generation request is grounded in.
type Context struct {
	LatestEventTopic string
	RecentSnippets   []string
	EventContext     string
	ReplyToPost      string
	QuoteOfPost      string
}

// BuildMessages assembles the chat messages for a persona post.
func BuildMessages(tone string, interests []string, ctx Context) []Message {
	return []Message{
		{Role: "system", Content: BuildSystemPrompt(tone, interests)},
		{Role: "user", Content: BuildUserPrompt(ctx)},
	}
}

// BuildPrompt renders the full prompt as one string, for audit records.
func BuildPrompt(tone string, interests []string, ctx Context) string {
	return BuildSystemPrompt(tone, interests) + "\n\n" + BuildUserPrompt(ctx)
}

func BuildSystemPrompt(tone string, interests []string) string {
	var b strings.Builder
	b.WriteString("You are writing a short social post (max 280 characters).\n")
	b.WriteString("Persona tone: " + tone + ".\n")
	b.WriteString("Persona interests: " + strings.Join(interests, ", ") + ".")
	return b.String()
}

func BuildUserPrompt(ctx Context) string {
	var b strings.Builder
	b.WriteString("Recent timeline snippets:\n")
	if len(ctx.RecentSnippets) == 0 {
		b.WriteString("- (none)\n")
	} else {
		for _, snippet := range ctx.RecentSnippets {
			b.WriteString("- " + snippet + "\n")
		}
	}
	eventContext := ctx.EventContext
	if eventContext == "" {
		eventContext = "(none)"
	}
	b.WriteString("Event context: " + eventContext + ".\n")
	if ctx.ReplyToPost != "" {
		b.WriteString("You are replying to: " + ctx.ReplyToPost + "\n")
	}
	if ctx.QuoteOfPost != "" {
		b.WriteString("You are quoting: " + ctx.QuoteOfPost + "\n")
	}
	b.WriteString("Latest event topic: " + ctx.LatestEventTopic + ".\n")
	b.WriteString("Write one post in the persona's voice.")
	return b.String()
}

// Truncate clips text to the post length cap, appending an ellipsis when it
// had to cut.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxPostCharacters {
		return text
	}
	clipped := strings.TrimRight(string(runes[:MaxPostCharacters-1]), " ")
	return clipped + "…"
}

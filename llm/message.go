package llm

import "github.com/i2y/chatstream/provider"

// Message is an alias for provider.Message for convenience.
type Message = provider.Message

// Kind is an alias for provider.Kind for convenience.
type Kind = provider.Kind

// Kind constants.
const (
	KindSystem    = provider.KindSystem
	KindUser      = provider.KindUser
	KindAssistant = provider.KindAssistant
	KindToolCall  = provider.KindToolCall
	KindStatus    = provider.KindStatus
)

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{
		Kind:    KindSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{
		Kind:    KindUser,
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{
		Kind:    KindAssistant,
		Content: content,
	}
}

// ToolCallMessage records a tool invocation by the assistant together with
// the tool's output.
func ToolCallMessage(assistant, tool string) Message {
	return Message{
		Kind:        KindToolCall,
		Content:     assistant,
		ToolContent: tool,
	}
}

// StatusMessage records a status update. It is encoded exactly like a tool call.
func StatusMessage(assistant, tool string) Message {
	return Message{
		Kind:        KindStatus,
		Content:     assistant,
		ToolContent: tool,
	}
}

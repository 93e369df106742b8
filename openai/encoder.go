package openai

import (
	"strings"

	"github.com/i2y/chatstream/provider"
)

// EncodeMessages flattens a conversation into wire turns.
//
// Each maximal run of tool-call and status messages becomes one assistant
// turn followed by one tool turn, holding the concatenated assistant and tool
// texts of the run. The pair is emitted before every plain message and once
// at the end even when the run is empty, so a conversation without tool
// traffic still carries empty assistant/tool pairs.
func EncodeMessages(messages []provider.Message) []Turn {
	turns := make([]Turn, 0, 3*len(messages)+2)

	var assistantBuf, toolBuf strings.Builder
	i := 0
	for {
		assistantBuf.Reset()
		toolBuf.Reset()
		for i < len(messages) && messages[i].Kind.Mergeable() {
			assistantBuf.WriteString(messages[i].Content)
			toolBuf.WriteString(messages[i].ToolContent)
			i++
		}
		turns = append(turns,
			Turn{Role: provider.RoleAssistant, Content: assistantBuf.String()},
			Turn{Role: provider.RoleTool, Content: toolBuf.String()},
		)

		if i == len(messages) {
			return turns
		}

		// Unknown kinds are rejected by CompletionParams.Validate before
		// encoding; should one get here it is dropped.
		if role, ok := plainRole(messages[i].Kind); ok {
			turns = append(turns, Turn{Role: role, Content: messages[i].Content})
		}
		i++
	}
}

func plainRole(kind provider.Kind) (provider.Role, bool) {
	switch kind {
	case provider.KindSystem:
		return provider.RoleSystem, true
	case provider.KindUser:
		return provider.RoleUser, true
	case provider.KindAssistant:
		return provider.RoleAssistant, true
	default:
		return "", false
	}
}

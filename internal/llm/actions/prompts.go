package actions

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names an editor code action.
type Kind string

const (
	Refactor         Kind = "refactor"
	AddComments      Kind = "add-comments"
	AddDocumentation Kind = "add-documentation"
)

var (
	ErrUnknownAction       = errors.New("unknown code action")
	ErrUnsupportedLanguage = errors.New("language not supported for this action")
	ErrEmptySelection      = errors.New("nothing selected")
)

type docStyle struct {
	prompt string
	marker string
}

var docStyles = map[string]docStyle{
	"javascript": {
		prompt: "Generate documentation comment following JSDoc specification with input parameters and return value type and add comment closing tag for the following code. ",
		marker: "*/",
	},
	"java": {
		prompt: "Generate documentation comment following Javadoc specification with input parameters and return value type and add comment closing tag for the following code. ",
		marker: "*/",
	},
	"typescript": {
		prompt: "Generate documentation comment following TSDoc specification with input parameters and return value type and add comment closing tag for the following code. ",
		marker: "*/",
	},
	"csharp": {
		prompt: "Generate documentation following Annex D Documentation comments specification with input parameters and return value type and add summary closing tag for the following c# code. ",
		marker: "</returns>",
	},
}

// BuildPrompt renders the completion prompt for an action over the selected code.
func BuildPrompt(kind Kind, languageID, selection string) (string, error) {
	if strings.TrimSpace(selection) == "" {
		return "", ErrEmptySelection
	}
	lang := strings.ToLower(strings.TrimSpace(languageID))

	switch kind {
	case Refactor:
		return fmt.Sprintf("Refactor the following %s code ", lang) + selection, nil
	case AddComments:
		switch lang {
		case "html", "css":
			prompt := "Add comments for the following " + strings.ToUpper(lang) + " code and format with 80 colums." + selection
			return strings.ReplaceAll(prompt, `"`, "'"), nil
		default:
			return "Add comments for the following code and format with 80 colums." + selection, nil
		}
	case AddDocumentation:
		style, ok := docStyles[lang]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, languageID)
		}
		return style.prompt + selection, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, kind)
	}
}

// Apply merges a completion into the selection the way the action replaces it in the editor.
func Apply(kind Kind, languageID, selection, completion string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(languageID))

	switch kind {
	case Refactor:
		return stripFence(completion), nil
	case AddComments:
		return completion + "\n" + selection, nil
	case AddDocumentation:
		style, ok := docStyles[lang]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, languageID)
		}
		head, _, _ := strings.Cut(stripFence(completion), style.marker)
		return head + style.marker + " \n" + selection, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, kind)
	}
}

// stripFence unwraps a reply that is a single fenced code block.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}
	body := strings.TrimSuffix(trimmed, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return s
	}
	return strings.TrimRight(body, "\n")
}

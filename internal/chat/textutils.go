package chat

import "strings"

// ExtractCodeBlockCommands scans markdown text for fenced code blocks
// tagged "bash" or "sh" and returns their trimmed contents in order of
// appearance, so the UI can offer "Run in terminal" actions for them.
func ExtractCodeBlockCommands(text string) []string {
	var commands []string
	lines := strings.Split(text, "\n")

	inBlock := false
	var body strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if lang, ok := strings.CutPrefix(trimmed, "```"); ok {
				lang = strings.TrimSpace(lang)
				if lang == "bash" || lang == "sh" {
					inBlock = true
					body.Reset()
				}
			}
			continue
		}

		if trimmed == "```" {
			inBlock = false
			if cmd := strings.TrimSpace(body.String()); cmd != "" {
				commands = append(commands, cmd)
			}
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	return commands
}

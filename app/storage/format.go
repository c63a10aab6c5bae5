package storage

import (
	"fmt"
	"strings"
)

// FormatExchanges renders a chat history for display, one block per
// exchange.
func FormatExchanges(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return "No previous messages."
	}
	var sb strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s] Q: %s\n", ex.CreatedAt.Local().Format("2006-01-02 15:04"), ex.Query)
		if ex.Error != "" {
			fmt.Fprintf(&sb, "Error: %s", ex.Error)
			continue
		}
		fmt.Fprintf(&sb, "A: %s", ex.Response)
	}
	return sb.String()
}

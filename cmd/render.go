package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"maharajah/internal/search"
)

var (
	rankStyle    = lipgloss.NewStyle().Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	symbolStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

// renderText prints ranked results with a short content preview.
func renderText(results []search.Result) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	for _, r := range results {
		symbol := ""
		if r.Symbol != "" {
			symbol = "  " + symbolStyle.Render(r.Symbol)
		}
		fmt.Printf("%s score:%.4f  %s:%d-%d%s\n",
			rankStyle.Render(fmt.Sprintf("[%d]", r.Rank)),
			r.Score,
			pathStyle.Render(r.FilePath),
			r.StartLine, r.EndLine,
			symbol,
		)
		if r.Summary != nil {
			fmt.Printf("  %s\n", summaryStyle.Render("summary: "+*r.Summary))
		}
		lines := strings.Split(r.Content, "\n")
		if len(lines) > 3 {
			lines = lines[:3]
		}
		for _, line := range lines {
			fmt.Printf("  %s\n", line)
		}
		fmt.Println()
	}
}

// renderJSON writes the result array to stdout. Summary is null for
// chunks without one.
func renderJSON(results []search.Result) error {
	if results == nil {
		results = []search.Result{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

package main

import (
	"encoding/json"

	"github.com/harunnryd/pgpt/internal/model"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type tableFormatter struct {
	headerStyle  lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	errorStyle   lipgloss.Style
	borderStyle  lipgloss.Style
}

func newTableFormatter() *tableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")
	red := lipgloss.Color("203")

	return &tableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().
			Foreground(red).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *tableFormatter) base(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

func (f *tableFormatter) formatEntries(entries []model.Entry) string {
	if len(entries) == 0 {
		return "No providers configured"
	}

	t := f.base("Name", "Provider", "Dialect", "Model", "Endpoint", "Status")
	failed := make(map[int]bool)
	for i, e := range entries {
		name := e.Name
		if e.Default {
			name += " *"
		}
		status := "ok"
		if e.Err != nil {
			status = truncateString(e.Err.Error(), 40)
			failed[i] = true
		}
		t.Row(name, e.Kind, e.Dialect, e.Model, truncateString(e.Endpoint, 40), status)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return f.headerStyle
		case failed[row] && col == 5:
			return f.errorStyle
		case row%2 == 0:
			return f.evenRowStyle
		default:
			return f.oddRowStyle
		}
	})

	return t.String()
}

func (f *tableFormatter) formatToolCalls(calls []contract.ToolCall) string {
	if len(calls) == 0 {
		return "No tool calls"
	}

	t := f.base("ID", "Tool", "Arguments")
	for _, call := range calls {
		t.Row(call.ID, call.Name, truncateString(formatArguments(call.Arguments), 60))
	}
	return t.String()
}

// formatArguments renders arguments as compact JSON; map keys come out sorted.
func formatArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "<unprintable>"
	}
	return string(raw)
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/ignitero/ignitero/internal/catalog"
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Faint(true)
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	emptyStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(3).Align(lipgloss.Right)
)

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func printApps(apps []catalog.AppItem, asJSON bool) {
	if asJSON {
		printJSON(apps)
		return
	}

	if len(apps) == 0 {
		fmt.Println(emptyStyle.Render("no matches"))
		return
	}

	for i, app := range apps {
		line := fmt.Sprintf("%s %s", numberStyle.Render(fmt.Sprintf("%d.", i+1)), nameStyle.Render(app.Name))
		if app.OriginalName != "" {
			line += " " + tagStyle.Render("("+app.OriginalName+")")
		}
		fmt.Println(line)
		fmt.Println("    " + pathStyle.Render(app.Path))
	}
}

func printDirectories(dirs []catalog.DirectoryItem, asJSON bool) {
	if asJSON {
		printJSON(dirs)
		return
	}

	if len(dirs) == 0 {
		fmt.Println(emptyStyle.Render("no matches"))
		return
	}

	for i, dir := range dirs {
		line := fmt.Sprintf("%s %s", numberStyle.Render(fmt.Sprintf("%d.", i+1)), nameStyle.Render(dir.Name))
		if dir.Editor != catalog.EditorUnknown {
			line += " " + tagStyle.Render("["+string(dir.Editor)+"]")
		}
		fmt.Println(line)
		fmt.Println("    " + pathStyle.Render(dir.Path))
	}
}

func printCommands(commands []catalog.CommandItem, asJSON bool) {
	if asJSON {
		printJSON(commands)
		return
	}

	if len(commands) == 0 {
		fmt.Println(emptyStyle.Render("no matches"))
		return
	}

	for i, cmd := range commands {
		fmt.Printf("%s %s\n", numberStyle.Render(fmt.Sprintf("%d.", i+1)), nameStyle.Render(cmd.Alias))
		detail := cmd.Command
		if cmd.WorkingDir != "" {
			detail += "  " + tagStyle.Render("in "+cmd.WorkingDir)
		}
		fmt.Println("    " + pathStyle.Render(detail))
	}
}

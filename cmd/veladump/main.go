package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/interp"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to a raw layout string (header + entries) to disassemble")
		demo        = flag.Bool("demo", false, "Disassemble a built-in demo layout string instead of -file")
		resolve     = flag.Bool("resolve", false, "Run resilience resolution before disassembling")
		interactive = flag.Bool("i", false, "Browse entries interactively")
	)
	flag.Parse()

	if *file == "" && !*demo {
		fmt.Fprintln(os.Stderr, "Usage: veladump -file <layout.bin> [-resolve] [-i]")
		fmt.Fprintln(os.Stderr, "       veladump -demo [-resolve] [-i]")
		os.Exit(1)
	}

	md, err := loadMetadata(*file, *demo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *resolve {
		if err := interp.ResolveResilientAccessors(md); err != nil {
			fmt.Fprintf(os.Stderr, "Error: resolve: %v\n", err)
			os.Exit(1)
		}
	}

	entries, err := Disassemble(md.LayoutString)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: disassemble: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		p := tea.NewProgram(newDumpModel(md, entries), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, row := range flatten(entries, 0) {
		printRow(row)
	}
}

func loadMetadata(path string, demo bool) (*layoutrt.Metadata, error) {
	if demo {
		return buildDemoMetadata()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &layoutrt.Metadata{LayoutString: data}, nil
}

// row is one line of the flattened, indented entry tree, shared between
// the plain-text listing and the interactive browser.
type row struct {
	depth int
	entry Entry
}

func flatten(entries []Entry, depth int) []row {
	var rows []row
	for _, e := range entries {
		rows = append(rows, row{depth: depth, entry: e})
		rows = append(rows, flatten(e.Children, depth+1)...)
	}
	return rows
}

func printRow(r row) {
	indent := strings.Repeat("  ", r.depth)
	if r.entry.IsCaseHeader {
		fmt.Printf("%s%s\n", indent, r.entry.Detail)
		return
	}
	fmt.Printf("%s%-6d %-28s skip=%-6d %s\n", indent, r.entry.Offset, r.entry.Opcode, r.entry.Skip, r.entry.Detail)
}

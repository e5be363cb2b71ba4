// Command coredump is a terminal inspector for a running hostharness
// instance: it tails the metrics endpoint and renders buffered events live,
// optionally writing a gzip-compressed snapshot of the retained events on exit.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oneclient/core-go/internal/coredump"
)

func main() {
	var addr string
	var interval time.Duration
	var savePath string

	flag.StringVar(&addr, "addr", "http://localhost:7337", "hostharness base URL")
	flag.DurationVar(&interval, "interval", 2*time.Second, "metrics poll interval")
	flag.StringVar(&savePath, "save", "", "write a gzip snapshot of observed events to this path on exit")
	flag.Parse()

	model := coredump.NewModel(addr, interval)
	program := tea.NewProgram(model, tea.WithAltScreen())

	final, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "coredump: %v\n", err)
		os.Exit(1)
	}

	if savePath == "" {
		return
	}
	if m, ok := final.(coredump.Model); ok {
		if err := saveSnapshot(savePath, m.Snapshot()); err != nil {
			fmt.Fprintf(os.Stderr, "coredump: save snapshot: %v\n", err)
			os.Exit(1)
		}
	}
}

func saveSnapshot(path string, events []coredump.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	return json.NewEncoder(gz).Encode(events)
}

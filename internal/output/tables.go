// Package output renders query responses for the CLI client.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
)

// Wire shapes for the daemon's query JSON.

// Window mirrors one entry of `query --windows`.
type Window struct {
	ID          uint32  `json:"id"`
	PID         int32   `json:"pid"`
	App         string  `json:"app"`
	Title       string  `json:"title"`
	Frame       Rect    `json:"frame"`
	Display     uint32  `json:"display"`
	Space       uint64  `json:"space"`
	Opacity     float64 `json:"opacity"`
	SplitType   string  `json:"split-type"`
	StackIndex  int     `json:"stack-index"`
	HasFocus    bool    `json:"has-focus"`
	IsVisible   bool    `json:"is-visible"`
	IsMinimized bool    `json:"is-minimized"`
	IsHidden    bool    `json:"is-hidden"`
	IsFloating  bool    `json:"is-floating"`
	IsSticky    bool    `json:"is-sticky"`
}

// Space mirrors one entry of `query --spaces`.
type Space struct {
	ID        uint64   `json:"id"`
	UUID      string   `json:"uuid"`
	Index     int      `json:"index"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	Display   uint32   `json:"display"`
	Windows   []uint32 `json:"windows"`
	HasFocus  bool     `json:"has-focus"`
	IsVisible bool     `json:"is-visible"`
}

// Display mirrors one entry of `query --displays`.
type Display struct {
	ID       uint32   `json:"id"`
	UUID     string   `json:"uuid"`
	Index    int      `json:"index"`
	Label    string   `json:"label"`
	Frame    Rect     `json:"frame"`
	Spaces   []uint64 `json:"spaces"`
	HasFocus bool     `json:"has-focus"`
}

// Rect mirrors the wire frame shape.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// PrintWindowsTable renders a windows query as a table.
func PrintWindowsTable(data []byte) error {
	var windows []Window
	if err := json.Unmarshal(data, &windows); err != nil {
		return fmt.Errorf("failed to parse windows response: %w", err)
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "App", "Title", "Space", "Frame", "Flags", "Focus")

	for _, w := range windows {
		focus := ""
		if w.HasFocus {
			focus = "*"
		}
		table.Append(
			fmt.Sprintf("%d", w.ID),
			truncate(w.App, 20),
			truncate(w.Title, 30),
			fmt.Sprintf("%d", w.Space),
			fmt.Sprintf("%.0fx%.0f @ (%.0f, %.0f)", w.Frame.Width, w.Frame.Height, w.Frame.X, w.Frame.Y),
			flagString(w),
			focus,
		)
	}
	table.Render()
	return nil
}

// PrintSpacesTable renders a spaces query as a table.
func PrintSpacesTable(data []byte) error {
	var spaces []Space
	if err := json.Unmarshal(data, &spaces); err != nil {
		return fmt.Errorf("failed to parse spaces response: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Index", "ID", "Label", "Type", "Display", "Windows", "Visible", "Focus")

	for _, s := range spaces {
		visible := ""
		if s.IsVisible {
			visible = "yes"
		}
		focus := ""
		if s.HasFocus {
			focus = "*"
		}
		table.Append(
			fmt.Sprintf("%d", s.Index),
			fmt.Sprintf("%d", s.ID),
			s.Label,
			s.Type,
			fmt.Sprintf("%d", s.Display),
			fmt.Sprintf("%d", len(s.Windows)),
			visible,
			focus,
		)
	}
	table.Render()
	return nil
}

// PrintDisplaysTable renders a displays query as a table.
func PrintDisplaysTable(data []byte) error {
	var displays []Display
	if err := json.Unmarshal(data, &displays); err != nil {
		return fmt.Errorf("failed to parse displays response: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Index", "ID", "Label", "Frame", "Spaces", "Focus")

	for _, d := range displays {
		focus := ""
		if d.HasFocus {
			focus = "*"
		}
		table.Append(
			fmt.Sprintf("%d", d.Index),
			fmt.Sprintf("%d", d.ID),
			d.Label,
			fmt.Sprintf("%.0fx%.0f @ (%.0f, %.0f)", d.Frame.Width, d.Frame.Height, d.Frame.X, d.Frame.Y),
			fmt.Sprintf("%d", len(d.Spaces)),
			focus,
		)
	}
	table.Render()
	return nil
}

func flagString(w Window) string {
	out := ""
	if w.IsFloating {
		out += "f"
	}
	if w.IsSticky {
		out += "s"
	}
	if w.IsMinimized {
		out += "m"
	}
	if w.IsHidden {
		out += "h"
	}
	if out == "" {
		out = "-"
	}
	return out
}

// truncate shortens a string to maxLen with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

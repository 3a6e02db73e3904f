package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nconklindev/bulkmap/internal/mapping"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	switch m.state {
	case stateTargetPicker, stateSourcePicker:
		return m.viewFilePicker()
	case stateVendorInput:
		return m.viewVendorInput()
	case stateMapping:
		return m.viewMapping()
	case stateConstantInput:
		return m.viewConstantInput()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) header() string {
	title := TitleStyle.Render("📦 Bulkmap - Vendor Catalog Mapper")
	sub := SubtitleStyle.Render("Map vendor spreadsheets onto a marketplace upload template")
	return lipgloss.JoinVertical(lipgloss.Left, title, sub)
}

func (m Model) storeLine() string {
	if m.storeErr != nil {
		return WarnStyle.Render(fmt.Sprintf("⚠ Mapping store unavailable: %v", m.storeErr))
	}
	return MutedStyle.Render(fmt.Sprintf("%d saved vendor(s)", len(m.vendors)))
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(m.header())
	s.WriteString("\n")
	s.WriteString(m.storeLine())
	s.WriteString("\n\n")

	help := "enter: select • q: quit"
	if m.state == stateTargetPicker {
		s.WriteString("Step 1: select the target template (CSV or XLSX)")
		help = "enter: select • d: use default template • q: quit"
	} else {
		s.WriteString(fmt.Sprintf("Template: %s (%d columns)\n", filepath.Base(m.targetFile), len(m.target.Headers)))
		s.WriteString("Step 2: select the vendor source file")
	}
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(ErrorStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render(help))

	return s.String()
}

func (m Model) viewVendorInput() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Vendor"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Source: %s (%d rows)", filepath.Base(m.sourceFile), m.source.RowCount())))
	s.WriteString("\n\n")
	s.WriteString(m.vendorInput.View())
	s.WriteString("\n\n")

	if len(m.vendors) > 0 {
		shown := m.vendors
		if len(shown) > 8 {
			shown = shown[:8]
		}
		s.WriteString(MutedStyle.Render("Saved: " + strings.Join(shown, ", ")))
		if len(m.vendors) > len(shown) {
			s.WriteString(MutedStyle.Render(fmt.Sprintf(" (+%d more)", len(m.vendors)-len(shown))))
		}
		s.WriteString("\n")
	}

	if m.status != "" {
		s.WriteString(WarnStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("enter: continue • tab: complete • esc: back"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewMapping() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("Mapping for %s", m.vendor)))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s → %s • %d stored • %d auto-matched",
		filepath.Base(m.sourceFile), filepath.Base(m.targetFile),
		m.resolution.Count(mapping.FromStore), m.resolution.Count(mapping.AutoMatched))))
	s.WriteString("\n")

	targets := m.target.Headers
	end := min(m.offset+m.listHeight(), len(targets))

	for i := m.offset; i < end; i++ {
		s.WriteString(m.mappingLine(i))
		s.WriteString("\n")
	}
	if end < len(targets) {
		s.WriteString(MutedStyle.Render(fmt.Sprintf("  … %d more", len(targets)-end)))
		s.WriteString("\n")
	}

	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(WarnStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓: navigate • ←/→: source column • f: format • c: constant • u: unmap • s: save • enter: export • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) mappingLine(i int) string {
	target := m.target.Headers[i]
	entry := m.resolution.Config.Get(target)

	cursor := " "
	if m.cursor == i {
		cursor = ">"
	}

	label := "  " + mapping.DisplayLabel(target)
	if mapping.IsRequired(target) {
		label = RequiredStyle.Render("● " + mapping.DisplayLabel(target))
	}

	var value string
	switch entry.Kind {
	case mapping.KindColumn:
		value = fmt.Sprintf("← %s [%s]", mapping.DisplayLabel(entry.Value), entry.Format)
	case mapping.KindConstant:
		value = fmt.Sprintf("= %q [%s]", entry.Value, entry.Format)
	default:
		value = MutedStyle.Render("(unmapped)")
	}

	tag := ""
	switch {
	case m.edited[target]:
		tag = WarnStyle.Render(" edited")
	case m.resolution.Provenance[target] == mapping.FromStore:
		tag = StoreTagStyle.Render(" store")
	case m.resolution.Provenance[target] == mapping.AutoMatched:
		tag = AutoTagStyle.Render(" auto")
	}

	line := fmt.Sprintf("%s %s  %s", cursor, label, value)
	if m.cursor == i {
		line = SelectedStyle.Render(line)
	}
	return line + tag
}

func (m Model) viewConstantInput() string {
	var s strings.Builder

	target := m.target.Headers[m.cursor]
	s.WriteString(TitleStyle.Render(fmt.Sprintf("Constant for %s", mapping.DisplayLabel(target))))
	s.WriteString("\n\n")
	s.WriteString(m.constInput.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: apply • esc: cancel"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📦 Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Writing %d rows for %s...", m.source.RowCount(), m.vendor))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Export Complete!"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := max(m.width-20, 30)

	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.SourceFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Rows processed: %d\n", m.result.RowsProcessed))
	s.WriteString(MutedStyle.Render(fmt.Sprintf("Run: %s", m.result.RunID)))
	s.WriteString("\n\n")

	if len(m.result.Validation) == 0 {
		s.WriteString(SuccessStyle.Render("Integrity check passed"))
	} else {
		s.WriteString(ErrorStyle.Render("Required columns with empty cells:"))
		s.WriteString("\n")
		for _, v := range m.result.Validation {
			s.WriteString(fmt.Sprintf("  • %s: %d empty\n", mapping.DisplayLabel(v.Column), v.MissingCount))
		}
	}
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(WarnStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("b: back to mapping • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to exit"))

	return BoxStyle.Render(s.String())
}

func truncatePath(path string, maxLen int) string {
	if len(path) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path
}

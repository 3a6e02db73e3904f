package ui

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/bulkmap/internal/config"
	"github.com/nconklindev/bulkmap/internal/converter"
	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/store"
	"github.com/nconklindev/bulkmap/internal/templates"
	"github.com/nconklindev/bulkmap/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateTargetPicker state = iota
	stateSourcePicker
	stateVendorInput
	stateMapping
	stateConstantInput
	stateProcessing
	stateComplete
	stateError
)

type fileRole int

const (
	roleTarget fileRole = iota
	roleSource
)

type Model struct {
	state state
	cfg   *config.AppConfig
	store store.Store

	storeErr error
	status   string

	filepicker filepicker.Model
	targetFile string
	sourceFile string
	target     *types.Table
	source     *types.Table

	vendorInput textinput.Model
	vendors     []string
	vendor      string

	resolution *mapping.Resolution
	edited     map[string]bool
	cursor     int
	offset     int

	constInput textinput.Model

	result       *types.ExportResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ExportResult
	err    error
}

type fileLoadedMsg struct {
	role fileRole
	path string
	data *types.Table
	err  error
}

type vendorsLoadedMsg struct {
	vendors []string
	err     error
}

type mappingLoadedMsg struct {
	persisted *mapping.Config
	found     bool
	err       error
}

type mappingSavedMsg struct {
	vendor string
	err    error
}

type conversionCompleteMsg struct {
	result *types.ExportResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

// InitialModel builds the console. st may be nil when the store could not be
// opened; storeErr is then shown and mappings start empty.
func InitialModel(cfg *config.AppConfig, st store.Store, storeErr error) Model {
	wd, _ := os.Getwd()

	vi := textinput.New()
	vi.Placeholder = "e.g. 나이키"
	vi.CharLimit = 100
	vi.Width = 40

	ci := textinput.New()
	ci.Placeholder = "literal value for every row"
	ci.CharLimit = 500
	ci.Width = 40

	return Model{
		state:       stateTargetPicker,
		cfg:         cfg,
		store:       st,
		storeErr:    storeErr,
		filepicker:  newFilePicker(wd),
		vendorInput: vi,
		constInput:  ci,
		edited:      make(map[string]bool),
		progress:    progress.New(progress.WithGradient("#FF8C42", "#FF9F5A")),
	}
}

func newFilePicker(dir string) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = converter.SupportedExtensions
	fp.CurrentDirectory = dir

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	return fp
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.filepicker.Init(), m.loadVendors())
}

func (m Model) pickerHeight() int {
	return max(m.height-14, 5)
}

func (m Model) listHeight() int {
	return max(m.height-16, 5)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filepicker.SetHeight(m.pickerHeight())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case stateTargetPicker, stateSourcePicker:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "d":
				if m.state == stateTargetPicker {
					path, err := templates.Locate("", m.cfg.Template.Path)
					if err != nil {
						m.status = err.Error()
						return m, nil
					}
					return m, m.loadFile(roleTarget, path)
				}
			}

		case stateVendorInput:
			return m.updateVendorInput(msg)

		case stateMapping:
			return m.updateMapping(msg)

		case stateConstantInput:
			return m.updateConstantInput(msg)

		case stateComplete, stateError:
			switch msg.String() {
			case "q", "enter", "esc":
				return m, tea.Quit
			case "b":
				if m.state == stateComplete && m.resolution != nil {
					m.state = stateMapping
					m.status = ""
					return m, nil
				}
			}
			return m, nil
		}

	case fileLoadedMsg:
		return m.onFileLoaded(msg)

	case vendorsLoadedMsg:
		if msg.err != nil {
			log.Printf("list vendors: %v", msg.err)
			return m, nil
		}
		m.vendors = msg.vendors
		return m, nil

	case mappingLoadedMsg:
		var persisted *mapping.Config
		if msg.err != nil {
			log.Printf("load mapping for %q: %v", m.vendor, msg.err)
			m.status = fmt.Sprintf("Could not load stored mapping, starting from auto-match: %v", msg.err)
		} else if msg.found {
			persisted = msg.persisted
			m.status = fmt.Sprintf("Loaded stored mapping for %q", m.vendor)
		} else {
			m.status = fmt.Sprintf("No stored mapping for %q, columns auto-matched", m.vendor)
		}

		m.resolution = mapping.ResolveAll(m.vendor, m.target.Headers, persisted, m.source.Headers)
		m.edited = make(map[string]bool)
		m.cursor, m.offset = 0, 0
		m.state = stateMapping
		return m, nil

	case mappingSavedMsg:
		if msg.err != nil {
			log.Printf("save mapping for %q: %v", msg.vendor, msg.err)
			m.status = fmt.Sprintf("Save failed: %v", msg.err)
			return m, nil
		}
		log.Printf("saved mapping for %q", msg.vendor)
		m.status = fmt.Sprintf("Saved mapping for %q", msg.vendor)
		return m, m.loadVendors()

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	switch m.state {
	case stateTargetPicker, stateSourcePicker:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			role := roleTarget
			if m.state == stateSourcePicker {
				role = roleSource
			}
			return m, m.loadFile(role, path)
		}

		return m, cmd

	case stateVendorInput:
		var cmd tea.Cmd
		m.vendorInput, cmd = m.vendorInput.Update(msg)
		return m, cmd

	case stateConstantInput:
		var cmd tea.Cmd
		m.constInput, cmd = m.constInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) onFileLoaded(msg fileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	switch msg.role {
	case roleTarget:
		m.target = msg.data
		m.targetFile = msg.path
		m.status = ""
		m.state = stateSourcePicker
		m.filepicker = newFilePicker(filepath.Dir(msg.path))
		m.filepicker.SetHeight(m.pickerHeight())
		return m, m.filepicker.Init()

	default:
		m.source = msg.data
		m.sourceFile = msg.path
		m.status = ""
		m.state = stateVendorInput
		return m, m.vendorInput.Focus()
	}
}

func (m Model) updateVendorInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateSourcePicker
		m.vendorInput.Blur()
		return m, m.filepicker.Init()
	case "tab":
		if v := completeVendor(m.vendorInput.Value(), m.vendors); v != "" {
			m.vendorInput.SetValue(v)
			m.vendorInput.CursorEnd()
		}
		return m, nil
	case "enter":
		vendor, err := storeVendor(m.vendorInput.Value())
		if err != nil {
			m.status = "Enter a vendor name (used as the save key)"
			return m, nil
		}
		m.vendor = vendor
		m.vendorInput.Blur()
		return m, m.loadMapping(vendor)
	}

	var cmd tea.Cmd
	m.vendorInput, cmd = m.vendorInput.Update(msg)
	return m, cmd
}

func (m Model) updateMapping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	targets := m.target.Headers

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.state = stateVendorInput
		return m, m.vendorInput.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(targets)-1 {
			m.cursor++
		}
	case "right", "l":
		m.cycleSource(1)
	case "left", "h":
		m.cycleSource(-1)
	case "f":
		m.cycleFormat()
	case "u":
		m.setEntry(mapping.Unmapped())
	case "c":
		if len(targets) == 0 {
			return m, nil
		}
		current := m.resolution.Config.Get(targets[m.cursor])
		m.constInput.SetValue("")
		if current.Kind == mapping.KindConstant {
			m.constInput.SetValue(current.Value)
		}
		m.state = stateConstantInput
		return m, m.constInput.Focus()
	case "s":
		return m, m.saveMapping()
	case "enter":
		m.state = stateProcessing
		return m.convertFile()
	}

	m.scrollToCursor()
	return m, nil
}

func (m Model) updateConstantInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.constInput.Blur()
		m.state = stateMapping
		return m, nil
	case "enter":
		current := m.resolution.Config.Get(m.target.Headers[m.cursor])
		m.setEntry(mapping.Constant(m.constInput.Value(), current.Format))
		m.constInput.Blur()
		m.state = stateMapping
		return m, nil
	}

	var cmd tea.Cmd
	m.constInput, cmd = m.constInput.Update(msg)
	return m, cmd
}

func (m *Model) setEntry(e mapping.Entry) {
	if len(m.target.Headers) == 0 {
		return
	}
	h := m.target.Headers[m.cursor]
	m.resolution.Config.Set(h, e)
	m.edited[h] = true
}

// cycleSource moves the current target through "(unmapped)" and every source column.
func (m *Model) cycleSource(step int) {
	if len(m.target.Headers) == 0 {
		return
	}

	current := m.resolution.Config.Get(m.target.Headers[m.cursor])
	options := len(m.source.Headers) + 1

	idx := 0
	if current.Kind == mapping.KindColumn {
		if i, ok := m.source.ColumnIndex(current.Value); ok {
			idx = i + 1
		}
	}

	idx = ((idx+step)%options + options) % options
	if idx == 0 {
		m.setEntry(mapping.Unmapped())
		return
	}

	format := mapping.FormatGeneral
	if !current.IsUnmapped() {
		format = current.Format
	}
	m.setEntry(mapping.ColumnRef(m.source.Headers[idx-1], format))
}

func (m *Model) cycleFormat() {
	if len(m.target.Headers) == 0 {
		return
	}

	current := m.resolution.Config.Get(m.target.Headers[m.cursor])
	if current.IsUnmapped() {
		return
	}

	next := mapping.Formats[(int(current.Format)+1)%len(mapping.Formats)]
	m.setEntry(current.WithFormat(next))
}

func (m *Model) scrollToCursor() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m Model) loadFile(role fileRole, path string) tea.Cmd {
	opts := converter.ReadOptions{CSVEncoding: m.cfg.Input.CSVEncoding}
	return func() tea.Msg {
		data, err := converter.ReadTable(path, opts)
		return fileLoadedMsg{role: role, path: path, data: data, err: err}
	}
}

func (m Model) loadVendors() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		if st == nil {
			return vendorsLoadedMsg{}
		}
		vendors, err := st.ListVendors(context.Background())
		return vendorsLoadedMsg{vendors: vendors, err: err}
	}
}

func (m Model) loadMapping(vendor string) tea.Cmd {
	st, storeErr := m.store, m.storeErr
	return func() tea.Msg {
		if st == nil {
			return mappingLoadedMsg{err: storeErr}
		}
		cfg, found, err := st.Load(context.Background(), vendor)
		return mappingLoadedMsg{persisted: cfg, found: found, err: err}
	}
}

func (m Model) saveMapping() tea.Cmd {
	st, storeErr, vendor := m.store, m.storeErr, m.vendor
	cfg := m.resolution.Config.Clone()
	return func() tea.Msg {
		if st == nil {
			if storeErr == nil {
				storeErr = store.ErrStoreUnavailable
			}
			return mappingSavedMsg{vendor: vendor, err: storeErr}
		}
		return mappingSavedMsg{vendor: vendor, err: st.Save(context.Background(), vendor, cfg)}
	}
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	job := converter.Job{
		Vendor:     m.vendor,
		Targets:    m.target.Headers,
		Source:     m.source,
		SourceFile: m.sourceFile,
		Mapping:    m.resolution.Config.Clone(),
		OutputFile: filepath.Join(m.cfg.Export.OutputDir, converter.SuggestFilename(m.vendor, m.source.RowCount())),
		Export: converter.ExportOptions{
			SheetName:   m.cfg.Export.SheetName,
			MaxColWidth: m.cfg.Export.MaxColWidth,
		},
	}

	cmd := tea.Batch(
		func() tea.Msg {
			// Capture channels for the goroutine
			progressChan := m.progressChan
			resultChan := m.resultChan

			go func() {
				result, err := converter.Convert(job, progressChan)

				resultChan <- conversionResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func storeVendor(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", store.ErrEmptyVendor
	}
	return v, nil
}

// completeVendor returns the single known vendor starting with prefix.
func completeVendor(prefix string, vendors []string) string {
	match := ""
	for _, v := range vendors {
		if strings.HasPrefix(v, prefix) {
			if match != "" {
				return ""
			}
			match = v
		}
	}
	return match
}

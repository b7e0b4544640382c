package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/mmiogen/generator"
	"github.com/wippyai/mmiogen/schema"
	"github.com/wippyai/mmiogen/sim"
	"github.com/wippyai/mmiogen/synth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	blockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	reservedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectBlock modelState = iota
	stateSelectField
	stateInput
	stateShowResult
)

// frame is one level of the block being inspected: a block at an offset into
// a mapped region.
type frame struct {
	block  *schema.Block
	region sim.Region
	offset uint32
	label  string
}

type interactiveModel struct {
	err      error
	mem      *sim.Memory
	res      *generator.Result
	wrappers map[string]*synth.Wrapper
	regions  map[string]sim.Region
	cfg      generator.Config
	result   string
	stack    []frame
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type loadedMsg struct {
	err     error
	mem     *sim.Memory
	res     *generator.Result
	regions map[string]sim.Region
}

type accessResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(cfg generator.Config) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		state: stateSelectBlock,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

// load analyzes the package and maps one simulated region per block.
func (m *interactiveModel) load() tea.Msg {
	res, err := generator.Generate(m.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}

	var total uint64
	for _, w := range res.Wrappers {
		total += uint64(w.Block.Size) + uint64(w.Block.Align)
	}
	pages := uint32(total/sim.PageSize) + 1
	mem, err := sim.New(context.Background(), pages)
	if err != nil {
		return loadedMsg{err: err}
	}

	regions := make(map[string]sim.Region, len(res.Wrappers))
	for _, w := range res.Wrappers {
		b := w.Block
		r, err := mem.Map(b.Name, b.Size, b.Align)
		if err != nil {
			_ = mem.Close(context.Background())
			return loadedMsg{err: err}
		}
		regions[b.Name] = r
	}
	return loadedMsg{mem: mem, res: res, regions: regions}
}

func (m *interactiveModel) close() {
	if m.mem != nil {
		_ = m.mem.Close(context.Background())
		m.mem = nil
	}
}

func (m *interactiveModel) top() *frame {
	if len(m.stack) == 0 {
		return nil
	}
	return &m.stack[len(m.stack)-1]
}

func (m *interactiveModel) field() *schema.Field {
	f := m.top()
	if f == nil || m.selected >= len(f.block.Fields) {
		return nil
	}
	return f.block.Fields[m.selected]
}

func (m *interactiveModel) browsing() bool {
	return m.state == stateSelectBlock || m.state == stateSelectField
}

func (m *interactiveModel) itemCount() int {
	switch m.state {
	case stateSelectBlock:
		if m.res == nil {
			return 0
		}
		return len(m.res.Wrappers)
	case stateSelectField:
		if f := m.top(); f != nil {
			return len(f.block.Fields)
		}
	}
	return 0
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateInput || msg.String() == "ctrl+c" {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.browsing() && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.browsing() && m.selected < m.itemCount()-1 {
				m.selected++
			}

		case "enter":
			return m, m.enter()

		case "tab":
			if m.state == stateInput && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "r":
			if m.state == stateSelectField {
				if f := m.field(); f != nil && !f.Skip && !f.Shape.Nested() && f.Access.Readable() {
					return m, m.readAll(f)
				}
			}

		case "esc":
			m.back()
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mem = msg.mem
		m.res = msg.res
		m.regions = msg.regions
		m.wrappers = make(map[string]*synth.Wrapper, len(msg.res.Wrappers))
		for _, w := range msg.res.Wrappers {
			m.wrappers[w.Block.Name] = w
		}

	case accessResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInput {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) enter() tea.Cmd {
	switch m.state {
	case stateSelectBlock:
		if m.res == nil || len(m.res.Wrappers) == 0 {
			return nil
		}
		b := m.res.Wrappers[m.selected].Block
		m.stack = []frame{{block: b, region: m.regions[b.Name], label: b.Name}}
		m.selected = 0
		m.state = stateSelectField

	case stateSelectField:
		f := m.field()
		if f == nil || f.Skip {
			return nil
		}
		switch {
		case f.Shape.Kind == schema.ShapeBlock:
			m.push(f, 0)
		case f.Shape.Indexed():
			m.prepareInputs(f)
			m.state = stateInput
		case f.Access.Write:
			m.prepareInputs(f)
			m.state = stateInput
		}

	case stateInput:
		f := m.field()
		if f.Shape.Kind == schema.ShapeBlockArray {
			i, err := m.index(f)
			if err != nil {
				return func() tea.Msg { return accessResultMsg{err: err} }
			}
			m.inputs = nil
			m.push(f, i)
			return nil
		}
		return m.access(f)

	case stateShowResult:
		m.state = stateSelectField
		m.result = ""
		m.err = nil
	}
	return nil
}

func (m *interactiveModel) back() {
	switch m.state {
	case stateInput, stateShowResult:
		m.state = stateSelectField
		m.inputs = nil
		m.result = ""
		m.err = nil
	case stateSelectField:
		m.stack = m.stack[:len(m.stack)-1]
		m.selected = 0
		if len(m.stack) == 0 {
			m.state = stateSelectBlock
		}
	}
}

// push descends into element i of the nested block field f.
func (m *interactiveModel) push(f *schema.Field, i int) {
	top := m.top()
	label := top.label + "." + f.Name
	if f.Shape.Kind == schema.ShapeBlockArray {
		label += "[" + strconv.Itoa(i) + "]"
	}
	m.stack = append(m.stack, frame{
		block:  f.Target,
		region: top.region,
		offset: top.offset + f.Offset + uint32(i)*f.Type.Size,
		label:  label,
	})
	m.selected = 0
	m.state = stateSelectField
}

func (m *interactiveModel) prepareInputs(f *schema.Field) {
	var prompts [][2]string
	if f.Shape.Indexed() {
		prompts = append(prompts, [2]string{"index: ", "0.." + strconv.Itoa(f.Shape.Len-1)})
	}
	if !f.Shape.Nested() {
		if f.Access.Write {
			prompts = append(prompts, [2]string{"value: ", f.Type.Name})
		}
	}

	m.inputs = make([]textinput.Model, len(prompts))
	for i, p := range prompts {
		ti := textinput.New()
		ti.Prompt = p[0]
		ti.Placeholder = p[1]
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) index(f *schema.Field) (int, error) {
	if len(m.inputs) == 0 {
		return 0, fmt.Errorf("no index given")
	}
	i, err := strconv.Atoi(strings.TrimSpace(m.inputs[0].Value()))
	if err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}
	if i < 0 || i >= f.Shape.Len {
		return 0, fmt.Errorf("index %d out of bounds (length %d)", i, f.Shape.Len)
	}
	return i, nil
}

// access writes the entered value to the selected register, if writable, and
// reads it back, if readable.
func (m *interactiveModel) access(f *schema.Field) tea.Cmd {
	top := *m.top()
	var (
		i      int
		err    error
		inputs = m.inputs
	)
	if f.Shape.Indexed() {
		if i, err = m.index(f); err != nil {
			return func() tea.Msg { return accessResultMsg{err: err} }
		}
		inputs = inputs[1:]
	}

	return func() tea.Msg {
		off := top.offset + f.Offset + uint32(i)*f.Type.Size
		width := f.Type.Size
		if len(inputs) > 0 && f.Access.Write {
			v, err := parseValue(inputs[0].Value(), width)
			if err != nil {
				return accessResultMsg{err: err}
			}
			if err := top.region.Write(off, width, v); err != nil {
				return accessResultMsg{err: err}
			}
		}
		if !f.Access.Readable() {
			return accessResultMsg{result: "written (field is write-only)"}
		}
		v, err := top.region.Read(off, width)
		if err != nil {
			return accessResultMsg{err: err}
		}
		return accessResultMsg{result: formatValue(v, width)}
	}
}

// readAll reads every element of a readable register field.
func (m *interactiveModel) readAll(f *schema.Field) tea.Cmd {
	top := *m.top()
	return func() tea.Msg {
		n := 1
		if f.Shape.Indexed() {
			n = f.Shape.Len
		}
		var lines []string
		for i := 0; i < n; i++ {
			v, err := top.region.Read(top.offset+f.Offset+uint32(i)*f.Type.Size, f.Type.Size)
			if err != nil {
				return accessResultMsg{err: err}
			}
			lines = append(lines, fmt.Sprintf("[%d] %s", i, formatValue(v, f.Type.Size)))
		}
		if n == 1 {
			lines[0] = strings.TrimPrefix(lines[0], "[0] ")
		}
		return accessResultMsg{result: strings.Join(lines, "\n")}
	}
}

// parseValue accepts decimal, 0x, 0o and 0b literals, including negative
// values for signed registers, and truncates them to width bytes.
func parseValue(s string, width uint32) (uint64, error) {
	s = strings.TrimSpace(s)
	bits := int(width * 8)
	if v, err := strconv.ParseUint(s, 0, bits); err == nil {
		return v, nil
	}
	v, err := strconv.ParseInt(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("value %q does not fit in %d bits", s, bits)
	}
	return uint64(v) & mask(width), nil
}

func mask(width uint32) uint64 {
	return ^uint64(0) >> (64 - 8*width)
}

func formatValue(v uint64, width uint32) string {
	return fmt.Sprintf("0x%0*x (%d)", int(width)*2, v, v)
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.res == nil {
		return "Loading package..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("MMIO Inspector"))
	b.WriteString(" ")
	b.WriteString(m.res.Set.Package + " (" + m.res.Set.Arch + ")")
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectBlock:
		b.WriteString("Select a register block:\n\n")
		for i, w := range m.res.Wrappers {
			line := fmt.Sprintf("%s  %d bytes, %d methods", w.Block.Name, w.Block.Size, len(w.Methods))
			b.WriteString(m.item(i, blockStyle.Render(line), line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))

	case stateSelectField:
		top := m.top()
		b.WriteString(fmt.Sprintf("%s at %#x\n\n", blockStyle.Render(top.label), top.region.Addr()+uintptr(top.offset)))
		for i, f := range top.block.Fields {
			line := formatField(f)
			styled := line
			if f.Skip {
				styled = reservedStyle.Render(line)
			}
			b.WriteString(m.item(i, styled, line))
			b.WriteString("\n")
		}
		if f := m.field(); f != nil && !f.Skip {
			b.WriteString("\n")
			for _, meth := range m.methods(top.block, f) {
				b.WriteString("  " + typeStyle.Render(meth) + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter write/open • r read • esc back • q quit"))

	case stateInput:
		f := m.field()
		b.WriteString(fmt.Sprintf("%s.%s\n\n", blockStyle.Render(m.top().label), f.Name))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter apply • esc back"))

	case stateShowResult:
		f := m.field()
		b.WriteString(fmt.Sprintf("%s.%s:\n\n", blockStyle.Render(m.top().label), f.Name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) item(i int, styled, plain string) string {
	if i == m.selected {
		return selectedStyle.Render("> " + plain)
	}
	return "  " + styled
}

// methods lists the generated signatures for field f of block b.
func (m *interactiveModel) methods(b *schema.Block, f *schema.Field) []string {
	w := m.wrappers[b.Name]
	if w == nil {
		return nil
	}
	var out []string
	for _, meth := range w.Methods {
		if meth.Field == f {
			out = append(out, meth.Signature())
		}
	}
	return out
}

func formatField(f *schema.Field) string {
	access := f.Access.String()
	switch {
	case f.Skip:
		access = "reserved"
	case f.Shape.Nested():
		access = "Inner"
	}
	return fmt.Sprintf("%#06x %4d  %-16s %-14s %s", f.Offset, f.Size, f.Name, f.Expr, access)
}

func runInteractive(cfg generator.Config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appctl "focusbar/internal/app"
	"focusbar/internal/config"
	"focusbar/internal/docs"
	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/notify"
	"focusbar/internal/sound"
	"focusbar/internal/todo"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type view int

const (
	viewList view = iota
	viewForm
	viewSoundPath
	viewHelp
	viewFilePicker
)

type (
	tickMsg     time.Time
	settingsMsg config.Event
	alertMsg    notify.Result
	titleMsg    string
	pickedMsg   struct {
		path string
		err  error
	}
)

type modelOptions struct {
	Controller     *appctl.Controller
	Picker         sound.Picker
	Tick           time.Duration
	DefaultMinutes int

	// Event sources; nil channels are never read.
	Settings <-chan config.Event
	Alerts   <-chan notify.Result
	Titles   <-chan string
}

type appModel struct {
	ctl            *appctl.Controller
	picker         sound.Picker
	tickEvery      time.Duration
	defaultMinutes int

	settings <-chan config.Event
	alerts   <-chan notify.Result
	titles   <-chan string

	keys keyMap
	help help.Model
	list list.Model
	st   *styles

	view       view
	form       taskForm
	soundInput textinput.Model
	filePicker filepicker.Model

	doc       model.Document
	status    string
	statusErr bool
	flash     string

	width  int
	height int
}

func newAppModel(opts modelOptions) appModel {
	m := appModel{
		ctl:            opts.Controller,
		picker:         opts.Picker,
		tickEvery:      opts.Tick,
		defaultMinutes: opts.DefaultMinutes,
		settings:       opts.Settings,
		alerts:         opts.Alerts,
		titles:         opts.Titles,
		keys:           defaultKeyMap(),
		help:           help.New(),
		view:           viewList,
	}
	if m.tickEvery <= 0 {
		m.tickEvery = 250 * time.Millisecond
	}
	if m.picker == nil {
		m.picker = sound.DialogPicker{}
	}
	doc := m.ctl.State()
	st := newStyles(doc.UI.Theme.Accent)
	m.st = &st

	m.list = list.New(nil, taskDelegate{st: m.st}, 0, 0)
	m.list.SetShowTitle(false)
	m.list.SetShowHelp(false)
	m.list.SetShowStatusBar(false)
	m.list.SetShowPagination(true)
	m.list.SetFilteringEnabled(false)
	m.list.DisableQuitKeybindings()

	m.soundInput = textinput.New()
	m.soundInput.Placeholder = "/path/to/alarm.mp3 (empty = built-in tone)"
	m.soundInput.Prompt = ""

	m.applyAppearance(doc)
	m.refresh(doc)
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("focusbar"),
		m.tick(),
		waitSettings(m.settings),
		waitAlerts(m.alerts),
		waitTitles(m.titles),
	)
}

func (m appModel) tick() tea.Cmd {
	return tea.Tick(m.tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitSettings(ch <-chan config.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return settingsMsg(ev)
	}
}

func waitAlerts(ch <-chan notify.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg(res)
	}
}

func waitTitles(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return titleMsg(t)
	}
}

func pickSound(p sound.Picker) tea.Cmd {
	return func() tea.Msg {
		path, err := p.PickAudioFile(context.Background())
		if err == nil {
			_, err = p.ReadFile(path)
		}
		return pickedMsg{path: path, err: err}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeList()
		return m, nil

	case tickMsg:
		doc, fired := m.ctl.Tick()
		if fired {
			m.setStatus("Time’s up!", false)
		}
		m.refresh(doc)
		return m, m.tick()

	case settingsMsg:
		doc, err := m.ctl.ApplySettings(config.Event(msg))
		if err != nil {
			m.setStatus("settings: "+err.Error(), true)
		} else {
			m.applyAppearance(doc)
			m.refresh(doc)
		}
		return m, waitSettings(m.settings)

	case alertMsg:
		m.setStatus(alertSummary(notify.Result(msg)), len(msg.Errors) > 0)
		return m, waitAlerts(m.alerts)

	case titleMsg:
		m.flash = string(msg)
		if m.flash == "focusbar" {
			m.flash = ""
		}
		return m, tea.Batch(tea.SetWindowTitle(string(msg)), waitTitles(m.titles))

	case pickedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, sound.ErrNoDialog) {
				cmd := m.openFilePicker()
				return m, cmd
			}
			if errors.Is(msg.err, sound.ErrPickCanceled) {
				m.setStatus("Pick canceled", false)
			} else {
				m.setStatus("sound: "+msg.err.Error(), true)
			}
			return m, nil
		}
		m.setSound(msg.path)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case viewForm:
			return m.updateForm(msg)
		case viewSoundPath:
			return m.updateSoundPath(msg)
		case viewFilePicker:
			return m.updateFilePicker(msg)
		case viewHelp:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.view = viewList
			return m, nil
		}
		return m.updateList(msg)
	}

	if m.view == viewFilePicker {
		return m.updateFilePicker(msg)
	}
	if m.view == viewForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, hasSel := m.selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.view = viewHelp
		return m, nil

	case key.Matches(msg, m.keys.Add):
		if m.ctl.Locked() {
			m.apply(m.doc, appctl.ErrLocked)
			return m, nil
		}
		m.form = newTaskForm(m.defaultMinutes, m.doc.UI.TagFilter)
		m.view = viewForm
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		if !hasSel {
			return m, nil
		}
		var err error
		doc := m.doc
		if !sel.IsEditing {
			doc, err = m.ctl.ToggleEditing(sel.ID)
		}
		m.apply(doc, err)
		if err != nil {
			return m, nil
		}
		m.form = editTaskForm(sel)
		m.view = viewForm
		return m, textinput.Blink

	case key.Matches(msg, m.keys.StartStop):
		switch m.doc.Timer.Status {
		case model.StatusRunning:
			m.apply(m.ctl.Pause())
		case model.StatusPaused:
			m.apply(m.ctl.Resume())
		default:
			if hasSel {
				m.apply(m.ctl.Start(sel.ID))
			} else {
				m.apply(m.ctl.StartNext())
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Finish):
		m.apply(m.ctl.Finish())
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if hasSel {
			m.apply(m.ctl.ToggleComplete(sel.ID))
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if hasSel {
			m.apply(m.ctl.Delete(sel.ID))
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveUp):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.MoveDown):
		m.move(+1)
		return m, nil

	case key.Matches(msg, m.keys.Retag):
		if hasSel {
			m.apply(m.ctl.SetTag(sel.ID, model.NextTag(sel.Tag)))
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.apply(m.ctl.SetTagFilter(nextFilter(m.doc.UI.TagFilter)))
		return m, nil

	case key.Matches(msg, m.keys.Completed):
		m.apply(m.ctl.SetShowCompleted(!m.doc.UI.ShowCompleted))
		return m, nil

	case key.Matches(msg, m.keys.SoundPath):
		m.soundInput.SetValue(m.doc.UI.Sound.Path)
		m.soundInput.CursorEnd()
		m.soundInput.Focus()
		m.view = viewSoundPath
		return m, textinput.Blink

	case key.Matches(msg, m.keys.SoundPick):
		m.setStatus("Choose a sound file…", false)
		return m, pickSound(m.picker)

	case key.Matches(msg, m.keys.Mute):
		s := m.doc.UI.Sound
		s.Enabled = !s.Enabled
		m.apply(m.ctl.SetSound(s))
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	// Skip over the completed-section divider.
	if _, ok := m.list.SelectedItem().(dividerItem); ok {
		if msg.String() == "up" || msg.String() == "k" {
			m.list.CursorUp()
		} else {
			m.list.CursorDown()
		}
	}
	return m, cmd
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.form.keys.Cancel):
		if m.form.editID != 0 {
			if t, ok := m.doc.FindTask(m.form.editID); ok && t.IsEditing {
				m.apply(m.ctl.ToggleEditing(t.ID))
			}
		}
		m.view = viewList
		return m, nil

	case key.Matches(msg, m.form.keys.Submit):
		var doc model.Document
		var err error
		if m.form.editID == 0 {
			doc, err = m.ctl.Add(m.form.content(), m.form.minutes, m.form.tag)
		} else {
			doc, err = m.ctl.Edit(m.form.editID, m.form.content(), m.form.minutes)
			if err == nil {
				doc, err = m.ctl.SetTag(m.form.editID, m.form.tag)
			}
		}
		m.apply(doc, err)
		if err == nil {
			m.view = viewList
			if m.form.editID == 0 {
				m.list.Select(len(todo.List(doc.Todos).Filter(doc.UI.TagFilter).Incomplete()) - 1)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m appModel) updateSoundPath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.view = viewList
		return m, nil
	case "enter":
		m.view = viewList
		m.setSound(strings.TrimSpace(m.soundInput.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.soundInput, cmd = m.soundInput.Update(msg)
	return m, cmd
}

// setSound stores path as the alarm; "" reverts to the built-in tone.
func (m *appModel) setSound(path string) {
	s := m.doc.UI.Sound
	if path == "" {
		s.Path, s.Name = "", ""
		m.apply(m.ctl.SetSound(s))
		return
	}
	if _, err := sound.ReadAudioFile(path); err != nil {
		m.setStatus("sound: "+err.Error(), true)
		return
	}
	s.Path, s.Name, s.Enabled = path, "", true
	m.apply(m.ctl.SetSound(s))
}

// move swaps the selected task with its neighbour in direction dir,
// staying within the same section.
func (m *appModel) move(dir int) {
	sel, ok := m.selected()
	if !ok {
		return
	}
	idx := m.list.Index() + dir
	items := m.list.Items()
	if idx < 0 || idx >= len(items) {
		return
	}
	other, ok := items[idx].(taskItem)
	if !ok || other.task.IsCompleted != sel.IsCompleted {
		return
	}
	doc, err := m.ctl.Reorder(sel.ID, other.task.ID)
	m.apply(doc, err)
	if err == nil {
		m.list.Select(idx)
	}
}

func (m *appModel) apply(doc model.Document, err error) {
	if err != nil {
		m.setStatus(rejectionText(err), true)
	} else {
		m.setStatus("", false)
	}
	m.refresh(doc)
}

func (m *appModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// refresh rebuilds the rows and keeps the selection on the same task.
func (m *appModel) refresh(doc model.Document) {
	var selID int64
	if t, ok := m.selected(); ok {
		selID = t.ID
	}
	idx := m.list.Index()
	m.doc = doc
	items := listItems(doc, m.ctl.Remaining())
	m.list.SetItems(items)
	for i, it := range items {
		if ti, ok := it.(taskItem); ok && ti.task.ID == selID {
			idx = i
			break
		}
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	if _, ok := m.list.SelectedItem().(dividerItem); ok {
		if idx > 0 {
			m.list.Select(idx - 1)
		} else {
			m.list.Select(idx + 1)
		}
	}
}

func (m *appModel) applyAppearance(doc model.Document) {
	applyThemeMode(doc.UI.Theme.Mode)
	*m.st = newStyles(doc.UI.Theme.Accent)
}

func (m *appModel) resizeList() {
	// header (2) + blank + status + help
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	m.list.SetSize(m.width, h)
	m.filePicker.Height = filePickerHeight(m.height)
}

func (m appModel) selected() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.task, true
}

// nextFilter cycles: all, then every tag in order, then back to all.
func nextFilter(cur model.Tag) model.Tag {
	tags := model.Tags()
	if cur == "" {
		return tags[0]
	}
	for i, t := range tags {
		if t == cur && i+1 < len(tags) {
			return tags[i+1]
		}
	}
	return ""
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, appctl.ErrLocked):
		return "Locked during focus mode (f finishes, enter pauses)"
	case errors.Is(err, appctl.ErrOutOfTurn):
		return "Only the next task can start"
	case errors.Is(err, focus.ErrInvalidTransition):
		return "Nothing to pause, resume or finish"
	case errors.Is(err, appctl.ErrInvalid):
		return "Invalid input"
	}
	return err.Error()
}

func alertSummary(res notify.Result) string {
	var via []string
	if res.System {
		via = append(via, "notification")
	}
	if res.Title {
		via = append(via, "title")
	}
	switch {
	case res.UsedBell:
		via = append(via, "bell")
	case res.UsedTone:
		via = append(via, "tone")
	case res.Sound:
		via = append(via, "sound")
	}
	s := "Time’s up!"
	if len(via) > 0 {
		s += " (" + strings.Join(via, ", ") + ")"
	}
	if len(res.Errors) > 0 {
		s += " " + res.Errors[0]
	}
	return s
}

// badge is the header count: incomplete tasks, or the countdown while locked.
func badge(doc model.Document, remaining int) string {
	if doc.Timer.Locked() {
		return focus.FormatClock(remaining)
	}
	return strconv.Itoa(len(todo.List(doc.Todos).Filter(doc.UI.TagFilter).Incomplete()))
}

func (m appModel) subtitle() string {
	if t, ok := m.doc.ActiveTask(); ok && m.doc.Timer.Locked() {
		state := "Focus mode"
		if m.doc.Timer.Status == model.StatusPaused {
			state = "Focus mode (paused)"
		}
		return fmt.Sprintf("%s: %s", state, t.Content)
	}
	if next, ok := todo.List(m.doc.Todos).NextStartable(m.doc.UI.TagFilter); ok {
		return "Next: " + next.Content
	}
	return "Nothing left to do"
}

func (m appModel) View() string {
	st := m.st
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := st.header.Render("Todo") + " " + st.badge.Render(badge(m.doc, m.ctl.Remaining()))
	if f := m.doc.UI.TagFilter; f != "" {
		title += " " + st.tag.Render("#"+string(f))
	}
	if !m.doc.UI.Sound.Enabled {
		title += " " + st.muted.Render("(muted)")
	}
	if m.flash != "" {
		title += "  " + st.active.Render(m.flash)
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		fitLine(title, width),
		st.subtitle.Render(fitLine(m.subtitle(), width)),
	)

	var body, helpLine string
	switch m.view {
	case viewForm:
		body = m.form.view(width, st)
		helpLine = m.help.ShortHelpView(m.form.keys.ShortHelp())
	case viewSoundPath:
		body = st.formBox.Width(width - 4).Render(st.header.Render("Alarm sound") + "\n" + renderInputLine(width-4, m.soundInput.View()))
		helpLine = st.muted.Render("enter: save   esc: cancel   empty: built-in tone")
	case viewFilePicker:
		body = st.header.Render("Pick an alarm sound") + "  " + st.muted.Render(m.filePicker.CurrentDirectory) + "\n" + m.filePicker.View()
		helpLine = st.muted.Render("enter: open/select   h: up   esc: cancel")
	case viewHelp:
		md, _ := docs.Get("keys")
		body = renderMarkdown(md, width-2, string(st.accent)) + "\n\n" + m.help.FullHelpView(m.keys.FullHelp())
		helpLine = st.muted.Render("any key: close")
	default:
		if len(m.list.Items()) == 0 {
			body = st.muted.Render("  No tasks. Press a to add one.")
		} else {
			body = m.list.View()
		}
		helpLine = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	status := st.status.Render(m.status)
	if m.statusErr {
		status = st.errStatus.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, status, helpLine)
}

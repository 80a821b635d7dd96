package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Edit      key.Binding
	StartStop key.Binding
	Finish    key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Retag     key.Binding
	Filter    key.Binding
	Completed key.Binding
	SoundPath key.Binding
	SoundPick key.Binding
	Mute      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		StartStop: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "start/pause")),
		Finish:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		Toggle:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "done")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		MoveUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
		MoveDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
		Retag:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "retag")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "tag filter")),
		Completed: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed")),
		SoundPath: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sound file")),
		SoundPick: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pick sound")),
		Mute:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.StartStop, k.Finish, k.Toggle, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.Add, k.Edit, k.Toggle, k.Delete, k.Retag},
		{k.StartStop, k.Finish, k.Filter, k.Completed},
		{k.SoundPath, k.SoundPick, k.Mute, k.Help, k.Quit},
	}
}

type formKeyMap struct {
	Submit     key.Binding
	Cancel     key.Binding
	CycleTag   key.Binding
	MoreMinute key.Binding
	LessMinute key.Binding
}

func defaultFormKeyMap() formKeyMap {
	return formKeyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:     key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "cancel")),
		CycleTag:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tag")),
		MoreMinute: key.NewBinding(key.WithKeys("up", "ctrl+up"), key.WithHelp("↑", "more minutes")),
		LessMinute: key.NewBinding(key.WithKeys("down", "ctrl+down"), key.WithHelp("↓", "fewer minutes")),
	}
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.CycleTag, k.MoreMinute, k.LessMinute, k.Cancel}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

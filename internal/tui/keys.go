package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Sidebar   key.Binding
	Enter     key.Binding
	Paste     key.Binding
	LowerDown key.Binding
	LowerUp   key.Binding
	UpperDown key.Binding
	UpperUp   key.Binding
	Reset     key.Binding
	ClearSel  key.Binding
	Table     key.Binding
	Export    key.Binding
	Help      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Sidebar, k.Paste, k.LowerDown, k.UpperDown, k.Enter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Sidebar, k.Enter, k.Paste, k.Table, k.Export},
		{k.LowerDown, k.LowerUp, k.UpperDown, k.UpperUp, k.Reset},
		{k.ClearSel, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Sidebar: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "files"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open/apply"),
	),
	Paste: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "paste wkt"),
	),
	LowerDown: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[/]", "min persistence"),
	),
	LowerUp: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "raise min"),
	),
	UpperDown: key.NewBinding(
		key.WithKeys("{"),
		key.WithHelp("{/}", "max persistence"),
	),
	UpperUp: key.NewBinding(
		key.WithKeys("}"),
		key.WithHelp("}", "raise max"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset filter"),
	),
	ClearSel: key.NewBinding(
		key.WithKeys("esc", "x"),
		key.WithHelp("esc/x", "clear selection"),
	),
	Table: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "pairs table"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export png"),
	),
	Help: key.NewBinding(
		key.WithKeys("h", "?"),
		key.WithHelp("h", "help"),
	),
}

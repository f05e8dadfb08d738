package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	esc     key.Binding
	tab     key.Binding
	newNote key.Binding
	submit  key.Binding
	reload  key.Binding
	quit    key.Binding
	kill    key.Binding
}

var keys = keyMap{
	up:      key.NewBinding(key.WithKeys("up", "k")),
	down:    key.NewBinding(key.WithKeys("down", "j")),
	enter:   key.NewBinding(key.WithKeys("enter")),
	esc:     key.NewBinding(key.WithKeys("esc")),
	tab:     key.NewBinding(key.WithKeys("tab", "shift+tab")),
	newNote: key.NewBinding(key.WithKeys("n")),
	submit:  key.NewBinding(key.WithKeys("ctrl+s")),
	reload:  key.NewBinding(key.WithKeys("r")),
	quit:    key.NewBinding(key.WithKeys("q")),
	kill:    key.NewBinding(key.WithKeys("ctrl+c")),
}

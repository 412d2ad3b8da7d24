package components

import "github.com/charmbracelet/bubbles/key"

// ListColumnKeyMap defines key bindings for list column navigation
type ListColumnKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
}

// DefaultListColumnKeyMap returns the default list column key bindings
func DefaultListColumnKeyMap() ListColumnKeyMap {
	return ListColumnKeyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down")),
		Home:     key.NewBinding(key.WithKeys("g", "home")),
		End:      key.NewBinding(key.WithKeys("G", "end")),
		HalfUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup")),
		HalfDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown")),
	}
}

var listKeys = DefaultListColumnKeyMap()

// SearchModalKeyMap defines key bindings for the search modal
type SearchModalKeyMap struct {
	Apply  key.Binding
	Cancel key.Binding
	Erase  key.Binding
	Fuzzy  key.Binding
}

var searchKeys = SearchModalKeyMap{
	Apply:  key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc")),
	Erase:  key.NewBinding(key.WithKeys("ctrl+u")),
	Fuzzy:  key.NewBinding(key.WithKeys("ctrl+f")),
}

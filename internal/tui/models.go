package tui

// focus is the flat tab order: tags, fandom, one stop per category, submit.
type focus int

const (
	focusTags focus = iota
	focusFandom
	focusFirstCategory
)

type focusRing struct {
	current    focus
	categories int
}

func (r focusRing) submit() focus { return focusFirstCategory + focus(r.categories) }

func (r focusRing) size() int { return int(r.submit()) + 1 }

func (r *focusRing) next() {
	r.current = focus((int(r.current) + 1) % r.size())
}

func (r *focusRing) prev() {
	r.current = focus((int(r.current) - 1 + r.size()) % r.size())
}

// category returns the focused category index, or -1.
func (r focusRing) category() int {
	if r.current >= focusFirstCategory && r.current < r.submit() {
		return int(r.current - focusFirstCategory)
	}
	return -1
}

func (r focusRing) onText() bool {
	return r.current == focusTags || r.current == focusFandom
}

func (r focusRing) onSubmit() bool { return r.current == r.submit() }

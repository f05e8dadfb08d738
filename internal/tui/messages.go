package tui

import "github.com/MarcoPoloResearchLab/quicknote/internal/notes"

type identityLoadedMsg struct {
	author notes.Author
	err    error
}

type listLoadedMsg struct {
	notes []notes.Note
	err   error
}

type uploadDoneMsg struct {
	notes []notes.Note
	err   error
}

type detailLoadedMsg struct {
	note notes.Note
	err  error
}

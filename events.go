package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"easybingo/game"
	"easybingo/ledger"
	"easybingo/listen"
	"easybingo/notify"
)

type numberMsg struct {
	N      int
	Source game.Source
}
type duplicateMsg struct{ N int }
type winMsg struct {
	Win     ledger.Win
	Message string
}
type heardMsg struct{ Text string }
type stateMsg struct{ State listen.State }
type failureMsg struct {
	Failure listen.Failure
	Message string
}
type notesMsg struct{ Items []notify.Notification }

// teaSink forwards session events to the Bubble Tea program in order. p must
// be set before the session starts running. Send returns once the program
// has quit, so the session never stays blocked on a closed UI.
type teaSink struct {
	p *tea.Program
}

func (s *teaSink) send(msg tea.Msg) {
	if s.p != nil {
		s.p.Send(msg)
	}
}

func (s *teaSink) Announced(n int, src game.Source) { s.send(numberMsg{N: n, Source: src}) }
func (s *teaSink) Duplicate(n int)                  { s.send(duplicateMsg{N: n}) }
func (s *teaSink) Win(w ledger.Win, message string) { s.send(winMsg{Win: w, Message: message}) }
func (s *teaSink) Heard(transcript string)          { s.send(heardMsg{Text: transcript}) }
func (s *teaSink) State(st listen.State)            { s.send(stateMsg{State: st}) }

func (s *teaSink) Failure(f listen.Failure, message string) {
	s.send(failureMsg{Failure: f, Message: message})
}

func (s *teaSink) Notifications(items []notify.Notification) {
	s.send(notesMsg{Items: append([]notify.Notification(nil), items...)})
}

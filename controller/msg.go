package controller

import "github.com/google/uuid"

// Msg is a command or event dispatched to Controller.Update. The set of
// messages is closed: it is implemented only by the types in this file.
type Msg interface {
	isMsg()
}

// SelectFiles starts an asynchronous read of every file.
type SelectFiles struct {
	Files []File
}

// FileLoaded is posted when a read started by SelectFiles completes.
// Exactly one of Data and Err is meaningful.
type FileLoaded struct {
	ID   uuid.UUID
	Name string
	Data []byte
	Err  error
}

// Render parses the loaded file and renders it with the current options.
type Render struct{}

// UpdateAxis edits one component of a camera point.
type UpdateAxis struct {
	Vector Vector
	Axis   Axis
	Text   string
}

// UpdateWidth edits the output width in pixels.
type UpdateWidth struct{ Text string }

// UpdateHeight edits the output height in pixels.
type UpdateHeight struct{ Text string }

// Reset restores the default render options.
type Reset struct{}

func (SelectFiles) isMsg()  {}
func (FileLoaded) isMsg()   {}
func (Render) isMsg()       {}
func (UpdateAxis) isMsg()   {}
func (UpdateWidth) isMsg()  {}
func (UpdateHeight) isMsg() {}
func (Reset) isMsg()        {}

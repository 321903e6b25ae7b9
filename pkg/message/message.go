// Package message defines the notifications the engine posts to the
// presentation layer.
package message

import "github.com/odvcencio/crawlterm/pkg/dialog"

// Kind identifies a message type.
type Kind string

const (
	KindRedraw        Kind = "redraw"
	KindOutput        Kind = "output"
	KindDialogShow    Kind = "dialog.show"
	KindDialogDismiss Kind = "dialog.dismiss"
	KindEngineExited  Kind = "engine.exited"
)

// Message is an engine-originated notification.
type Message interface {
	Kind() Kind
}

// Redraw asks the presentation layer to repaint the attached surface.
type Redraw struct{}

// Output carries bytes written by the engine's terminal.
type Output struct {
	Data []byte
}

// DialogShow requests a modal dialog.
type DialogShow struct {
	Dialog dialog.Dialog
}

// DialogDismiss closes a dialog the engine no longer needs answered.
type DialogDismiss struct {
	ID string
}

// EngineExited reports that the engine run ended on its own. Err is nil
// for a clean exit.
type EngineExited struct {
	Err error
}

func (Redraw) Kind() Kind        { return KindRedraw }
func (Output) Kind() Kind        { return KindOutput }
func (DialogShow) Kind() Kind    { return KindDialogShow }
func (DialogDismiss) Kind() Kind { return KindDialogDismiss }
func (EngineExited) Kind() Kind  { return KindEngineExited }

// Envelope is a message stamped with its post sequence number.
type Envelope struct {
	Seq uint64
	Msg Message
}

// Summary returns a short loggable description of msg.
func Summary(msg Message) map[string]any {
	out := map[string]any{"kind": string(msg.Kind())}
	switch m := msg.(type) {
	case Output:
		out["bytes"] = len(m.Data)
	case DialogShow:
		out["dialog_id"] = m.Dialog.ID
		out["title"] = m.Dialog.Title
	case DialogDismiss:
		out["dialog_id"] = m.ID
	case EngineExited:
		if m.Err != nil {
			out["error"] = m.Err.Error()
		}
	}
	return out
}

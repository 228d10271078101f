// Package l1 defines how a rover controller is exposed to remote
// (L2) consumers: identity, events out and commands in.
package l1

import (
	"context"

	fx "github.com/robotalks/openrover.go/pkg/framework"
)

// Registrar publishes the events of a rover controller.
type Registrar interface {
	// SendEvent sends an event to L2.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	// Done replies the command with the result message.
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a loop message.
type CommandMsg struct {
	Command Command
}

// ControllerRef is a reference to a rover controller.
type ControllerRef struct {
	// Type is the controller type, e.g. openrover.
	Type string
	// ID is unique ID of the rover.
	ID string
}

// Name retrieves the name from ref, which is also the topic prefix.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published as JSON while the controller is online.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Firmware    string            `json:"firmware,omitempty"`
	Device      string            `json:"device,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo provides information of a rover controller.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

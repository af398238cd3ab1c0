package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"token_radar/dashboard"
	"token_radar/models"
	"token_radar/view"
)

// Inbound command types
const (
	SetFilter      = "setFilter"
	SetSearchQuery = "setSearchQuery"
	SetSortBy      = "setSortBy"
)

// Outbound frame types
const (
	ViewFrame  = "view"
	ErrorFrame = "error"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command is one parameter change requested by a live view client.
type Command struct {
	Type  string `json:"type"`
	Value string `json:"value"`

	Filter models.Filter  `json:"-"`
	SortBy models.SortKey `json:"-"`
}

// Envelope wraps every frame sent to a live view client.
type Envelope struct {
	Type  string           `json:"type"`
	View  *dashboard.Frame `json:"view,omitempty"`
	Error string           `json:"error,omitempty"`
}

// ParseCommand decodes a client message and validates enum values so that
// invalid filters or sort keys never reach the view state.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("malformed command: %w", err)
	}

	switch cmd.Type {
	case SetFilter:
		f, err := models.ParseFilter(cmd.Value)
		if err != nil {
			return Command{}, err
		}
		cmd.Filter = f
	case SetSortBy:
		k, err := models.ParseSortKey(cmd.Value)
		if err != nil {
			return Command{}, err
		}
		cmd.SortBy = k
	case SetSearchQuery:
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return cmd, nil
}

// Apply writes the command into the view state.
func (c Command) Apply(state *view.State) {
	switch c.Type {
	case SetFilter:
		state.SetFilter(c.Filter)
	case SetSearchQuery:
		state.SetSearchQuery(c.Value)
	case SetSortBy:
		state.SetSortBy(c.SortBy)
	}
}

func EncodeCommand(kind, value string) ([]byte, error) {
	return json.Marshal(Command{Type: kind, Value: value})
}

func EncodeView(frame dashboard.Frame) ([]byte, error) {
	return json.Marshal(Envelope{Type: ViewFrame, View: &frame})
}

func EncodeError(err error) ([]byte, error) {
	return json.Marshal(Envelope{Type: ErrorFrame, Error: err.Error()})
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	switch env.Type {
	case ViewFrame:
		if env.View == nil {
			return Envelope{}, fmt.Errorf("malformed frame: view frame without payload")
		}
	case ErrorFrame:
	default:
		return Envelope{}, fmt.Errorf("malformed frame: unknown type %q", env.Type)
	}
	return env, nil
}

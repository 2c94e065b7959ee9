package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var inboundFactories = map[EventName]func() Inbound{
	EventUserAuthenticated: func() Inbound { return &UserAuthenticated{} },
	EventJoinProject:       func() Inbound { return &JoinProject{} },
	EventLeaveProject:      func() Inbound { return &LeaveProject{} },
	EventCodeChange:        func() Inbound { return &CodeChange{} },
	EventCreateFile:        func() Inbound { return &CreateFile{} },
	EventCreateFolder:      func() Inbound { return &CreateFolder{} },
	EventJoinChat:          func() Inbound { return &JoinChat{} },
	EventLeaveChat:         func() Inbound { return &LeaveChat{} },
	EventSendMessage:       func() Inbound { return &SendMessage{} },
	EventTyping:            func() Inbound { return &Typing{} },
	EventUserLogout:        func() Inbound { return &UserLogout{} },
}

// Decode parses one inbound frame {"event": ..., "data": ...} into its typed
// payload and validates it. The returned value is a pointer to one of the
// inbound payload structs.
func Decode(frame []byte) (Inbound, error) {
	if !gjson.ValidBytes(frame) {
		return nil, ErrMalformedFrame
	}
	name := gjson.GetBytes(frame, "event")
	if name.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedFrame)
	}

	factory, ok := inboundFactories[EventName(name.Str)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name.Str)
	}
	payload := factory()

	data := gjson.GetBytes(frame, "data")
	if data.Exists() && data.Type != gjson.Null {
		if !data.IsObject() {
			return nil, fmt.Errorf("%w: %s data must be an object", ErrInvalidPayload, name.Str)
		}
		if err := json.Unmarshal([]byte(data.Raw), payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, name.Str, err)
		}
	}

	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, name.Str, err)
	}
	return payload, nil
}

// Event is an outbound frame.
type Event struct {
	Name EventName
	Data any
}

func NewEvent(name EventName, data any) Event {
	return Event{Name: name, Data: data}
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event EventName `json:"event"`
		Data  any       `json:"data"`
	}{e.Name, e.Data})
}

// Encode renders the frame bytes for an outbound event.
func Encode(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Name, err)
	}
	return b, nil
}

package notify

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is the wire entity carried by the queue. It is immutable once
// published; the consumer treats it as an opaque unit of work correlated
// only by its content.
type Message struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ErrPoisonMessage marks a payload that can never be processed regardless
// of redelivery: invalid JSON or a required field missing. Poison messages
// are acknowledged and dropped, never requeued.
var ErrPoisonMessage = errors.New("notify: poison message")

// Encode serializes the message for publishing.
func (m Message) Encode() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses a queue payload. Any structural defect is reported as
// ErrPoisonMessage so the consumer can discard it.
func Decode(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrPoisonMessage, err)
	}
	if err := m.validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (m Message) validate() error {
	switch {
	case m.Email == "":
		return fmt.Errorf("%w: missing email", ErrPoisonMessage)
	case m.Subject == "":
		return fmt.Errorf("%w: missing subject", ErrPoisonMessage)
	case m.Message == "":
		return fmt.Errorf("%w: missing message", ErrPoisonMessage)
	}
	return nil
}

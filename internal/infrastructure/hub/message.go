package hub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// DecodeError reports an inbound frame that is not a JSON document.
type DecodeError struct {
	ConnectionID string
	Size         int
	Err          error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame from %s (%d bytes): %v", e.ConnectionID, e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Message is one relayed payload. Only Data goes on the wire; ID and Sender are
// kept for logging and for excluding the sender from fan-out.
type Message struct {
	ID     string
	Sender string
	Data   any

	once    sync.Once
	encoded []byte
	err     error
}

// NewMessage wraps server-originated data.
func NewMessage(data any) *Message {
	return &Message{ID: uuid.NewString(), Data: data}
}

// DecodeMessage parses raw as a single JSON document sent by sender.
func DecodeMessage(sender string, raw []byte) (*Message, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, &DecodeError{ConnectionID: sender, Size: len(raw), Err: err}
	}
	// More reports false before a stray '}' or ']', so require a clean EOF.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{ConnectionID: sender, Size: len(raw), Err: fmt.Errorf("trailing data after JSON document")}
	}

	return &Message{ID: uuid.NewString(), Sender: sender, Data: data}, nil
}

// Bytes returns the JSON encoding of Data. It is computed once per message and
// shared by every recipient.
func (m *Message) Bytes() ([]byte, error) {
	m.once.Do(func() {
		if raw, ok := m.Data.(json.RawMessage); ok {
			m.encoded = raw
			return
		}
		m.encoded, m.err = json.Marshal(m.Data)
	})
	return m.encoded, m.err
}

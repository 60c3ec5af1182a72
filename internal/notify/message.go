package notify

import (
	"bytes"
	"encoding/json"
)

// TypeLoRaMessage tags payloads carrying a received radio message.
const TypeLoRaMessage = "loraMessage"

// Message is the JSON envelope pushed to clients.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encode renders m without HTML escaping and without a trailing newline.
func (m Message) Encode() []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Two string fields cannot fail to encode.
	_ = enc.Encode(m)
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// LoRaMessage builds the payload announcing a received radio message.
func LoRaMessage(text string) []byte {
	return Message{Type: TypeLoRaMessage, Message: text}.Encode()
}

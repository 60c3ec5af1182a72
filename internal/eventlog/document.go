package eventlog

import (
	"bytes"
	"encoding/json"
)

// Entry is the wire shape of one record as served to clients.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	SrcIP     string `json:"srcIp"`
	DestIP    string `json:"destIp"`
}

// Document is an ordered list of entries, oldest first.
type Document []Entry

// entryOverhead is the size of an Entry with all fields empty, plus a comma.
const entryOverhead = len(`{"timestamp":"","type":"","message":"","srcIp":"","destIp":""},`)

// Render converts records to their wire shape. An empty input yields an empty,
// non-nil document so it encodes as [] rather than null.
func Render(records []Record) Document {
	doc := make(Document, 0, len(records))
	for _, r := range records {
		doc = append(doc, Entry{
			Timestamp: r.Timestamp,
			Type:      r.Category.String(),
			Message:   r.Message,
			SrcIP:     r.Source,
			DestIP:    r.Destination,
		})
	}
	return doc
}

// EstimateSize returns the encoded size of records assuming no escaping.
func EstimateSize(records []Record) int {
	n := 2
	for _, r := range records {
		n += entryOverhead + len(r.Timestamp) + len(r.Category.String()) +
			len(r.Message) + len(r.Source) + len(r.Destination)
	}
	return n
}

// MaxDocumentSize bounds the unescaped encoded size of a full log whose
// fields are at most maxField bytes each.
func MaxDocumentSize(capacity, maxField int) int {
	return 2 + capacity*(entryOverhead+5*maxField)
}

// RenderJSON encodes records as a JSON array into a pre-sized buffer.
func RenderJSON(records []Record) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, EstimateSize(records)+1))
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Render(records)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

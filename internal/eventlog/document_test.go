package eventlog

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

func TestRenderEmptyIsArray(t *testing.T) {
	b, err := RenderJSON(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("empty render = %q, want []", b)
	}
}

func TestRenderFieldMapping(t *testing.T) {
	doc := Render([]Record{{Seq: 1, Category: Transport, Message: "m", Source: "s", Destination: "d", Timestamp: fixedTS}})
	want := Entry{Timestamp: fixedTS, Type: "HTTP", Message: "m", SrcIP: "s", DestIP: "d"}
	if len(doc) != 1 || doc[0] != want {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestRenderJSONGolden(t *testing.T) {
	l := newTestLog(t, 3)
	l.System("LoRa initialized successfully.")
	l.Transport("10.0.0.5", "10.0.0.1", "200 OK - /ajax?action=get_logs")
	l.Radio("Received LoRa message: <hi> & bye")

	b, err := RenderJSON(l.Snapshot())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	g := goldie.New(t)
	g.Assert(t, "document", b)
}

func TestEstimateSizeBounds(t *testing.T) {
	recs := []Record{
		{Category: System, Message: "abc", Timestamp: fixedTS},
		{Category: Transport, Message: "def", Source: "1.1.1.1", Destination: "2.2.2.2", Timestamp: fixedTS},
	}
	b, err := RenderJSON(recs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// no escaping needed, so the estimate is exact up to the trailing comma
	if est := EstimateSize(recs); est < len(b) || est > len(b)+1 {
		t.Fatalf("estimate %d vs actual %d", est, len(b))
	}
	if max := MaxDocumentSize(2, len(fixedTS)); max < len(b) {
		t.Fatalf("max %d < actual %d", max, len(b))
	}
}

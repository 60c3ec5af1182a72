package controllers

import "github.com/rzbill/lorabridge/internal/eventlog"

// eventJSON is one record in API responses: the dashboard entry plus its seq.
type eventJSON struct {
	Seq uint64 `json:"seq"`
	eventlog.Entry
}

func toEventJSON(r eventlog.Record) eventJSON {
	return eventJSON{Seq: r.Seq, Entry: eventlog.Render([]eventlog.Record{r})[0]}
}

type listEventsResp struct {
	Events  []eventJSON `json:"events"`
	LastSeq uint64      `json:"lastSeq"`
}

// settingsReq mirrors settings.Settings with optional fields for partial updates.
type settingsReq struct {
	DeviceNumber     *int    `json:"deviceNumber"`
	SiteID           *string `json:"siteID"`
	EnableSystemLogs *bool   `json:"enableSystemLogs"`
	EnableHTTPLogs   *bool   `json:"enableHttpLogs"`
	EnableLoRaLogs   *bool   `json:"enableLoRaLogs"`
}

type radioSendReq struct {
	Message string `json:"message"`
}

type radioSendResp struct {
	Frame string `json:"frame"`
}

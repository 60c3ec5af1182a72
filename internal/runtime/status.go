package runtime

import (
	"net"
	"os"
	goruntime "runtime"
	"time"

	"github.com/rzbill/lorabridge/internal/eventlog"
	"github.com/rzbill/lorabridge/internal/radio"
)

// Status is the device status report.
type Status struct {
	Uptime      int64          `json:"uptime"`
	CurrentTime string         `json:"currentTime"`
	TimeZone    string         `json:"timeZone"`
	NTPSynced   bool           `json:"ntpSynced"`
	Hostname    string         `json:"hostname"`
	Addresses   []string       `json:"addresses"`
	HeapAlloc   uint64         `json:"heapAlloc"`
	Goroutines  int            `json:"goroutines"`
	GoVersion   string         `json:"goVersion"`
	Boots       uint64         `json:"boots"`
	WSClients   int            `json:"wsClients"`
	Radio       radio.Stats    `json:"radio"`
	Events      eventlog.Stats `json:"events"`
}

// Status collects the current status report.
func (r *Runtime) Status() Status {
	var ms goruntime.MemStats
	goruntime.ReadMemStats(&ms)
	host, _ := os.Hostname()
	return Status{
		Uptime:      int64(time.Since(r.started) / time.Second),
		CurrentTime: r.clock.Formatted(),
		TimeZone:    r.clock.ZoneName(),
		NTPSynced:   r.clock.Synced(),
		Hostname:    host,
		Addresses:   localAddresses(),
		HeapAlloc:   ms.HeapAlloc,
		Goroutines:  goruntime.NumGoroutine(),
		GoVersion:   goruntime.Version(),
		Boots:       r.boots,
		WSClients:   r.hub.Count(),
		Radio:       r.radio.Stats(),
		Events:      r.events.Stats(),
	}
}

// localAddresses lists non-loopback unicast IPs.
func localAddresses() []string {
	out := []string{}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return out
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() || ipn.IP.IsLinkLocalUnicast() {
			continue
		}
		out = append(out, ipn.IP.String())
	}
	return out
}

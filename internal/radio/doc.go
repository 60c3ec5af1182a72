// Package radio bridges the LoRa transceiver to the rest of the gateway.
//
// A Transceiver is the driver for one physical or emulated modem. The Service
// owns it: Init brings the modem up, Run polls for frames and dispatches those
// addressed to this site, and Send transmits site-scoped frames.
//
// Frames on air are "<siteID>:<message>". Received frames for other sites are
// ignored.
package radio

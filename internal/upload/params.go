// Package upload buffers tracker parameter sets and delivers them with a
// fixed pool of workers. Delivery is best-effort: failures are logged and
// the item is dropped, never retried.
package upload

import "net/url"

// Params is a flat parameter set destined for the tracker. Every key is one
// the tracker recognizes (vehicle, lat, lon, alt, time, heading, speed, seq,
// data, pass, callsign); unrecognized source attributes travel JSON-encoded
// inside the "data" value. Params are immutable once enqueued.
type Params map[string]string

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Encode renders the parameters as a URL query string. Values pass through
// url.Values so the JSON side-channel field survives its structural
// characters intact.
func (p Params) Encode() string {
	v := url.Values{}
	for k, val := range p {
		v.Set(k, val)
	}
	return v.Encode()
}

// Package mapper transforms telemetry events into tracker parameter sets.
//
// The mapping is pure: given an event (and, for vehicle positions, the
// contributors to fan out over) it produces zero or more upload.Params and
// touches no shared state.
package mapper

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/telemetry"
	"github.com/banshee-data/skyrelay/internal/units"
	"github.com/banshee-data/skyrelay/internal/upload"
)

// invalidFlag marks records whose data failed validation upstream and must
// not be forwarded.
const invalidFlag = "_fix_invalid"

// chaseSuffix is appended to observer callsigns lacking a mobile marker so
// the tracker renders the vehicle icon.
const chaseSuffix = "_chase"

// vehicleFields maps tracker parameter names to vehicle-position attribute
// names copied over the defaults when present.
var vehicleFields = map[string]string{
	"vehicle": "name",
	"lat":     "latitude",
	"lon":     "longitude",
	"alt":     "altitude",
	"time":    "time",
	"heading": "heading",
	"speed":   "speed",
	"seq":     "sequence",
}

// observerFields maps tracker parameter names to observer-position
// attribute names copied directly.
var observerFields = map[string]string{
	"lat": "latitude",
	"lon": "longitude",
	"alt": "altitude",
}

// Mapper builds tracker parameter sets from feed events.
type Mapper struct {
	// Token is the tracker's fixed authentication token, sent as the
	// "pass" parameter on every upload.
	Token string
}

// New creates a Mapper with the given authentication token.
func New(token string) *Mapper {
	return &Mapper{Token: token}
}

// InvalidData reports whether the event is flagged as carrying invalid,
// unfixable data and must be skipped before it touches the dedup cache.
func (m *Mapper) InvalidData(ev telemetry.Event) bool {
	v, ok := ev.Attr(invalidFlag)
	return ok && v.Truthy()
}

// Vehicle builds one parameter set per contributor for a vehicle-position
// event. Callers are expected to have filtered the contributor list through
// the dedup cache; fan-out is per new contributor, not per event.
//
// Unlocated vehicles keep the default coordinates, a spot chosen to sit
// somewhere inert on the map rather than stack on top of live traffic.
func (m *Mapper) Vehicle(ev telemetry.Event, contributors []string) []upload.Params {
	if len(contributors) == 0 {
		return nil
	}

	base := upload.Params{
		"lat":  "32.3",
		"lon":  "-64.8",
		"alt":  "0",
		"time": "00:00:00",
	}
	copyFields(vehicleFields, ev.Attributes, base)

	// Validated upstream as HH:MM:SS; the tracker wants HHMMSS.
	base["time"] = strings.ReplaceAll(base["time"], ":", "")

	base["data"] = residualJSON(ev.Attributes)
	base["pass"] = m.Token

	out := make([]upload.Params, 0, len(contributors))
	for _, callsign := range contributors {
		p := base.Clone()
		p["callsign"] = callsign
		out = append(out, p)
	}
	return out
}

// Observer builds the single parameter set for an observer-position event.
// ok is false when the event is ineligible (not a chase observer, missing
// callsign, unparseable creation time) and nothing should be uploaded.
func (m *Mapper) Observer(ev telemetry.Event) (p upload.Params, ok bool) {
	if chase, found := ev.Attr("chase"); !found || !chase.Truthy() {
		return nil, false
	}

	callsignAttr, found := ev.Attr("callsign")
	if !found {
		monitoring.Logf("observer %s: no callsign, skipping", ev.ID)
		return nil, false
	}
	callsign, isStr := callsignAttr.Str()
	if !isStr || callsign == "" {
		monitoring.Logf("observer %s: callsign not a string, skipping", ev.ID)
		return nil, false
	}
	if !strings.Contains(callsign, "chase") && !strings.Contains(callsign, "car") {
		callsign += chaseSuffix
	}

	p = upload.Params{"vehicle": callsign}
	copyFields(observerFields, ev.Attributes, p)

	if speedAttr, found := ev.Attr("speed"); found {
		if mps, isNum := speedAttr.Float(); isNum {
			kph := units.ConvertSpeed(mps, units.KPH)
			p["speed"] = strconv.FormatFloat(kph, 'g', -1, 64)
		}
	}

	created, err := time.Parse(time.RFC3339, ev.CreatedAt)
	if err != nil {
		monitoring.Logf("observer %s: bad created time %q: %v", ev.ID, ev.CreatedAt, err)
		return nil, false
	}
	p["time"] = created.UTC().Format("150405")

	p["pass"] = m.Token
	return p, true
}

// copyFields copies the mapped attributes into params when present,
// formatting each as a scalar string. Missing attributes keep whatever
// default is already in params or stay absent.
func copyFields(fields map[string]string, attrs map[string]telemetry.Value, params upload.Params) {
	for target, source := range fields {
		v, found := attrs[source]
		if !found {
			continue
		}
		if s, scalar := formatScalar(v); scalar {
			params[target] = s
		}
	}
}

// formatScalar renders an attribute as the string the tracker query string
// will carry. Nested maps and lists are JSON-encoded; nulls are omitted.
func formatScalar(v telemetry.Value) (string, bool) {
	switch v.Kind() {
	case telemetry.KindString:
		s, _ := v.Str()
		return s, true
	case telemetry.KindNumber:
		lit, _ := v.Literal()
		return lit, true
	case telemetry.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b), true
	case telemetry.KindMap, telemetry.KindList:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(raw), true
	default:
		return "", false
	}
}

// residualJSON gathers every attribute not consumed by the fixed field list
// and not internal-prefixed into a single JSON object, with all floats
// converted to strings first so downstream serialization can't truncate
// their precision.
func residualJSON(attrs map[string]telemetry.Value) string {
	consumed := make(map[string]struct{}, len(vehicleFields))
	for _, source := range vehicleFields {
		consumed[source] = struct{}{}
	}

	residual := make(map[string]telemetry.Value)
	for key, v := range attrs {
		if _, used := consumed[key]; used {
			continue
		}
		if strings.HasPrefix(key, "_") {
			continue
		}
		residual[key] = floatsToStrings(v)
	}

	raw, err := json.Marshal(telemetry.Map(residual))
	if err != nil {
		monitoring.Logf("residual encode failed: %v", err)
		return "{}"
	}
	return string(raw)
}

// floatsToStrings walks a value and replaces every float with its shortest
// round-trippable decimal string. Integer literals pass through unchanged.
func floatsToStrings(v telemetry.Value) telemetry.Value {
	switch v.Kind() {
	case telemetry.KindMap:
		m, _ := v.Map()
		out := make(map[string]telemetry.Value, len(m))
		for k, e := range m {
			out[k] = floatsToStrings(e)
		}
		return telemetry.Map(out)
	case telemetry.KindList:
		l, _ := v.List()
		out := make([]telemetry.Value, len(l))
		for i, e := range l {
			out[i] = floatsToStrings(e)
		}
		return telemetry.List(out)
	case telemetry.KindNumber:
		if !v.IsFloat() {
			return v
		}
		f, _ := v.Float()
		return telemetry.String(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		return v
	}
}

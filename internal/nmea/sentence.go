package nmea

import (
	"math"
	"strconv"
	"strings"
)

// Channel identifies one canonical numeric series produced by the decoder.
type Channel int

const (
	ChannelTWS       Channel = iota // true wind speed, knots
	ChannelTWA                      // true wind angle, degrees in [0,180]
	ChannelSTW                      // speed through water, knots
	ChannelHeading                  // degrees
	ChannelRPM                      // engine revolutions per minute
	ChannelVoltage                  // battery bus volts
	ChannelDepth                    // meters
	ChannelSOG                      // speed over ground, knots
	ChannelCOG                      // course over ground, degrees
	ChannelWaterTemp                // Celsius

	channelCount
)

// Field is one decoded scalar bound to its channel.
type Field struct {
	Channel Channel
	Value   float64
}

const (
	kmhToKnots = 1.0 / 1.852
	msToKnots  = 3600.0 / 1852.0
)

// Decode turns one raw sentence line into zero or more channel fields.
//
// Decoding is total and strictly line-local: unknown types, short
// sentences, non-numeric fields and failed validity flags all yield an
// empty result. Multiplexers emit unsupported and garbled sentences as
// steady-state noise, so none of that is an error.
//
// Speeds are normalized to knots and the wind angle to the unsigned
// [0,180] sailing convention before anything leaves this function; no
// raw unit crosses into the accumulator.
func Decode(line string) []Field {
	typ, f, ok := splitSentence(line)
	if !ok {
		return nil
	}
	switch typ {
	case "MWV":
		return decodeMWV(f)
	case "VHW":
		return decodeVHW(f)
	case "HDT", "HDM":
		return decodeHeadingSentence(f)
	case "RPM":
		return decodeRPM(f)
	case "XDR":
		return decodeXDR(f)
	case "DPT":
		return decodeDPT(f)
	case "DBT":
		return decodeDBT(f)
	case "RMC":
		return decodeRMC(f)
	case "MTW":
		return decodeMTW(f)
	default:
		// Recognized-but-unhandled and wholly unknown types are a no-op.
		return nil
	}
}

// splitSentence strips the start marker and any checksum suffix and
// splits the payload on commas. The checksum itself is not validated;
// garbled sentences get dropped at the field level instead.
func splitSentence(line string) (string, []string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || (line[0] != '$' && line[0] != '!') {
		return "", nil, false
	}
	payload := line[1:]
	if star := strings.LastIndexByte(payload, '*'); star != -1 {
		payload = payload[:star]
	}
	f := strings.Split(payload, ",")
	head := f[0]
	if len(head) < 3 {
		return "", nil, false
	}
	// Talker IDs vary by instrument (WI, GP, II, ...); only the trailing
	// 3-letter type code matters.
	return strings.ToUpper(head[len(head)-3:]), f, true
}

// MWV: Wind Speed and Angle.
//
//	1: wind angle (deg)
//	2: reference (R=relative, T=true)
//	3: wind speed
//	4: speed unit (K=km/h, M=m/s, N=knots)
//	5: status (A=valid)
//
// Only true-referenced, valid readings count; apparent wind is the
// instrument's job to resolve, not ours.
func decodeMWV(f []string) []Field {
	if len(f) < 6 {
		return nil
	}
	if strings.TrimSpace(f[2]) != "T" {
		return nil
	}
	if strings.TrimSpace(f[5]) != "A" {
		return nil
	}
	var out []Field
	if angle, ok := parseFloat(f[1]); ok {
		out = append(out, Field{ChannelTWA, foldAngle(angle)})
	}
	if speed, ok := parseFloat(f[3]); ok {
		if kn, ok := toKnots(speed, f[4]); ok {
			out = append(out, Field{ChannelTWS, kn})
		}
	}
	return out
}

// VHW: Water Speed and Heading.
//
//	1: heading true (deg), 2: T
//	3: heading magnetic (deg), 4: M
//	5: speed through water (knots), 6: N
//	7: speed through water (km/h), 8: K
//
// Heading and STW push independently; some logs carry only the km/h
// speed field, which is converted rather than lost.
func decodeVHW(f []string) []Field {
	var out []Field
	if len(f) > 1 {
		if hdg, ok := parseFloat(f[1]); ok {
			out = append(out, Field{ChannelHeading, hdg})
		}
	}
	if len(f) > 5 {
		if stw, ok := parseFloat(f[5]); ok {
			out = append(out, Field{ChannelSTW, stw})
		} else if len(f) > 7 {
			if kmh, ok := parseFloat(f[7]); ok {
				out = append(out, Field{ChannelSTW, kmh * kmhToKnots})
			}
		}
	}
	return out
}

// HDT/HDM: True/Magnetic Heading. Both write the same heading channel;
// the reference frame is not retained.
func decodeHeadingSentence(f []string) []Field {
	if len(f) < 2 {
		return nil
	}
	hdg, ok := parseFloat(f[1])
	if !ok {
		return nil
	}
	return []Field{{ChannelHeading, hdg}}
}

// RPM: Revolutions.
//
//	1: source (S=shaft, E=engine)
//	2: source number
//	3: revolutions per minute
func decodeRPM(f []string) []Field {
	if len(f) < 4 {
		return nil
	}
	v, ok := parseFloat(f[3])
	if !ok {
		return nil
	}
	return []Field{{ChannelRPM, v}}
}

// XDR: Transducer Measurements, a repeating (type, value, unit, name)
// group starting at field 1. Engine blocks multiplex all kinds of
// senders onto XDR; only voltage transducers ("U") whose name looks
// like a battery bus are interesting.
func decodeXDR(f []string) []Field {
	var out []Field
	for i := 1; i+3 < len(f); i += 4 {
		if strings.ToUpper(strings.TrimSpace(f[i])) != "U" {
			continue
		}
		if !batteryName(f[i+3]) {
			continue
		}
		if v, ok := parseFloat(f[i+1]); ok {
			out = append(out, Field{ChannelVoltage, v})
		}
	}
	return out
}

func batteryName(name string) bool {
	name = strings.ToUpper(name)
	return strings.Contains(name, "BATT") ||
		strings.Contains(name, "VOLT") ||
		strings.Contains(name, "ALT")
}

// DPT: Depth of Water. Field 1 is meters below the transducer.
func decodeDPT(f []string) []Field {
	if len(f) < 2 {
		return nil
	}
	d, ok := parseFloat(f[1])
	if !ok {
		return nil
	}
	return []Field{{ChannelDepth, d}}
}

// DBT: Depth Below Transducer. Field 3 carries the meters reading;
// the feet and fathom fields are ignored.
func decodeDBT(f []string) []Field {
	if len(f) < 4 {
		return nil
	}
	d, ok := parseFloat(f[3])
	if !ok {
		return nil
	}
	return []Field{{ChannelDepth, d}}
}

// RMC: Recommended Minimum Specific GNSS Data.
//
//	2: status (A=active, V=void)
//	7: speed over ground (knots)
//	8: course over ground (deg)
//
// Void fixes push nothing; SOG and COG push independently.
func decodeRMC(f []string) []Field {
	if len(f) < 9 {
		return nil
	}
	if strings.TrimSpace(f[2]) != "A" {
		return nil
	}
	var out []Field
	if sog, ok := parseFloat(f[7]); ok {
		out = append(out, Field{ChannelSOG, sog})
	}
	if cog, ok := parseFloat(f[8]); ok {
		out = append(out, Field{ChannelCOG, cog})
	}
	return out
}

// MTW: Mean Temperature of Water, Celsius.
func decodeMTW(f []string) []Field {
	if len(f) < 2 {
		return nil
	}
	v, ok := parseFloat(f[1])
	if !ok {
		return nil
	}
	if len(f) > 2 {
		unit := strings.ToUpper(strings.TrimSpace(f[2]))
		if unit != "" && unit != "C" {
			return nil
		}
	}
	return []Field{{ChannelWaterTemp, v}}
}

// foldAngle maps any angle onto [0,180], reflecting port-side angles.
func foldAngle(a float64) float64 {
	a = math.Mod(a, 360.0)
	if a < 0 {
		a += 360.0
	}
	if a > 180.0 {
		a = 360.0 - a
	}
	return a
}

func toKnots(v float64, unit string) (float64, bool) {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "N":
		return v, true
	case "K":
		return v * kmhToKnots, true
	case "M":
		return v * msToKnots, true
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

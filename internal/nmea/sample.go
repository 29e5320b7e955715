package nmea

import "time"

// Sample is one aggregation-window reduction. It is immutable once
// built; the service hands it to subscribers and does not retain it.
//
// Every value field is the window mean of that channel, absent when
// the channel saw no observations.
type Sample struct {
	// Timestamp is epoch milliseconds of the tick that produced the sample.
	Timestamp int64 `json:"timestamp"`

	TWS       *float64 `json:"tws,omitempty"`       // knots
	TWA       *float64 `json:"twa,omitempty"`       // degrees, 0-180
	STW       *float64 `json:"stw,omitempty"`       // knots
	Heading   *float64 `json:"heading,omitempty"`   // degrees
	RPM       *float64 `json:"rpm,omitempty"`
	Voltage   *float64 `json:"voltage,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`     // meters
	SOG       *float64 `json:"sog,omitempty"`       // knots
	COG       *float64 `json:"cog,omitempty"`       // degrees
	WaterTemp *float64 `json:"waterTemp,omitempty"` // Celsius
}

func newSample(now time.Time, means map[Channel]float64) Sample {
	s := Sample{Timestamp: now.UnixMilli()}
	set := func(ch Channel, dst **float64) {
		if v, ok := means[ch]; ok {
			val := v
			*dst = &val
		}
	}
	set(ChannelTWS, &s.TWS)
	set(ChannelTWA, &s.TWA)
	set(ChannelSTW, &s.STW)
	set(ChannelHeading, &s.Heading)
	set(ChannelRPM, &s.RPM)
	set(ChannelVoltage, &s.Voltage)
	set(ChannelDepth, &s.Depth)
	set(ChannelSOG, &s.SOG)
	set(ChannelCOG, &s.COG)
	set(ChannelWaterTemp, &s.WaterTemp)
	return s
}

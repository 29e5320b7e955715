package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMap(fields []Field) map[Channel]float64 {
	out := make(map[Channel]float64, len(fields))
	for _, f := range fields {
		out[f.Channel] = f.Value
	}
	return out
}

func TestDecode_WindSpeedUnits(t *testing.T) {
	tests := []struct {
		name string
		line string
		want float64
	}{
		{"kmh", "$WIMWV,045.0,T,10.0,K,A*7F", 5.4},
		{"ms", "$WIMWV,045.0,T,10.0,M,A*7F", 19.4},
		{"knots", "$WIMWV,045.0,T,10.0,N,A*7F", 10.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldMap(Decode(tt.line))
			require.Contains(t, got, ChannelTWS)
			assert.InDelta(t, tt.want, got[ChannelTWS], 0.05)
		})
	}
}

func TestDecode_WindAngleFolding(t *testing.T) {
	tests := []struct {
		angle string
		want  float64
	}{
		{"045.0", 45},
		{"180.0", 180},
		{"270.0", 90},
		{"315.0", 45},
		{"359.0", 1},
		{"0.0", 0},
	}
	for _, tt := range tests {
		got := fieldMap(Decode("$WIMWV," + tt.angle + ",T,12.0,N,A*00"))
		require.Contains(t, got, ChannelTWA, "angle %s", tt.angle)
		assert.InDelta(t, tt.want, got[ChannelTWA], 0.001, "angle %s", tt.angle)
	}
}

func TestDecode_WindValidityGating(t *testing.T) {
	// Relative reference: nothing pushes even though the fields parse.
	assert.Empty(t, Decode("$WIMWV,045.0,R,12.0,N,A*00"))
	// Void status.
	assert.Empty(t, Decode("$WIMWV,045.0,T,12.0,N,V*00"))
}

func TestDecode_VHW(t *testing.T) {
	// Knots field only, headings blank. Checksum is a literal "hh" and
	// must not matter.
	got := fieldMap(Decode("$GPVHW,,T,,M,8.3,N,,K*hh"))
	require.Contains(t, got, ChannelSTW)
	assert.InDelta(t, 8.3, got[ChannelSTW], 0.001)
	assert.NotContains(t, got, ChannelHeading)

	// True heading and STW push independently.
	got = fieldMap(Decode("$IIVHW,215.0,T,,M,6.1,N,11.3,K*00"))
	assert.InDelta(t, 215.0, got[ChannelHeading], 0.001)
	assert.InDelta(t, 6.1, got[ChannelSTW], 0.001)

	// Only the km/h speed present: converted, not lost.
	got = fieldMap(Decode("$IIVHW,,T,,M,,N,10.0,K*00"))
	require.Contains(t, got, ChannelSTW)
	assert.InDelta(t, 5.4, got[ChannelSTW], 0.05)
}

func TestDecode_Heading(t *testing.T) {
	got := fieldMap(Decode("$HEHDT,231.5,T*2E"))
	assert.InDelta(t, 231.5, got[ChannelHeading], 0.001)

	// Magnetic heading writes the same channel; no frame tag survives.
	got = fieldMap(Decode("$HCHDM,229.0,M*00"))
	assert.InDelta(t, 229.0, got[ChannelHeading], 0.001)
}

func TestDecode_RPM(t *testing.T) {
	got := fieldMap(Decode("$ERRPM,E,1,1850.0,10.5,A*00"))
	require.Contains(t, got, ChannelRPM)
	assert.InDelta(t, 1850.0, got[ChannelRPM], 0.001)

	assert.Empty(t, Decode("$ERRPM,E,1,,,A*00"))
}

func TestDecode_XDR(t *testing.T) {
	// Two transducer groups; only the battery voltage one counts.
	got := fieldMap(Decode("$IIXDR,U,12.6,V,BATTERY1,C,25.0,C,ENGINE*00"))
	require.Contains(t, got, ChannelVoltage)
	assert.InDelta(t, 12.6, got[ChannelVoltage], 0.001)
	assert.NotContains(t, got, ChannelWaterTemp)

	// Voltage transducer with an unrelated name: ignored.
	assert.Empty(t, Decode("$IIXDR,U,13.1,V,FRIDGE*00"))

	// Alternator keyword matches.
	got = fieldMap(Decode("$IIXDR,U,14.2,V,ALTERNATOR*00"))
	assert.InDelta(t, 14.2, got[ChannelVoltage], 0.001)
}

func TestDecode_Depth(t *testing.T) {
	got := fieldMap(Decode("$SDDPT,12.3,0.5*00"))
	assert.InDelta(t, 12.3, got[ChannelDepth], 0.001)

	// DBT carries feet, meters, fathoms; the meters field wins.
	got = fieldMap(Decode("$SDDBT,40.4,f,12.3,M,6.7,F*00"))
	assert.InDelta(t, 12.3, got[ChannelDepth], 0.001)
}

func TestDecode_RMC(t *testing.T) {
	got := fieldMap(Decode("$GPRMC,123519,A,4807.038,N,01131.000,E,5.2,084.4,230394,003.1,W*6A"))
	assert.InDelta(t, 5.2, got[ChannelSOG], 0.001)
	assert.InDelta(t, 84.4, got[ChannelCOG], 0.001)

	// Void fix pushes nothing.
	assert.Empty(t, Decode("$GPRMC,123519,V,4807.038,N,01131.000,E,5.2,084.4,230394,003.1,W*00"))
}

func TestDecode_WaterTemp(t *testing.T) {
	got := fieldMap(Decode("$YXMTW,18.4,C*00"))
	assert.InDelta(t, 18.4, got[ChannelWaterTemp], 0.001)
}

func TestDecode_NoiseIsSilent(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"garbage without a start marker",
		"$",
		"$GP",
		"$GPGLL,4916.45,N,12311.12,W,225444,A*1D", // recognized bus traffic, unhandled
		"$GPGSV,2,1,08,01,40,083,46*00",
		"$WIMWV,abc,T,def,N,A*00", // non-numeric fields
		"$WIMWV,045.0,T*00",       // wrong arity
		"!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24", // AIS, out of scope
	}
	for _, line := range lines {
		assert.Empty(t, Decode(line), "line %q", line)
	}
}

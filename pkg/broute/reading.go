package broute

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// The meter reports civil time in JST.
var meterTimezone = time.FixedZone("JST", 9*60*60)

// MeterReading is one snapshot of the meter's instantaneous and cumulative
// values. Every field is independently optional: nil means the property was
// absent or unparseable in the response, which is not an error.
type MeterReading struct {
	InstantPowerWatts    *int32
	InstantCurrentAmps   *float64
	InstantVoltageVolts  *float64
	CumulativeForwardKWh *float64
	CumulativeReverseKWh *float64
}

// ExtractReading folds the properties of one response frame into a reading.
// Unknown property codes are ignored.
func ExtractReading(frame *Frame, logger *zap.Logger) *MeterReading {
	reading := &MeterReading{}
	for _, prop := range frame.Properties {
		reading.apply(prop, logger)
	}
	return reading
}

func (r *MeterReading) apply(prop Property, logger *zap.Logger) {
	switch prop.EPC {
	case EPCInstantPower:
		if len(prop.EDT) == 4 {
			watts := int32(binary.BigEndian.Uint32(prop.EDT))
			r.InstantPowerWatts = &watts
		}
	case EPCInstantCurrent:
		// two phase currents in 0.1 A units, reported combined
		if len(prop.EDT) == 4 {
			phase1 := float64(binary.BigEndian.Uint16(prop.EDT[0:2])) / 10.0
			phase2 := float64(binary.BigEndian.Uint16(prop.EDT[2:4])) / 10.0
			amps := phase1 + phase2
			r.InstantCurrentAmps = &amps
		} else {
			logger.Debug("unexpected E8 format",
				zap.Int("pdc", len(prop.EDT)), zap.Binary("edt", prop.EDT))
		}
	case EPCInstantVoltage:
		// Average of the two phase values, intentionally unscaled: the raw
		// unit reported by meters varies and is passed through as-is.
		if len(prop.EDT) == 4 {
			v1 := float64(binary.BigEndian.Uint16(prop.EDT[0:2]))
			v2 := float64(binary.BigEndian.Uint16(prop.EDT[2:4]))
			volts := (v1 + v2) / 2.0
			r.InstantVoltageVolts = &volts
		} else if len(prop.EDT) == 0 {
			logger.Debug("meter does not support E9 or no voltage data")
		} else {
			logger.Debug("unexpected E9 format",
				zap.Int("pdc", len(prop.EDT)), zap.Binary("edt", prop.EDT))
		}
	case EPCCumulativeForward, EPCCumulativeReverse:
		if len(prop.EDT) < 10 {
			return
		}
		logTimestamp(prop.EPC, prop.EDT, logger)
		if len(prop.EDT) < 11 {
			logger.Debug("cumulative counter truncated",
				zap.Int("pdc", len(prop.EDT)), zap.Binary("edt", prop.EDT))
			return
		}
		// 0.1 kWh resolution
		kwh := float64(binary.BigEndian.Uint32(prop.EDT[7:11])) / 10.0
		if prop.EPC == EPCCumulativeForward {
			r.CumulativeForwardKWh = &kwh
		} else {
			r.CumulativeReverseKWh = &kwh
		}
	}
}

// logTimestamp decodes the civil timestamp embedded ahead of a cumulative
// counter, purely for diagnostics. An invalid calendar date is swallowed so
// the counter value can still be used.
func logTimestamp(epc byte, edt []byte, logger *zap.Logger) {
	year := int(binary.BigEndian.Uint16(edt[0:2]))
	month := time.Month(edt[2])
	day := int(edt[3])
	hour := int(edt[4])
	minute := int(edt[5])
	second := int(edt[6])

	ts := time.Date(year, month, day, hour, minute, second, 0, meterTimezone)
	if ts.Year() != year || ts.Month() != month || ts.Day() != day ||
		ts.Hour() != hour || ts.Minute() != minute || ts.Second() != second {
		return
	}
	logger.Debug("cumulative energy timestamp",
		zap.String("epc", fmt.Sprintf("%02X", epc)),
		zap.Time("measuredAt", ts.UTC()))
}

package broute

func CreateTestMeterReader() (MeterReader, error) {
	return TestMeterReader{}, nil
}

// TestMeterReader is a canned in-memory reader for wiring tests.
type TestMeterReader struct {
}

func (reader TestMeterReader) Connect() error {
	return nil
}

func (reader TestMeterReader) Close() error {
	return nil
}

func (reader TestMeterReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Manufacturer: "ROHM Co., Ltd.",
		Model:        "BP35A1",
	}, nil
}

func (reader TestMeterReader) ReadSnapshot() (*MeterReading, error) {
	power := int32(350)
	current := 15.5
	voltage := 102.0
	forward := 2770.3
	reverse := 550.2
	return &MeterReading{
		InstantPowerWatts:    &power,
		InstantCurrentAmps:   &current,
		InstantVoltageVolts:  &voltage,
		CumulativeForwardKWh: &forward,
		CumulativeReverseKWh: &reverse,
	}, nil
}

package ibus

// AddSensor registers the next virtual sensor and returns its 1-based
// address. The registry saturates at MaxSensors: once full the call is a
// no-op and the unchanged sensor count is returned. Sensors live for the
// lifetime of the Bus and cannot be removed.
func (b *Bus) AddSensor(typ byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sensorCount < MaxSensors {
		b.sensorCount++
		b.sensors[b.sensorCount].Type = typ
	}
	return b.sensorCount
}

// SetSensorValue stores the current measurement for the sensor at the
// given 1-based address. Addresses outside the registered range are a
// no-op.
func (b *Bus) SetSensorValue(addr int, value uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr >= 1 && addr <= b.sensorCount {
		b.sensors[addr].Value = value
	}
}

// SensorCount returns the number of registered sensors.
func (b *Bus) SensorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sensorCount
}

// Sensors returns a snapshot of the registered sensors, index 0 being
// address 1.
func (b *Bus) Sensors() []Sensor {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Sensor, b.sensorCount)
	copy(out, b.sensors[1:1+b.sensorCount])
	return out
}

// reply answers one sensor poll. Called from dispatch with the lock held;
// the reply frame is written straight to the link, there is no queue.
func (b *Bus) reply(cmd byte, addr int) {
	// Line turnaround: the transmitter is still releasing the shared
	// wire when the last request byte arrives.
	b.delay(replyDelay)

	var frame []byte
	switch cmd {
	case CmdDiscover:
		b.counters.Polls++
		frame = []byte{0x04, CmdDiscover | byte(addr)}
	case CmdType:
		frame = []byte{0x06, CmdType | byte(addr), b.sensors[addr].Type, sensorTypeTrailer}
	case CmdValue:
		b.counters.SensorsSent++
		v := b.sensors[addr].Value
		frame = []byte{0x06, CmdValue | byte(addr), byte(v), byte(v >> 8)}
	default:
		// Unrecognized sub-command: no reply, not even a checksum.
		return
	}
	// Write failures are invisible to the remote end anyway; the
	// transmitter just re-polls. Nothing to do with the error here.
	_, _ = b.w.Write(AppendChecksum(frame))
}

package hackrf

import (
	"encoding/binary"
	"math"
)

// Request is a vendor control request code. The numbering is fixed by the
// device firmware and must not be changed.
type Request uint8

const (
	reqSetTransceiverMode         Request = 1
	reqMax2837Write               Request = 2
	reqMax2837Read                Request = 3
	reqSi5351CWrite               Request = 4
	reqSi5351CRead                Request = 5
	reqSampleRateSet              Request = 6
	reqBasebandFilterBandwidthSet Request = 7
	reqRffc5071Write              Request = 8
	reqRffc5071Read               Request = 9
	reqSpiflashErase              Request = 10
	reqSpiflashWrite              Request = 11
	reqSpiflashRead               Request = 12
	reqBoardIDRead                Request = 14
	reqVersionStringRead          Request = 15
	reqSetFreq                    Request = 16
	reqAmpEnable                  Request = 17
	reqBoardPartIDSerialNoRead    Request = 18
	reqSetLNAGain                 Request = 19
	reqSetVGAGain                 Request = 20
	reqSetTXVGAGain               Request = 21
	reqAntennaEnable              Request = 23
	reqSetFreqExplicit            Request = 24
	reqUSBWCIDVendorReq           Request = 25
	reqInitSweep                  Request = 26
	reqOperacakeGetBoards         Request = 27
	reqOperacakeSetPorts          Request = 28
	reqSetHwSyncMode              Request = 29
	reqReset                      Request = 30
	reqOperacakeSetRanges         Request = 31
	reqClkoutEnable               Request = 32
	reqSpiflashStatus             Request = 33
	reqSpiflashClearStatus        Request = 34
	reqOperacakeGpioTest          Request = 35
	reqCPLDChecksum               Request = 36
	reqUIEnable                   Request = 37
)

// Command describes a single vendor control transfer: the request code, the
// 16-bit value and index fields, an optional outbound payload and, for read
// operations, the exact number of response bytes the device is expected to
// return. Commands are built fresh per call and never mutated.
type Command struct {
	Request  Request
	Value    uint16
	Index    uint16
	Data     []byte
	ReplyLen int
}

// freqParams encodes a tuning frequency the way the firmware wants it: a
// little-endian u32 whole-MHz part followed by a little-endian u32 remainder
// in Hz. Values past the u32 fields saturate rather than wrap.
func freqParams(hz uint64) []byte {
	const mhz = 1_000_000

	whole := hz / mhz
	if whole > math.MaxUint32 {
		whole = math.MaxUint32
	}
	rem := hz - whole*mhz
	if rem > math.MaxUint32 {
		rem = math.MaxUint32
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(whole))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(rem))
	return buf
}

func setFreqCommand(hz uint64) Command {
	return Command{Request: reqSetFreq, Data: freqParams(hz)}
}

func sampleRateCommand(hz, div uint32) Command {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], hz)
	binary.LittleEndian.PutUint32(buf[4:8], div)
	return Command{Request: reqSampleRateSet, Data: buf}
}

// filterBandwidthCommand splits the bandwidth across the two 16-bit fields:
// low half in value, high half in index.
func filterBandwidthCommand(hz uint32) Command {
	return Command{
		Request: reqBasebandFilterBandwidthSet,
		Value:   uint16(hz & 0xFFFF),
		Index:   uint16(hz >> 16),
	}
}

func modeCommand(mode TransceiverMode) Command {
	return Command{Request: reqSetTransceiverMode, Value: uint16(mode)}
}

func ampEnableCommand(on bool) Command {
	return Command{Request: reqAmpEnable, Value: boolValue(on)}
}

func antennaEnableCommand(on bool) Command {
	return Command{Request: reqAntennaEnable, Value: boolValue(on)}
}

func clkoutEnableCommand(on bool) Command {
	return Command{Request: reqClkoutEnable, Value: boolValue(on)}
}

func boardIDCommand() Command {
	return Command{Request: reqBoardIDRead, ReplyLen: 1}
}

func versionStringCommand() Command {
	return Command{Request: reqVersionStringRead, ReplyLen: versionStringMaxLen}
}

func boardSerialCommand() Command {
	return Command{Request: reqBoardPartIDSerialNoRead, ReplyLen: 24}
}

func resetCommand() Command {
	return Command{Request: reqReset}
}

func boolValue(on bool) uint16 {
	if on {
		return 1
	}
	return 0
}

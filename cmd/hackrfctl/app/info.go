package app

import (
	"fmt"
	"log/slog"

	"github.com/roman-kulish/hackrf"
	"github.com/roman-kulish/hackrf/usb"
)

// Info opens the device and prints its identity: board type, firmware
// version, API version and serial number.
func Info(logger *slog.Logger, serial string) error {
	transport, err := usb.Open(usb.WithSerial(serial))
	if err != nil {
		return fmt.Errorf("opening device: %w", err)
	}
	defer transport.Close()

	dev := hackrf.New(transport, hackrf.WithLogger(logger))

	boardID, err := dev.ReadBoardID()
	if err != nil {
		return fmt.Errorf("reading board id: %w", err)
	}
	firmware, err := dev.ReadVersion()
	if err != nil {
		return fmt.Errorf("reading firmware version: %w", err)
	}
	boardSerial, err := dev.ReadBoardSerial()
	if err != nil {
		return fmt.Errorf("reading board serial: %w", err)
	}

	fmt.Printf("Board:            %s (id %d)\n", hackrf.BoardName(boardID), boardID)
	fmt.Printf("Firmware:         %s\n", firmware)
	fmt.Printf("USB API version:  %s\n", dev.DeviceVersion())
	fmt.Printf("Part ID:          %08x %08x\n", boardSerial.PartID[0], boardSerial.PartID[1])
	fmt.Printf("Serial number:    %s\n", boardSerial)
	return nil
}

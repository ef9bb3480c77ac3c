// Package usb implements the driver's Transport on top of libusb via
// github.com/google/gousb: device discovery by vendor/product ID, vendor
// control transfers on endpoint zero and bulk reads from the sample endpoint.
package usb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/gousb"

	"github.com/roman-kulish/hackrf"
)

const (
	vendorID  gousb.ID = 0x1d50
	productID gousb.ID = 0x6089

	// Bulk-in endpoint 0x81 carries the sample stream.
	sampleEndpointNum = 1

	defaultTimeout = time.Second
)

// ErrNotFound is returned by Open when no HackRF One is on the bus (or none
// with the requested serial number).
var ErrNotFound = errors.New("usb: no HackRF One found")

// WithTimeout sets the transfer timeout for control and bulk transfers. Zero
// means no deadline; the default is one second.
func WithTimeout(d time.Duration) func(*Transport) {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithSerial selects a specific board by its serial number string when more
// than one is plugged in.
func WithSerial(serial string) func(*Transport) {
	return func(t *Transport) {
		t.serial = serial
	}
}

// Transport is an open HackRF One USB handle implementing hackrf.Transport.
type Transport struct {
	usbCtx    *gousb.Context
	dev       *gousb.Device
	iface     *gousb.Interface
	ifaceDone func()
	in        *gousb.InEndpoint

	timeout time.Duration
	serial  string
	gone    atomic.Bool
	closed  atomic.Bool
}

// Open finds a HackRF One, claims its default interface and prepares the
// sample endpoint. The caller owns the returned handle and must Close it.
func Open(options ...func(*Transport)) (*Transport, error) {
	t := &Transport{timeout: defaultTimeout}
	for _, option := range options {
		option(t)
	}

	t.usbCtx = gousb.NewContext()

	devs, err := t.usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil {
		for _, dev := range devs {
			_ = dev.Close()
		}
		_ = t.usbCtx.Close()
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	for _, dev := range devs {
		if t.dev == nil && t.matches(dev) {
			t.dev = dev
			continue
		}
		_ = dev.Close()
	}
	if t.dev == nil {
		_ = t.usbCtx.Close()
		return nil, ErrNotFound
	}

	t.dev.ControlTimeout = t.timeout

	if t.iface, t.ifaceDone, err = t.dev.DefaultInterface(); err != nil {
		_ = t.dev.Close()
		_ = t.usbCtx.Close()
		return nil, fmt.Errorf("claiming interface: %w", err)
	}
	if t.in, err = t.iface.InEndpoint(sampleEndpointNum); err != nil {
		t.ifaceDone()
		_ = t.dev.Close()
		_ = t.usbCtx.Close()
		return nil, fmt.Errorf("opening sample endpoint: %w", err)
	}

	return t, nil
}

func (t *Transport) matches(dev *gousb.Device) bool {
	if t.serial == "" {
		return true
	}
	serial, err := dev.SerialNumber()
	return err == nil && serial == t.serial
}

// ControlOut performs a host-to-device vendor control transfer.
func (t *Transport) ControlOut(request hackrf.Request, value, index uint16, data []byte) error {
	rType := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
	_, err := t.dev.Control(rType, uint8(request), value, index, data)
	return t.mapErr(err)
}

// ControlIn performs a device-to-host vendor control transfer into buf.
func (t *Transport) ControlIn(request hackrf.Request, value, index uint16, buf []byte) (int, error) {
	rType := uint8(gousb.ControlIn | gousb.ControlVendor | gousb.ControlDevice)
	n, err := t.dev.Control(rType, uint8(request), value, index, buf)
	if err != nil {
		return 0, t.mapErr(err)
	}
	return n, nil
}

// BulkIn reads sample data from the bulk-in endpoint into buf, bounded by the
// transfer timeout.
func (t *Transport) BulkIn(buf []byte) (int, error) {
	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	n, err := t.in.ReadContext(ctx, buf)
	if err != nil {
		return n, t.mapErr(err)
	}
	return n, nil
}

// DeviceVersion returns the bcdDevice field of the device descriptor.
func (t *Transport) DeviceVersion() uint16 {
	return uint16(t.dev.Desc.Device)
}

// SerialNumber returns the board's serial number string descriptor.
func (t *Transport) SerialNumber() (string, error) {
	serial, err := t.dev.SerialNumber()
	if err != nil {
		return "", t.mapErr(err)
	}
	return serial, nil
}

// Connected reports whether the device has been seen on the bus since the
// last transfer. It turns false once any transfer fails with a device-gone
// condition or after Close.
func (t *Transport) Connected() bool {
	return !t.gone.Load() && !t.closed.Load()
}

// Close releases the interface and the device handle. Safe to call more than
// once.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.ifaceDone()
	err := t.dev.Close()
	if cerr := t.usbCtx.Close(); err == nil {
		err = cerr
	}
	return err
}

// mapErr folds gousb and libusb failure conditions onto the driver's
// transport sentinels so the core can classify them with errors.Is.
func (t *Transport) mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gousb.ErrorNoDevice),
		errors.Is(err, gousb.ErrorNotFound),
		errors.Is(err, gousb.TransferNoDevice),
		errors.Is(err, gousb.TransferCancelled):
		t.gone.Store(true)
		return fmt.Errorf("%w: %v", hackrf.ErrDeviceGone, err)

	case errors.Is(err, gousb.ErrorTimeout),
		errors.Is(err, gousb.TransferTimedOut),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", hackrf.ErrTimeout, err)

	case errors.Is(err, gousb.ErrorPipe),
		errors.Is(err, gousb.TransferStall):
		return fmt.Errorf("%w: %v", hackrf.ErrStall, err)
	}
	return err
}

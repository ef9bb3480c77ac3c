package hackrf

// Transport is the USB transport the driver runs on. Implementations perform
// the actual transfers; the driver owns the protocol on top of them.
//
// Control transfers are vendor requests addressed to the device. Bulk reads
// come from the sample endpoint and block until data arrives, the transport's
// own timeout expires, or the device goes away.
//
// Implementations must translate their native failure conditions into the
// package sentinels: wrap device-removal errors with ErrDeviceGone, deadline
// errors with ErrTimeout and halted endpoints with ErrStall. The stream relies
// on ErrDeviceGone to tell a disconnect apart from a fault.
type Transport interface {
	// ControlOut performs a host-to-device vendor control transfer.
	ControlOut(request Request, value, index uint16, data []byte) error

	// ControlIn performs a device-to-host vendor control transfer into buf
	// and returns the number of bytes the device answered with.
	ControlIn(request Request, value, index uint16, buf []byte) (int, error)

	// BulkIn reads sample data from the bulk-in endpoint into buf.
	BulkIn(buf []byte) (int, error)

	// DeviceVersion returns the bcdDevice field of the USB device
	// descriptor, used to gate operations on firmware API versions.
	DeviceVersion() uint16

	// Connected reports whether the device is still present.
	Connected() bool

	// Close releases the device handle. Transfers issued after Close fail.
	Close() error
}

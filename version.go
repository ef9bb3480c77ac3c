package hackrf

import "fmt"

// Version is a firmware API version unpacked from the BCD bcdDevice field of
// the USB device descriptor (0xJJMN: JJ major, M minor, N sub-minor).
type Version struct {
	Major    uint8
	Minor    uint8
	SubMinor uint8
}

// VersionFromBCD unpacks a binary-coded-decimal version word.
func VersionFromBCD(raw uint16) Version {
	return Version{
		Major:    uint8((raw&0xF000)>>12)*10 + uint8((raw&0x0F00)>>8),
		Minor:    uint8((raw & 0x00F0) >> 4),
		SubMinor: uint8(raw & 0x000F),
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.SubMinor)
}

// AtLeast reports whether v is the same as or newer than min.
func (v Version) AtLeast(min Version) bool {
	return v.key() >= min.key()
}

func (v Version) key() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8 | uint32(v.SubMinor)
}

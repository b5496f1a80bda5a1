package protocol

import "fmt"

// Version is the packed protocol version: major<<16 | minor.
type Version uint32

// DefaultVersion is 1.0.
const DefaultVersion Version = 1 << 16

// NewVersion packs a major and minor number.
func NewVersion(major, minor uint16) Version {
	return Version(uint32(major)<<16 | uint32(minor))
}

func (v Version) Major() uint16 { return uint16(v >> 16) }

func (v Version) Minor() uint16 { return uint16(v & 0xFFFF) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

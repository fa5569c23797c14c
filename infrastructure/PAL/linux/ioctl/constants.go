//go:build linux

package ioctl

const (
	ifNamSiz  = 16         // Max if name size, bytes
	tunSetIff = 0x400454ca // Code to create TUN/TAP if via ioctl
	tunGetIff = 0x800454d2 // Code to read back TUN/TAP if flags and name
	iffTap    = 0x0002     // Enabling TAP flag
	IffNoPi   = 0x1000     // Disabling PI (Packet Information)
	ifReqData = 24         // Size of the ifreq union
)

package internal

// Checksum computes the Internet checksum (RFC 1071) over b. Words are
// read in network byte order, an odd trailing byte is padded with zero.
// The checksum field of an ICMP message must be zeroed before calling.
func Checksum(b []byte) uint16 {
	return ^fold(sum(b))
}

// VerifyChecksum reports whether b, checksum field included, sums up
// to all ones.
func VerifyChecksum(b []byte) bool {
	return fold(sum(b)) == 0xffff
}

func sum(b []byte) uint32 {
	var s uint32
	n := len(b) &^ 1
	for i := 0; i < n; i += 2 {
		s += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if len(b)%2 == 1 {
		s += uint32(b[len(b)-1]) << 8
	}
	return s
}

// fold adds the carries back into the lower 16 bits.
func fold(s uint32) uint16 {
	for s>>16 != 0 {
		s = s&0xffff + s>>16
	}
	return uint16(s)
}

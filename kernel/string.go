package kernel

func memset(dst []byte, c int, n uint) {
	for i := uint(0); i < n; i++ {
		dst[i] = byte(c)
	}
}

// safestrcpy copies src into dst, truncating so the result is always
// NUL-terminated.
func safestrcpy(dst []byte, src string) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst[:len(dst)-1], src)
	memset(dst[n:], 0, uint(len(dst)-n))
}

// cstring reads a NUL-terminated name back out.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

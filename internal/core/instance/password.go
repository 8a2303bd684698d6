package instance

import "crypto/rand"

// passwordCharset omits characters that are easy to misread (0/O, 1/l/I).
const passwordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const passwordLength = 16

// GeneratePassword returns a random credential suitable for requirepass
// directives and enterprise admin accounts.
func GeneratePassword() string {
	buf := make([]byte, passwordLength)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = passwordCharset[int(b)%len(passwordCharset)]
	}
	return string(buf)
}

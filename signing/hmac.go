package signing

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // body_md5 is mandated by the wire protocol
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Known answers for the construction-time self test.
const (
	selfTestSecret = "7ad3773142a6692b25b8"
	selfTestInput  = "1234.1234:private-foobar"
	selfTestHMAC   = "58df8b0c36d6982b82c3ecf6b4662e34fe8c25bba48f5369f135bf843651c3a4"
	selfTestMD5    = "d41d8cd98f00b204e9800998ecf8427e"
)

// SignString returns the lowercase hex encoded HMAC-SHA256 of input keyed
// with secret. The result is always 64 characters long.
func SignString(input, secret string) string {
	return hex.EncodeToString(computeHMAC([]byte(secret), []byte(input)))
}

// BodyMD5 returns the lowercase hex encoded MD5 digest of body.
func BodyMD5(body []byte) string {
	sum := md5.Sum(body) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

func computeHMAC(key, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)

	return h.Sum(nil)
}

var cryptoCheck = sync.OnceValue(selfTest)

// selfTest runs both primitives against known answers. Restricted runtimes
// (for example FIPS-only mode refusing MD5) panic or misbehave here instead
// of on every request.
func selfTest() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCryptoUnavailable, r)
		}
	}()

	if got := SignString(selfTestInput, selfTestSecret); got != selfTestHMAC {
		return fmt.Errorf("%w: hmac-sha256 self test failed", ErrCryptoUnavailable)
	}

	if got := BodyMD5([]byte{}); got != selfTestMD5 {
		return fmt.Errorf("%w: md5 self test failed", ErrCryptoUnavailable)
	}

	return nil
}

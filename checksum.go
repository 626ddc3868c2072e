package sinker

import (
	"encoding/hex"
	"fmt"
	"hash"
)

// checksumVerifier accumulates a digest over the chunks committed to
// the sink for end-of-transfer validation.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
}

// observe folds committed bytes into the digest. Safe on a nil receiver.
func (v *checksumVerifier) observe(p []byte) {
	if v == nil {
		return
	}

	v.hash.Write(p)
}

func (v *checksumVerifier) verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if actual != v.expected {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", v.expected, actual),
		}
	}

	return nil
}

package audio

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// Checksum computes the blake3-256 hex digest of r. Uploads are hashed as
// they stream to disk so the audit trail can identify recordings across
// resubmissions.
func Checksum(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing upload: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package wire

import (
	"fmt"
	"io"
)

// writeBlobReply frames a FetchBlobReply raw, bypassing the signed CBOR
// envelope: a single found/not-found byte followed by the blob bytes
// when found. This reply is exempt from the 1 MiB control-message cap —
// it is the blob download itself, not a message describing one — and is
// left unsigned: the caller verifies the content hash independently
// (blob.DownloadHash).
func writeBlobReply(w io.Writer, found bool, data []byte) error {
	header := byte(0)
	if found {
		header = 1
	}
	if _, err := w.Write([]byte{header}); err != nil {
		return fmt.Errorf("wire: writing blob reply header: %w", err)
	}
	if found {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("wire: writing blob reply body: %w", err)
		}
	}
	return nil
}

// readBlobReply is the inverse of writeBlobReply. It reads to EOF
// (the sender finishes its send half once the last byte is written) with
// no size cap, since a blob may legitimately exceed MaxMessageSize.
func readBlobReply(r io.Reader) (found bool, data []byte, err error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return false, nil, fmt.Errorf("wire: reading blob reply: %w", err)
	}
	if len(all) == 0 {
		return false, nil, fmt.Errorf("wire: empty blob reply")
	}
	if all[0] == 0 {
		return false, nil, nil
	}
	return true, all[1:], nil
}

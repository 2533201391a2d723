package ld

import "errors"

// ErrCodecMismatch is returned when a Link's codec does not match the
// codec the caller expected to decode (e.g. a raw link passed where a
// CBOR link was required).
var ErrCodecMismatch = errors.New("ld: link codec does not match expected codec")

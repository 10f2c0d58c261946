package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format is a disk image format as understood by the backend.
type Format string

const (
	FormatQCOW2 Format = "qcow2"
	FormatRaw   Format = "raw"
	// FormatUnknown leaves format probing to the backend.
	FormatUnknown Format = ""
)

var (
	// qcow2Magic is "QFI" followed by 0xfb at offset 0.
	// Reference: https://www.qemu.org/docs/master/interop/qcow2.html
	qcow2Magic = []byte{0x51, 0x46, 0x49, 0xfb}

	// mbrSignature is the boot sector signature at offset 510. GPT disks
	// carry it too in their protective MBR.
	mbrSignature = []byte{0x55, 0xaa}
)

// DetectFormat sniffs the image format from magic bytes.
//
//   - qcow2: "QFI\xfb" at offset 0
//   - raw:   0x55 0xaa at offset 510
//
// Anything else, including files too small to carry either signature,
// is FormatUnknown.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("failed to read image header: %w", err)
	}
	header = header[:n]

	if len(header) >= len(qcow2Magic) && bytes.Equal(header[:len(qcow2Magic)], qcow2Magic) {
		return FormatQCOW2, nil
	}
	if len(header) == 512 && bytes.Equal(header[510:], mbrSignature) {
		return FormatRaw, nil
	}
	return FormatUnknown, nil
}

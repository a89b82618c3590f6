package idxdefl

import (
	"os"

	"github.com/stbuehler/seekxz/internal/errs"
)

// EncodeFile encodes inputPath into inputPath+".idxdefl", refusing to
// overwrite an existing output file, matching idx-deflate.cpp's
// O_WRONLY|O_CREAT|O_EXCL open mode.
func EncodeFile(inputPath string, opts ...EncodeOption) (string, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return "", errs.Wrap(errs.IOError, "open input", err)
	}
	defer in.Close()

	outputPath := inputPath + ".idxdefl"
	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errs.Wrap(errs.IOError, "create output", err)
	}

	if info, statErr := in.Stat(); statErr == nil {
		opts = append([]EncodeOption{WithTotalSize(info.Size())}, opts...)
	}

	if err := Encode(out, in, opts...); err != nil {
		out.Close()
		os.Remove(outputPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", errs.Wrap(errs.IOError, "close output", err)
	}
	return outputPath, nil
}

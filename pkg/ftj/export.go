package ftj

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// copyFile streams src into dst. The engine keeps the processed image
// below the work directory, so the export is a plain copy instead of a
// rename across file systems.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close %s", dst)
	}

	return nil
}

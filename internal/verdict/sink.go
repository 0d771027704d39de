package verdict

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives the verdict on every status transition.
type Sink interface {
	Write(v Verdict) error
}

// FileSink writes "{status} {reason}\n" to Path, replacing the file
// atomically so a probe never reads a partial line.
type FileSink struct {
	Path string
}

func (s FileSink) Write(v Verdict) error {
	dir := filepath.Dir(s.Path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create status file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := fmt.Fprintf(tmp, "%s %s\n", v.Status, v.Reason); err != nil {
		tmp.Close()
		return fmt.Errorf("write status file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace status file: %w", err)
	}
	return nil
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(v Verdict) error

func (f SinkFunc) Write(v Verdict) error {
	return f(v)
}

package export

import (
	"archive/tar"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Artifact is one named file to pack into an archive.
type Artifact struct {
	Name string
	Data []byte
}

// WriteArchive packs the artifacts into a zstd-compressed tar at path.
func WriteArchive(path string, artifacts []Artifact, stamp time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	for _, a := range artifacts {
		hdr := &tar.Header{
			Name:    a.Name,
			Mode:    0o644,
			Size:    int64(len(a.Data)),
			ModTime: stamp,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", a.Name, err)
		}
		if _, err := tw.Write(a.Data); err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
	}

	// Close explicitly to catch write errors.
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

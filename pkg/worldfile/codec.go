package worldfile

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// CTWCodec reads and writes .ctw files: an xz-compressed tar archive
// whose entries are the World's named JSON documents.
type CTWCodec struct{}

// NewCTWCodec returns the default .ctw reader/writer.
func NewCTWCodec() *CTWCodec { return &CTWCodec{} }

// ReadFile decompresses and untars path into a World.
func (CTWCodec) ReadFile(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("worldfile: opening xz stream: %w", err)
	}

	world := NewWorld()
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("worldfile: reading tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("worldfile: reading %s: %w", hdr.Name, err)
		}
		world.SetDocument(hdr.Name, data)
	}
	return world, nil
}

// WriteFile tars and xz-compresses world's documents to path,
// overwriting any existing file atomically via a temp-file rename.
func (CTWCodec) WriteFile(path string, world *World) error {
	var buf bytes.Buffer

	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("worldfile: creating xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	for _, name := range world.DocumentNames() {
		data := world.Documents[name]
		hdr := &tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("worldfile: writing header for %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("worldfile: writing %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("worldfile: closing tar writer: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("worldfile: closing xz writer: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("worldfile: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("worldfile: renaming temp file: %w", err)
	}
	return nil
}

// DeleteFile removes path. It is not an error if path does not exist.
func (CTWCodec) DeleteFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var (
	_ WorldReader = CTWCodec{}
	_ WorldSaver  = CTWCodec{}
)

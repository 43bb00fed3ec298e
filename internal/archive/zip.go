package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/klauspost/compress/zip"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// writeTreeZip writes every file of tree to a zip at out, paths relative to
// the tree root. Entries carry the commit time so archives of the same
// commit are byte-identical.
func writeTreeZip(ctx context.Context, tree *object.Tree, out string, modified time.Time) (files int, err error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return 0, fsError(err, "cannot create archive directory", out)
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".archive-*.zip")
	if err != nil {
		return 0, fsError(err, "cannot create archive", out)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return 0, fsError(err, "cannot create archive", out)
	}

	zw := zip.NewWriter(tmp)
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(zw, f, modified); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		files++
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		return 0, fsError(err, "cannot write archive entry", out)
	}
	if err = zw.Close(); err != nil {
		return 0, fsError(err, "cannot finish archive", out)
	}
	if err = tmp.Close(); err != nil {
		return 0, fsError(err, "cannot finish archive", out)
	}
	if err = os.Rename(tmp.Name(), out); err != nil {
		return 0, fsError(err, "cannot move archive into place", out)
	}
	return files, nil
}

func addFile(zw *zip.Writer, f *object.File, modified time.Time) error {
	hdr := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: modified}
	mode, err := f.Mode.ToOSFileMode()
	if err != nil {
		return err
	}
	if f.Mode == filemode.Symlink {
		hdr.Method = zip.Store
	}
	hdr.SetMode(mode)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	r, err := f.Reader()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	_, err = io.Copy(w, r)
	return err
}

func fsError(err error, msg, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}

// Package storage validates uploaded attachments and keeps them on local disk.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"siteflow/internal/apperr"

	"github.com/google/uuid"
)

const MaxUploadSize = 10 * 1024 * 1024

// ValidateUpload rejects a missing file part and files above MaxUploadSize.
func ValidateUpload(fh *multipart.FileHeader) error {
	if fh == nil {
		return apperr.New(apperr.InvalidArgument, "No file provided")
	}
	if fh.Size > MaxUploadSize {
		return apperr.New(apperr.InvalidArgument, "File too large. Maximum size is 10MB")
	}
	return nil
}

// Stored describes a saved file.
type Stored struct {
	Key  string
	Name string
	Size int64
}

// Local stores files below Root and serves them under URLPrefix.
type Local struct {
	Root      string
	URLPrefix string
}

func NewLocal(root, urlPrefix string) Local {
	return Local{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Save validates fh and writes it to attachments/<issueID>/<uuid><ext>.
func (l Local) Save(issueID uint, fh *multipart.FileHeader) (Stored, error) {
	if err := ValidateUpload(fh); err != nil {
		return Stored{}, err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key := path.Join("attachments", fmt.Sprint(issueID), uuid.NewString()+ext)
	dst := filepath.Join(l.Root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Stored{}, apperr.Wrap(apperr.Internal, "create upload dir", err)
	}

	src, err := fh.Open()
	if err != nil {
		return Stored{}, apperr.Wrap(apperr.Internal, "open upload", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return Stored{}, apperr.Wrap(apperr.Internal, "create file", err)
	}
	defer out.Close()

	// The header size comes from the client; cap the copy as well.
	n, err := io.Copy(out, io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		_ = os.Remove(dst)
		return Stored{}, apperr.Wrap(apperr.Internal, "write file", err)
	}
	if n > MaxUploadSize {
		_ = os.Remove(dst)
		return Stored{}, apperr.New(apperr.InvalidArgument, "File too large. Maximum size is 10MB")
	}

	return Stored{Key: key, Name: filepath.Base(fh.Filename), Size: n}, nil
}

func (l Local) URL(key string) string {
	return l.URLPrefix + "/" + key
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (l Local) Remove(key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.Root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package bridge

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/caffeineduck/todobridge/hostpath"
)

var dataURLPattern = regexp.MustCompile(`(?i)^data:image/([a-z]{1,20});base64,`)

// ReadFile returns the whole file at path as text.
func (b *Bridge) ReadFile(path string) (string, error) {
	data, err := b.fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteTextFile writes text to <epoch-millis>.txt in the downloads directory.
func (b *Bridge) WriteTextFile(text string) (string, error) {
	path, err := b.downloadPath("txt")
	if err != nil {
		return "", err
	}
	if err := b.fs.WriteFile(path, []byte(text)); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// WriteImageFile decodes a data:image/<ext>;base64,<payload> URL and writes the bytes
// to <epoch-millis>.<ext> in the downloads directory. Nothing is written unless the
// URL matches and the payload decodes.
func (b *Bridge) WriteImageFile(dataURL string) (string, error) {
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return "", ErrNoDataURL
	}

	data, err := decodeBase64(dataURL[len(m[0]):])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	path, err := b.downloadPath(m[1])
	if err != nil {
		return "", err
	}
	if err := b.fs.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadArchivedFile returns todos-archived.json, or ErrNotFound if it does not exist.
func (b *Bridge) ReadArchivedFile() (string, error) {
	return b.readUserFile(ArchivedFile)
}

func (b *Bridge) WriteArchivedFile(text string) error {
	return b.writeUserFile(ArchivedFile, text)
}

// ReadSettings returns todos-settings.json, or ErrNotFound if it does not exist.
func (b *Bridge) ReadSettings() (string, error) {
	return b.readUserFile(SettingsFile)
}

func (b *Bridge) WriteSettings(text string) error {
	return b.writeUserFile(SettingsFile, text)
}

func (b *Bridge) downloadPath(ext string) (string, error) {
	dir, err := b.paths.Path(hostpath.Downloads)
	if err != nil {
		return "", fmt.Errorf("resolving downloads directory: %w", err)
	}
	if err := b.fs.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("creating downloads directory: %w", err)
	}
	name := strconv.FormatInt(b.now().UnixMilli(), 10) + "." + ext
	return filepath.Join(dir, name), nil
}

func (b *Bridge) userDataPath(name string) (string, error) {
	dir, err := b.paths.Path(hostpath.UserData)
	if err != nil {
		return "", fmt.Errorf("resolving user data directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func (b *Bridge) readUserFile(name string) (string, error) {
	path, err := b.userDataPath(name)
	if err != nil {
		return "", err
	}
	exists, err := b.fs.Exists(path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := b.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func (b *Bridge) writeUserFile(name, text string) error {
	path, err := b.userDataPath(name)
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("creating user data directory: %w", err)
	}
	if err := b.fs.WriteFile(path, []byte(text)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// decodeBase64 accepts padded or unpadded base64 in the standard or URL-safe
// alphabet and ignores whitespace.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, encErr := enc.DecodeString(payload); encErr == nil {
			return data, nil
		}
	}
	return nil, err
}

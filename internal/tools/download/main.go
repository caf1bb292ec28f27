// Command download fetches a QuickJS WASI build to pin as executor.runtime in
// place of the embedded interpreter:
//
//	go run ./internal/tools/download -sha256 <hex> <url> ~/.local/share/todobridge/qjs.wasm
//
// An existing output file is left alone unless its checksum does not match.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	sum := flag.String("sha256", "", "Expected SHA-256 of the file (hex)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Download timeout")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: download [-sha256 hex] <url> <output>")
		os.Exit(1)
	}
	url, output := flag.Arg(0), flag.Arg(1)
	want := strings.ToLower(strings.TrimSpace(*sum))

	if ok, err := upToDate(output, want); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else if ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := fetch(ctx, url, output, want); err != nil {
		fmt.Fprintf(os.Stderr, "download failed: %v\n", err)
		os.Exit(1)
	}
}

// upToDate reports whether output exists and, when want is set, matches it.
func upToDate(output, want string) (bool, error) {
	f, err := os.Open(output)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()
	if want == "" {
		return true, nil
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == want, nil
}

func fetch(ctx context.Context, url, output, want string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(output), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if got := hex.EncodeToString(h.Sum(nil)); want != "" && got != want {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
	}
	return os.Rename(tmp.Name(), output)
}

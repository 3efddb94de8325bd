package mnist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DownloadOptions configures Download.
type DownloadOptions struct {
	Mirrors []string     // Base URLs tried in order; DefaultMirrors when empty
	Client  *http.Client // http.DefaultClient when nil
	Out     io.Writer    // Progress messages; silent when nil
}

// Download fetches the four archives into dir, skipping any already present
// with a matching digest. Each file is written to a temporary name and
// renamed into place only after its SHA-256 digest verifies.
func Download(ctx context.Context, dir string, opts DownloadOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mnist: create %s: %w", dir, err)
	}

	mirrors := opts.Mirrors
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	for _, f := range allFiles {
		dst := filepath.Join(dir, f.archive())
		if ok, err := verifyFile(dst, f.sha256); err != nil {
			return err
		} else if ok {
			continue
		}

		var errs []error
		fetched := false
		for _, mirror := range mirrors {
			if err := ctx.Err(); err != nil {
				return err
			}
			url := strings.TrimSuffix(mirror, "/") + "/" + f.archive()
			if opts.Out != nil {
				fmt.Fprintf(opts.Out, "Downloading %s\n", url)
			}
			err := fetch(ctx, client, url, dst, f.sha256)
			if err == nil {
				fetched = true
				break
			}
			if opts.Out != nil {
				fmt.Fprintf(opts.Out, "Failed to download (trying next): %v\n", err)
			}
			errs = append(errs, err)
		}
		if !fetched {
			return fmt.Errorf("mnist: download %s: %w", f.archive(), errors.Join(errs...))
		}
	}

	return nil
}

// verifyFile reports whether path exists and hashes to want.
func verifyFile(path, want string) (bool, error) {
	fh, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer fh.Close()

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return false, fmt.Errorf("mnist: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)) == want, nil
}

// fetch downloads url into dst through a temporary file in the same
// directory, hashing on the fly.
func fetch(ctx context.Context, client *http.Client, url, dst, want string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	h := sha256.New()
	if _, err = io.Copy(io.MultiWriter(tmp, h), resp.Body); err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != want {
		err = fmt.Errorf("%w: %s: got %s, want %s", ErrChecksum, filepath.Base(dst), got, want)
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Package output reads and writes the plain-text subdomain list: one hostname
// per line, sorted ascending, every line terminated by a newline.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"subhunt/pkg/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Write stores set at path, creating parent directories as needed. An existing
// file is replaced.
func Write(path string, set domain.SubdomainSet) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("could not open output file: %w", err)
	}

	if err := Encode(f, set); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}

	return nil
}

// Encode writes set to w in the output format.
func Encode(w io.Writer, set domain.SubdomainSet) error {
	bw := bufio.NewWriter(w)
	for _, name := range set.Sorted() {
		if _, err := bw.WriteString(name + "\n"); err != nil {
			return fmt.Errorf("could not write subdomain: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	return nil
}

// Read loads a previously written list. Blank lines are ignored.
func Read(path string) (domain.SubdomainSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open output file: %w", err)
	}
	defer f.Close() //nolint: errcheck

	return Decode(f)
}

// Decode parses the output format from r.
func Decode(r io.Reader) (domain.SubdomainSet, error) {
	set := domain.NewSubdomainSet()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			set.Add(name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read subdomains: %w", err)
	}

	return set, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not stat output file: %w", err)
	}

	return info.Mode().IsRegular(), nil
}

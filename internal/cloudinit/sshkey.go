package cloudinit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/jbweber/kiln/internal/naming"
)

// ResolveSSHKey turns the raw SSH key field into key material.
//
//   - Empty input means no key; ok is false.
//   - A leading "~" is expanded to the current user's home directory.
//   - If the result names a readable regular file, its contents are the key.
//   - Otherwise the raw string itself is treated as the key.
//
// No format validation is performed; qm rejects malformed keys.
func ResolveSSHKey(raw string) (material string, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}

	path, err := expandHome(raw)
	if err != nil {
		return "", false, err
	}

	if info, statErr := os.Stat(path); statErr == nil && info.Mode().IsRegular() {
		data, readErr := os.ReadFile(path)
		if readErr == nil {
			return string(data), true, nil
		}
		// An unreadable file falls through to literal key text.
	}

	return raw, true, nil
}

// expandHome replaces a leading "~" or "~/" with the home directory.
// "~user" forms are returned unchanged.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand ~: %w", err)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

// WriteKeyFile writes key material to a new temporary file in dir (the
// system temp dir when empty) and returns its path with a cleanup function
// that removes it.
//
// Trailing newlines are stripped and none is added: qm set --sshkeys fails
// validation on a key file that ends in a newline.
func WriteKeyFile(dir, material string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp(dir, naming.SSHKeyFilePattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create SSH key file: %w", err)
	}
	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	content := strings.TrimRight(material, "\r\n")
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write SSH key file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close SSH key file: %w", err)
	}

	return path, cleanup, nil
}

// Fingerprint returns the SHA256 fingerprint of the first key in material,
// or "unparsed" if no authorized_keys line can be parsed.
func Fingerprint(material string) string {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(material))
	if err != nil {
		return "unparsed"
	}
	return fmt.Sprintf("%s %s", key.Type(), ssh.FingerprintSHA256(key))
}

// KeyCount returns the number of non-empty, non-comment lines in material.
func KeyCount(material string) int {
	n := 0
	for _, line := range strings.Split(material, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			n++
		}
	}
	return n
}

package io

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Digest returns a SHA-256 over the contents of every file in paths, in
// order. Files are hashed in parallel like [LoadImages]. Renaming or
// reordering inputs changes the digest.
func Digest(ctx context.Context, paths []string, jobs int) (string, error) {
	sums := make([][sha256.Size]byte, len(paths))
	err := forEach(ctx, len(paths), jobs, func(i int) error {
		f, err := open(paths[i])
		if err != nil {
			return err
		}
		defer f.Close()
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return fmt.Errorf("read %s: %w", paths[i], err)
		}
		copy(sums[i][:], h.Sum(nil))
		return nil
	})
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for i, s := range sums {
		fmt.Fprintf(h, "%d:", i)
		h.Write(s[:])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

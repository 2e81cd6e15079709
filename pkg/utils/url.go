package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrDriveFileIDMissing = errors.New("invalid Google Drive link: no file id")

	driveFileIDPattern = regexp.MustCompile(`(?:id=|/d/)([a-zA-Z0-9_-]+)`)
)

const driveDownloadBase = "https://drive.google.com/uc?export=download&id="

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// IsDriveURL reports whether rawURL points at Google Drive.
func IsDriveURL(rawURL string) bool {
	return strings.Contains(rawURL, "drive.google.com")
}

// DriveDownloadURL rewrites a Google Drive share link into a direct download link.
// Both the "open?id=<id>" and "/file/d/<id>/view" forms are understood.
func DriveDownloadURL(rawURL string) (string, error) {
	m := driveFileIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ErrDriveFileIDMissing
	}
	return driveDownloadBase + m[1], nil
}

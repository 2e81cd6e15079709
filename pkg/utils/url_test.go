package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveDownloadURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"file view link", "https://drive.google.com/file/d/ABC123/view", "https://drive.google.com/uc?export=download&id=ABC123"},
		{"open link", "https://drive.google.com/open?id=x_Y-9", "https://drive.google.com/uc?export=download&id=x_Y-9"},
		{"sharing suffix", "https://drive.google.com/file/d/ABC123/view?usp=sharing", "https://drive.google.com/uc?export=download&id=ABC123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DriveDownloadURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, got, "id=")
		})
	}
}

func TestDriveDownloadURL_NoID(t *testing.T) {
	_, err := DriveDownloadURL("https://drive.google.com/drive/folders")
	assert.ErrorIs(t, err, ErrDriveFileIDMissing)
}

func TestIsDriveURL(t *testing.T) {
	assert.True(t, IsDriveURL("https://drive.google.com/file/d/ABC123/view"))
	assert.False(t, IsDriveURL("https://example.com/shot.png"))
}

func TestHashURL_Stable(t *testing.T) {
	a := HashURL("https://example.com/a.png")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashURL("https://example.com/a.png"))
	assert.NotEqual(t, a, HashURL("https://example.com/b.png"))
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://drive.google.com/uc?export=download&id=1")
	require.NoError(t, err)

	got, err := ToAbsoluteURL(base, "/download?id=1&confirm=t")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/download?id=1&confirm=t", got)
}

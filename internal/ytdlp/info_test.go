package ytdlp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoFromRawFallbacks(t *testing.T) {
	payload := `{
		"id": "abc123",
		"title": "",
		"url": "https://cdn.example.com/stream",
		"uploader": "Some Channel",
		"duration": 53.04,
		"formats": [
			{"format_id": "137", "ext": "mp4", "format_note": "1080p", "filesize_approx": 1048576, "vcodec": "avc1", "acodec": "none", "fps": 30},
			{"format_id": "140", "ext": "m4a", "resolution": "audio only", "filesize": 524288, "vcodec": "none", "acodec": "mp4a.40.2"}
		]
	}`

	var raw rawInfo
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	info := infoFromRaw(raw)

	assert.Equal(t, "Unknown", info.Title)
	assert.Equal(t, "https://cdn.example.com/stream", info.URL)
	assert.Equal(t, "Some Channel", info.Channel)
	assert.Equal(t, int64(53), info.Duration)

	require.Len(t, info.Formats, 2)
	video, audio := info.Formats[0], info.Formats[1]

	assert.Equal(t, "1080p", video.Resolution)
	assert.Equal(t, int64(1048576), video.Filesize)
	assert.True(t, video.IsVideoOnly())
	assert.False(t, video.IsAudioOnly())

	assert.Equal(t, "audio only", audio.Resolution)
	assert.Equal(t, int64(524288), audio.Filesize)
	assert.True(t, audio.IsAudioOnly())
}

func TestInfoFromRawPrefersWebpageURL(t *testing.T) {
	info := infoFromRaw(rawInfo{
		Title:      "Video",
		WebpageURL: "https://example.com/watch?v=1",
		URL:        "https://cdn.example.com/raw",
		Channel:    "Channel",
		Uploader:   "Uploader",
	})

	assert.Equal(t, "https://example.com/watch?v=1", info.URL)
	assert.Equal(t, "Channel", info.Channel)
}

func TestVideoFormatDisplayName(t *testing.T) {
	f := VideoFormat{Resolution: "1920x1080", Ext: "mp4", FPS: 29.97, VCodec: "avc1", Filesize: 131534000}
	name := f.DisplayName()

	assert.Contains(t, name, "1920x1080")
	assert.Contains(t, name, "29fps")
	assert.Contains(t, name, "avc1")
	assert.Contains(t, name, "~")

	bare := VideoFormat{Ext: "m4a", VCodec: "none"}
	assert.Equal(t, "m4a", bare.DisplayName())
}

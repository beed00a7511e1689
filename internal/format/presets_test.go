package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSpec(t *testing.T) {
	cases := []struct {
		formatType, quality, want string
	}{
		{"video_audio", "1080", "bestvideo[height<=1080]+bestaudio/best[height<=1080]"},
		{"video_audio", "4k", "bestvideo[height<=2160]+bestaudio/best[height<=2160]"},
		{"video_audio", "best", "bestvideo+bestaudio/best"},
		{"video_audio", "worst", "worstvideo+worstaudio/worst"},
		{"audio_mp3", "1080", "bestaudio"},
		{"audio_m4a", "720", "bestaudio[ext=m4a]/bestaudio"},
		{"audio_nosuch", "720", "bestaudio"},
		{"video_audio", "nosuch", "bestvideo+bestaudio/best"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BuildSpec(tc.formatType, tc.quality), "%s/%s", tc.formatType, tc.quality)
	}
}

func TestExtraArgs(t *testing.T) {
	assert.Equal(t, []string{"--extract-audio", "--audio-format", "mp3"}, ExtraArgs("audio_mp3"))
	assert.Equal(t, []string{"--extract-audio"}, ExtraArgs("audio_best"))
	assert.Nil(t, ExtraArgs("video_audio"))
	assert.Nil(t, ExtraArgs("unknown"))
}

func TestOptionOrdering(t *testing.T) {
	qualities := QualityOptions()
	require.Len(t, qualities, 7)
	assert.Equal(t, "best", qualities[0].Key)
	assert.Equal(t, "worst", qualities[len(qualities)-1].Key)

	formats := FormatOptions()
	require.Len(t, formats, 6)
	assert.Equal(t, "video_audio", formats[0].Key)

	p, ok := QualityByKey("720")
	require.True(t, ok)
	assert.Equal(t, "bestvideo[height<=720]+bestaudio/best[height<=720]", p.FormatSpec)

	_, ok = FormatByKey("bogus")
	assert.False(t, ok)
}

// Package format holds the quality and format preset tables used to build
// yt-dlp format specifications. Pure lookups, no state.
package format

// Preset is one selectable quality or format option.
type Preset struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	FormatSpec  string   `json:"format_spec"`
	Description string   `json:"description,omitempty"`
	ExtraArgs   []string `json:"extra_args,omitempty"`
}

var qualityPresets = map[string]Preset{
	"best":  {Key: "best", Label: "Best Quality", FormatSpec: "bestvideo+bestaudio/best", Description: "Highest available quality"},
	"4k":    {Key: "4k", Label: "4K (2160p)", FormatSpec: "bestvideo[height<=2160]+bestaudio/best[height<=2160]", Description: "Ultra HD"},
	"1080":  {Key: "1080", Label: "1080p", FormatSpec: "bestvideo[height<=1080]+bestaudio/best[height<=1080]", Description: "Full HD"},
	"720":   {Key: "720", Label: "720p", FormatSpec: "bestvideo[height<=720]+bestaudio/best[height<=720]", Description: "HD"},
	"480":   {Key: "480", Label: "480p", FormatSpec: "bestvideo[height<=480]+bestaudio/best[height<=480]", Description: "SD"},
	"360":   {Key: "360", Label: "360p", FormatSpec: "bestvideo[height<=360]+bestaudio/best[height<=360]", Description: "Low"},
	"worst": {Key: "worst", Label: "Worst Quality", FormatSpec: "worstvideo+worstaudio/worst", Description: "Smallest file size"},
}

var formatPresets = map[string]Preset{
	"video_audio": {Key: "video_audio", Label: "Video + Audio", FormatSpec: "bestvideo+bestaudio/best", Description: "Complete video with audio"},
	"video_only":  {Key: "video_only", Label: "Video Only", FormatSpec: "bestvideo", Description: "Video without audio"},
	"audio_mp3": {Key: "audio_mp3", Label: "Audio (MP3)", FormatSpec: "bestaudio", Description: "Audio converted to MP3",
		ExtraArgs: []string{"--extract-audio", "--audio-format", "mp3"}},
	"audio_m4a": {Key: "audio_m4a", Label: "Audio (M4A)", FormatSpec: "bestaudio[ext=m4a]/bestaudio", Description: "Audio in M4A format",
		ExtraArgs: []string{"--extract-audio", "--audio-format", "m4a"}},
	"audio_opus": {Key: "audio_opus", Label: "Audio (Opus)", FormatSpec: "bestaudio", Description: "Audio in Opus format",
		ExtraArgs: []string{"--extract-audio", "--audio-format", "opus"}},
	"audio_best": {Key: "audio_best", Label: "Audio (Best)", FormatSpec: "bestaudio", Description: "Best available audio",
		ExtraArgs: []string{"--extract-audio"}},
}

// quality key order for listings, best first.
var qualityOrder = []string{"best", "4k", "1080", "720", "480", "360", "worst"}

var formatOrder = []string{"video_audio", "video_only", "audio_mp3", "audio_m4a", "audio_opus", "audio_best"}

// QualityOptions lists all quality presets, best first.
func QualityOptions() []Preset {
	out := make([]Preset, 0, len(qualityOrder))
	for _, k := range qualityOrder {
		out = append(out, qualityPresets[k])
	}
	return out
}

// FormatOptions lists all format-type presets.
func FormatOptions() []Preset {
	out := make([]Preset, 0, len(formatOrder))
	for _, k := range formatOrder {
		out = append(out, formatPresets[k])
	}
	return out
}

// QualityByKey looks up a quality preset.
func QualityByKey(key string) (Preset, bool) {
	p, ok := qualityPresets[key]
	return p, ok
}

// FormatByKey looks up a format-type preset.
func FormatByKey(key string) (Preset, bool) {
	p, ok := formatPresets[key]
	return p, ok
}

// BuildSpec resolves the -f format specification for a format type and
// quality key. Audio formats ignore quality; unknown keys fall back to the
// best video+audio spec.
func BuildSpec(formatType, quality string) string {
	if isAudio(formatType) {
		if fp, ok := formatPresets[formatType]; ok {
			return fp.FormatSpec
		}
		return "bestaudio"
	}
	if qp, ok := qualityPresets[quality]; ok {
		return qp.FormatSpec
	}
	return "bestvideo+bestaudio/best"
}

// ExtraArgs returns the passthrough arguments a format type needs, such as
// audio extraction directives. Nil when none apply.
func ExtraArgs(formatType string) []string {
	if fp, ok := formatPresets[formatType]; ok {
		return fp.ExtraArgs
	}
	return nil
}

func isAudio(formatType string) bool {
	return len(formatType) > 6 && formatType[:6] == "audio_"
}

package config

// This file layers the optional YAML profile file and environment variables
// onto a Config. Pointer fields in the wire struct distinguish "absent" from
// zero values so file settings only override what they actually mention.

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileProfile is the YAML wire format of a conversion profile.
type fileProfile struct {
	Container      string      `yaml:"container"`
	Placement      string      `yaml:"placement"`
	Subtitles      string      `yaml:"subtitles"`
	MaxRetries     *int        `yaml:"max_retries"`
	ValidateAudio  *bool       `yaml:"validate_audio"`
	HighQuality4K  *bool       `yaml:"high_quality_4k"`
	UHDMinHeight   *int        `yaml:"uhd_min_height"`
	DeleteOriginal *bool       `yaml:"delete_original"`
	Overwrite      *bool       `yaml:"overwrite_existing"`
	RenamePatterns []string    `yaml:"rename_patterns"`
	ExtProfile     string      `yaml:"extension_profile"`
	Extensions     []string    `yaml:"extensions"`
	FFmpeg         string      `yaml:"ffmpeg"`
	FFprobe        string      `yaml:"ffprobe"`
	WorkDir        string      `yaml:"work_dir"`
	WebhookURL     string      `yaml:"webhook_url"`
	Encode         *fileEncode `yaml:"encode"`
}

type fileEncode struct {
	Video    []string `yaml:"video"`
	Audio    []string `yaml:"audio"`
	VideoUHD []string `yaml:"video_4k"`
	AudioUHD []string `yaml:"audio_4k"`
}

// LoadProfile reads a YAML profile file and merges it into cfg. Unknown keys
// are rejected so a typo in a profile fails loudly instead of silently
// keeping a default.
func LoadProfile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var fp fileProfile
	if err := dec.Decode(&fp); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}

	mergeProfile(cfg, &fp)
	return nil
}

func mergeProfile(cfg *Config, fp *fileProfile) {
	if fp.Container != "" {
		cfg.Container = Container(fp.Container)
	}
	if fp.Placement != "" {
		cfg.Placement = Placement(fp.Placement)
	}
	if fp.Subtitles != "" {
		cfg.Subtitles = SubtitleMode(fp.Subtitles)
	}
	if fp.MaxRetries != nil {
		cfg.MaxRetries = *fp.MaxRetries
	}
	if fp.ValidateAudio != nil {
		cfg.ValidateAudio = *fp.ValidateAudio
	}
	if fp.HighQuality4K != nil {
		cfg.HighQuality4K = *fp.HighQuality4K
	}
	if fp.UHDMinHeight != nil {
		cfg.UHDMinHeight = *fp.UHDMinHeight
	}
	if fp.DeleteOriginal != nil {
		cfg.DeleteOriginal = *fp.DeleteOriginal
	}
	if fp.Overwrite != nil {
		cfg.Overwrite = *fp.Overwrite
	}
	if fp.RenamePatterns != nil {
		cfg.RenamePatterns = fp.RenamePatterns
	}
	if fp.ExtProfile != "" {
		cfg.ExtProfile = fp.ExtProfile
	}
	if fp.Extensions != nil {
		cfg.Extensions = fp.Extensions
	}
	if fp.FFmpeg != "" {
		cfg.FFmpegBin = fp.FFmpeg
	}
	if fp.FFprobe != "" {
		cfg.FFprobeBin = fp.FFprobe
	}
	if fp.WorkDir != "" {
		cfg.WorkDir = fp.WorkDir
	}
	if fp.WebhookURL != "" {
		cfg.WebhookURL = fp.WebhookURL
	}
	if fp.Encode != nil {
		if fp.Encode.Video != nil {
			cfg.Encode.Video = fp.Encode.Video
		}
		if fp.Encode.Audio != nil {
			cfg.Encode.Audio = fp.Encode.Audio
		}
		if fp.Encode.VideoUHD != nil {
			cfg.Encode.VideoUHD = fp.Encode.VideoUHD
		}
		if fp.Encode.AudioUHD != nil {
			cfg.Encode.AudioUHD = fp.Encode.AudioUHD
		}
	}
}

// ApplyEnv overrides cfg fields from environment variables. Called after the
// profile file and before CLI flags, so env beats the file and flags beat env.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("FFMPEG_BINARY"); v != "" {
		cfg.FFmpegBin = v
	}
	if v := os.Getenv("FFPROBE_BINARY"); v != "" {
		cfg.FFprobeBin = v
	}
	if v := os.Getenv("TRANSMUX_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("TRANSMUX_EXT_PROFILE"); v != "" {
		cfg.ExtProfile = v
	}
	if v := os.Getenv("TRANSMUX_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}
}

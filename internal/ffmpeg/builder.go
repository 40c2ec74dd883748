package ffmpeg

import (
	"github.com/backmassage/transmux/internal/config"
)

// RemuxArgs constructs the stream-copy command for one file: every input
// stream is mapped and copied unchanged into the target container. MP4
// cannot carry most subtitle codecs under copy, so the subtitle codec is
// forced to mov_text there; MKV takes subtitle streams as-is.
//
// -y and -nostdin are always present so a retry over a partial output never
// blocks on an overwrite prompt.
func RemuxArgs(cfg *config.Config, input, output string) []string {
	args := preamble(cfg)

	// --- Input ---
	args = append(args, "-i", input)

	// --- Stream copy ---
	args = append(args, "-c", "copy", "-map", "0")
	if cfg.Container == config.ContainerMP4 {
		args = append(args, "-c:s", "mov_text")
	}

	// --- Output ---
	args = append(args, output)
	return args
}

// EncodeArgs constructs the re-encode command for one file. uhd selects the
// 4K parameter set; the caller decides it from the probed source height and
// the high-quality-4K toggle. Subtitle handling follows cfg.Subtitles:
//
//   - none: subtitle streams are not mapped.
//   - keep: subtitle streams are mapped and converted to a codec the target
//     container accepts (mov_text for MP4, copy for MKV).
//   - burn: subtitles are rasterized into the video plane via the subtitles
//     filter; no subtitle streams appear in the output.
func EncodeArgs(cfg *config.Config, input, output string, uhd bool) []string {
	video, audio := cfg.Encode.Video, cfg.Encode.Audio
	if uhd {
		video, audio = cfg.Encode.VideoUHD, cfg.Encode.AudioUHD
	}

	args := preamble(cfg)

	// --- Input ---
	args = append(args, "-i", input)

	// --- Video filter chain (burn-in only, before maps) ---
	if cfg.Subtitles == config.SubsBurn {
		args = append(args, "-vf", "subtitles="+input)
	}

	// --- Stream maps ---
	args = append(args, "-map", "0:v", "-map", "0:a?")
	if cfg.Subtitles == config.SubsKeep {
		args = append(args, "-map", "0:s?")
	}

	// --- Codec parameters ---
	args = append(args, video...)
	args = append(args, audio...)
	if cfg.Subtitles == config.SubsKeep {
		if cfg.Container == config.ContainerMP4 {
			args = append(args, "-c:s", "mov_text")
		} else {
			args = append(args, "-c:s", "copy")
		}
	}

	// --- Output ---
	args = append(args, output)
	return args
}

// preamble builds the shared leading arguments for every ffmpeg invocation.
func preamble(cfg *config.Config) []string {
	args := make([]string, 0, 32)
	args = append(args, "-hide_banner", "-nostdin", "-y")

	// Loglevel: info when verbose, otherwise error.
	if cfg.Verbose {
		args = append(args, "-loglevel", "info", "-stats", "-stats_period", "1")
	} else {
		args = append(args, "-loglevel", "error")
	}
	return args
}

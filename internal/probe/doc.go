// Package probe provides ffprobe-based media inspection. It issues three
// targeted queries rather than one catch-all JSON dump:
//
//   - [Prober.HasAudio]: audio stream presence, used to validate outputs.
//     Fails closed, so a probe error reads as "no audio".
//   - [Prober.Height]: coded height of the first video stream, used to gate
//     the 4K encode parameter set. Zero on any failure.
//   - [Prober.Subtitles]: subtitle stream listing for plan display, with
//     "und" substituted for missing language tags.
//
// All queries go through an [ffmpeg.Runner], so tests drive the prober with
// scripted output instead of a real ffprobe binary.
package probe

package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/ffmpeg"
)

// Prober issues targeted ffprobe queries through a [ffmpeg.Runner]. Each
// query asks for exactly the fields it needs; the flat output formats keep
// parsing trivial and make tool failures distinguishable from absent
// streams.
type Prober struct {
	bin string
	run ffmpeg.Runner
	log zerolog.Logger
}

// New returns a Prober that invokes cfg.FFprobeBin via run.
func New(cfg *config.Config, run ffmpeg.Runner, log zerolog.Logger) *Prober {
	return &Prober{bin: cfg.FFprobeBin, run: run, log: log}
}

// HasAudio reports whether path contains at least one audio stream. The
// check fails closed: a probe error and an empty stream listing both count
// as "no audio", so a truncated or unreadable file can never validate.
func (p *Prober) HasAudio(ctx context.Context, path string) bool {
	res := p.run.Run(ctx, p.bin, []string{
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "default=nokey=1:noprint_wrappers=1",
		path,
	})
	if res.Err != nil {
		p.log.Debug().Err(res.Err).Str("file", path).Msg("audio probe failed")
		return false
	}
	return strings.TrimSpace(res.Stdout) != ""
}

// Height returns the coded height of the first video stream, or 0 when the
// stream is absent, the value is malformed, or the probe fails.
func (p *Prober) Height(ctx context.Context, path string) int {
	res := p.run.Run(ctx, p.bin, []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=height",
		"-of", "csv=p=0",
		path,
	})
	if res.Err != nil {
		p.log.Debug().Err(res.Err).Str("file", path).Msg("height probe failed")
		return 0
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 {
		return 0
	}
	h, err := strconv.Atoi(fields[0])
	if err != nil || h < 0 {
		return 0
	}
	return h
}

// Subtitles lists the subtitle streams in path. Untagged streams get
// language "und" and an empty title. A probe failure yields an empty list.
func (p *Prober) Subtitles(ctx context.Context, path string) []SubtitleTrack {
	res := p.run.Run(ctx, p.bin, []string{
		"-v", "error",
		"-select_streams", "s",
		"-show_entries", "stream=index,codec_name,codec_type:stream_tags=language,title",
		"-of", "json",
		path,
	})
	if res.Err != nil {
		p.log.Debug().Err(res.Err).Str("file", path).Msg("subtitle probe failed")
		return nil
	}
	tracks, err := parseSubtitleJSON([]byte(res.Stdout))
	if err != nil {
		p.log.Debug().Err(err).Str("file", path).Msg("subtitle probe returned malformed JSON")
		return nil
	}
	return tracks
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags"`
}

// parseSubtitleJSON converts raw ffprobe JSON output into subtitle tracks,
// applying the display defaults for missing tags.
func parseSubtitleJSON(data []byte) ([]SubtitleTrack, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	var tracks []SubtitleTrack
	for i := range raw.Streams {
		s := &raw.Streams[i]
		// -select_streams s already filters; skip anything that still
		// reports another codec type.
		if s.CodecType != "" && s.CodecType != "subtitle" {
			continue
		}
		lang := s.Tags["language"]
		if lang == "" {
			lang = "und"
		}
		tracks = append(tracks, SubtitleTrack{
			Index:    s.Index,
			Codec:    s.CodecName,
			Language: lang,
			Title:    s.Tags["title"],
		})
	}
	return tracks, nil
}

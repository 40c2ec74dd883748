package probe

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/ffmpeg"
)

// Realistic ffprobe JSON for a Matroska file with two subtitle streams:
// a tagged ASS track and an untagged PGS track (no tags object at all).
const sampleSubtitles = `{
  "streams": [
    {
      "index": 2,
      "codec_name": "ass",
      "codec_type": "subtitle",
      "tags": { "language": "eng", "title": "Signs & Songs" }
    },
    {
      "index": 3,
      "codec_name": "hdmv_pgs_subtitle",
      "codec_type": "subtitle"
    }
  ]
}`

// Output produced when -select_streams matches nothing.
const sampleNoStreams = `{ "streams": [] }`

type fakeRunner struct {
	result  ffmpeg.Result
	gotBin  string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, bin string, args []string) ffmpeg.Result {
	f.gotBin = bin
	f.gotArgs = args
	return f.result
}

func newTestProber(run ffmpeg.Runner) *Prober {
	cfg := config.DefaultConfig()
	return New(&cfg, run, zerolog.Nop())
}

func TestHasAudio(t *testing.T) {
	tests := []struct {
		name   string
		result ffmpeg.Result
		want   bool
	}{
		{"one stream", ffmpeg.Result{Stdout: "1\n"}, true},
		{"several streams", ffmpeg.Result{Stdout: "1\n2\n3\n"}, true},
		{"no streams", ffmpeg.Result{Stdout: ""}, false},
		{"whitespace only", ffmpeg.Result{Stdout: " \n \n"}, false},
		{"probe error fails closed", ffmpeg.Result{Stdout: "1\n", Err: errors.New("exit status 1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProber(&fakeRunner{result: tt.result})
			if got := p.HasAudio(context.Background(), "/x/a.mp4"); got != tt.want {
				t.Errorf("HasAudio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasAudio_Command(t *testing.T) {
	fr := &fakeRunner{result: ffmpeg.Result{Stdout: "1\n"}}
	p := newTestProber(fr)
	p.HasAudio(context.Background(), "/x/a.mp4")

	if fr.gotBin != "ffprobe" {
		t.Errorf("bin = %q, want ffprobe", fr.gotBin)
	}
	want := []string{
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "default=nokey=1:noprint_wrappers=1",
		"/x/a.mp4",
	}
	if !reflect.DeepEqual(fr.gotArgs, want) {
		t.Errorf("args:\n got %v\nwant %v", fr.gotArgs, want)
	}
}

func TestHeight(t *testing.T) {
	tests := []struct {
		name   string
		result ffmpeg.Result
		want   int
	}{
		{"uhd source", ffmpeg.Result{Stdout: "2160\n"}, 2160},
		{"full hd", ffmpeg.Result{Stdout: "1080"}, 1080},
		{"no video stream", ffmpeg.Result{Stdout: ""}, 0},
		{"malformed value", ffmpeg.Result{Stdout: "N/A\n"}, 0},
		{"probe error", ffmpeg.Result{Stdout: "2160", Err: errors.New("boom")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProber(&fakeRunner{result: tt.result})
			if got := p.Height(context.Background(), "/x/a.mp4"); got != tt.want {
				t.Errorf("Height() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHeight_Command(t *testing.T) {
	fr := &fakeRunner{result: ffmpeg.Result{Stdout: "1080\n"}}
	p := newTestProber(fr)
	p.Height(context.Background(), "/x/a.mp4")

	want := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=height",
		"-of", "csv=p=0",
		"/x/a.mp4",
	}
	if !reflect.DeepEqual(fr.gotArgs, want) {
		t.Errorf("args:\n got %v\nwant %v", fr.gotArgs, want)
	}
}

func TestSubtitles(t *testing.T) {
	tests := []struct {
		name   string
		result ffmpeg.Result
		want   []SubtitleTrack
	}{
		{
			name:   "tagged and untagged tracks",
			result: ffmpeg.Result{Stdout: sampleSubtitles},
			want: []SubtitleTrack{
				{Index: 2, Codec: "ass", Language: "eng", Title: "Signs & Songs"},
				{Index: 3, Codec: "hdmv_pgs_subtitle", Language: "und", Title: ""},
			},
		},
		{
			name:   "no subtitle streams",
			result: ffmpeg.Result{Stdout: sampleNoStreams},
			want:   nil,
		},
		{
			name:   "probe error",
			result: ffmpeg.Result{Stdout: sampleSubtitles, Err: errors.New("exit status 1")},
			want:   nil,
		},
		{
			name:   "malformed JSON",
			result: ffmpeg.Result{Stdout: "{ not json"},
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProber(&fakeRunner{result: tt.result})
			got := p.Subtitles(context.Background(), "/x/a.mkv")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Subtitles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubtitles_Command(t *testing.T) {
	fr := &fakeRunner{result: ffmpeg.Result{Stdout: sampleNoStreams}}
	p := newTestProber(fr)
	p.Subtitles(context.Background(), "/x/a.mkv")

	want := []string{
		"-v", "error",
		"-select_streams", "s",
		"-show_entries", "stream=index,codec_name,codec_type:stream_tags=language,title",
		"-of", "json",
		"/x/a.mkv",
	}
	if !reflect.DeepEqual(fr.gotArgs, want) {
		t.Errorf("args:\n got %v\nwant %v", fr.gotArgs, want)
	}
}

func TestSubtitleTrackString(t *testing.T) {
	tests := []struct {
		name  string
		track SubtitleTrack
		want  string
	}{
		{"with title", SubtitleTrack{Index: 2, Codec: "subrip", Language: "eng", Title: "Signs"}, `#2 [eng] subrip "Signs"`},
		{"without title", SubtitleTrack{Index: 3, Codec: "hdmv_pgs_subtitle", Language: "und"}, "#3 [und] hdmv_pgs_subtitle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

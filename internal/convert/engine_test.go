package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/config"
	"github.com/backmassage/transmux/internal/ffmpeg"
	"github.com/backmassage/transmux/internal/probe"
)

// call records one external invocation for later assertions.
type call struct {
	bin  string
	args []string
}

// scriptRunner serves scripted results: ffmpeg invocations consume the
// results queue in order, ffprobe invocations answer by query type.
type scriptRunner struct {
	t           *testing.T
	results     []ffmpeg.Result // ffmpeg queue, consumed front to back
	audioProbe  ffmpeg.Result
	heightProbe ffmpeg.Result
	calls       []call
	onCall      func(n int)
}

func (s *scriptRunner) Run(_ context.Context, bin string, args []string) ffmpeg.Result {
	s.calls = append(s.calls, call{bin: bin, args: args})
	if s.onCall != nil {
		s.onCall(len(s.calls))
	}
	if bin == "ffprobe" {
		if selectedStreams(args) == "v:0" {
			return s.heightProbe
		}
		return s.audioProbe
	}
	if len(s.results) == 0 {
		s.t.Fatalf("unexpected ffmpeg call: %v", args)
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r
}

// ffmpegCalls returns only the calls made to the ffmpeg binary.
func (s *scriptRunner) ffmpegCalls() []call {
	var out []call
	for _, c := range s.calls {
		if c.bin == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

// probeCalls returns only the calls made to ffprobe.
func (s *scriptRunner) probeCalls() []call {
	var out []call
	for _, c := range s.calls {
		if c.bin == "ffprobe" {
			out = append(out, c)
		}
	}
	return out
}

// selectedStreams returns the value following -select_streams, if any.
func selectedStreams(args []string) string {
	for i, a := range args {
		if a == "-select_streams" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// isRemux reports whether args describe a stream-copy command.
func isRemux(args []string) bool {
	for i, a := range args {
		if a == "-c" && i+1 < len(args) && args[i+1] == "copy" {
			return true
		}
	}
	return false
}

func hasPair(args []string, flag, value string) bool {
	for i, a := range args {
		if a == flag && i+1 < len(args) && args[i+1] == value {
			return true
		}
	}
	return false
}

var (
	okRun   = ffmpeg.Result{}
	failRun = ffmpeg.Result{Stderr: "Conversion failed!", Err: errors.New("exit status 1")}
	audioOK = ffmpeg.Result{Stdout: "1\n"}
	noAudio = ffmpeg.Result{Stdout: ""}
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// testSetup builds a same-dir config rooted in a temp dir with one source
// file. MaxRetries starts at 0 (single attempt); tests raise it as needed.
func testSetup(t *testing.T) (config.Config, string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.InputDir = dir
	cfg.Placement = config.PlacementSameDir
	cfg.WorkDir = filepath.Join(dir, ".transmux")
	cfg.MaxRetries = 0
	source := filepath.Join(dir, "Movie.mkv")
	output := filepath.Join(dir, "Movie.mp4")
	touch(t, source)
	return cfg, source, output
}

func newTestEngine(cfg *config.Config, s *scriptRunner) *Engine {
	p := probe.New(cfg, s, zerolog.Nop())
	return New(cfg, s, p, zerolog.Nop())
}

func TestConvert_RemuxSucceedsFirstTry(t *testing.T) {
	cfg, source, output := testSetup(t)
	s := &scriptRunner{t: t, results: []ffmpeg.Result{okRun}, audioProbe: audioOK}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if !out.Converted || out.Strategy != StrategyRemux || out.Attempts != 1 {
		t.Fatalf("outcome = %+v, want converted via remux in 1 attempt", out)
	}
	if out.Fail != FailNone {
		t.Errorf("Fail = %v, want FailNone", out.Fail)
	}

	fc := s.ffmpegCalls()
	if len(fc) != 1 || !isRemux(fc[0].args) {
		t.Fatalf("ffmpeg calls = %v, want one remux", fc)
	}
	pc := s.probeCalls()
	if len(pc) != 1 || pc[0].args[len(pc[0].args)-1] != output {
		t.Fatalf("probe calls = %v, want one audio probe against the output", pc)
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("source must survive without delete_original: %v", err)
	}
}

func TestConvert_EncodeFallbackWithinSameAttempt(t *testing.T) {
	cfg, source, output := testSetup(t)
	s := &scriptRunner{t: t, results: []ffmpeg.Result{failRun, okRun}, audioProbe: audioOK}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if !out.Converted || out.Strategy != StrategyEncode {
		t.Fatalf("outcome = %+v, want converted via encode", out)
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (fallback shares the attempt)", out.Attempts)
	}
	fc := s.ffmpegCalls()
	if len(fc) != 2 || !isRemux(fc[0].args) || isRemux(fc[1].args) {
		t.Fatalf("ffmpeg calls = %v, want remux then encode", fc)
	}
}

func TestConvert_RetryStartsWithRemuxAgain(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.MaxRetries = 1
	s := &scriptRunner{t: t, results: []ffmpeg.Result{failRun, failRun, okRun}, audioProbe: audioOK}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if !out.Converted || out.Strategy != StrategyRemux || out.Attempts != 2 {
		t.Fatalf("outcome = %+v, want remux success on attempt 2", out)
	}
	fc := s.ffmpegCalls()
	if len(fc) != 3 {
		t.Fatalf("ffmpeg calls = %d, want 3", len(fc))
	}
	wantRemux := []bool{true, false, true}
	for i, c := range fc {
		if isRemux(c.args) != wantRemux[i] {
			t.Errorf("call %d remux = %v, want %v (args %v)", i, isRemux(c.args), wantRemux[i], c.args)
		}
	}
}

func TestConvert_RetriesExhausted(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.MaxRetries = 2
	s := &scriptRunner{t: t, results: []ffmpeg.Result{
		failRun, failRun, failRun, failRun, failRun, failRun,
	}}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if out.Converted {
		t.Fatal("conversion must fail when every attempt fails")
	}
	if out.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3 (initial + 2 retries)", out.Attempts)
	}
	if out.Fail != FailTool {
		t.Errorf("Fail = %v, want FailTool", out.Fail)
	}
	if len(s.ffmpegCalls()) != 6 {
		t.Errorf("ffmpeg calls = %d, want 6 (remux+encode per cycle)", len(s.ffmpegCalls()))
	}

	// The source is relocated under <work>/failed.
	wantMoved := filepath.Join(cfg.FailedDir(), "Movie.mkv")
	if out.MovedTo != wantMoved {
		t.Errorf("MovedTo = %q, want %q", out.MovedTo, wantMoved)
	}
	if _, err := os.Stat(wantMoved); err != nil {
		t.Errorf("failed source not relocated: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("source still present after relocation (err = %v)", err)
	}
}

func TestConvert_AudioValidationRejectsOutput(t *testing.T) {
	cfg, source, output := testSetup(t)
	s := &scriptRunner{t: t, results: []ffmpeg.Result{okRun}, audioProbe: noAudio}

	// Simulate the output ffmpeg would have written; the engine must remove
	// the invalid artifact.
	touch(t, output)

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if out.Converted {
		t.Fatal("silent output must not count as converted")
	}
	if out.Fail != FailAudio {
		t.Errorf("Fail = %v, want FailAudio", out.Fail)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("invalid output not removed (err = %v)", err)
	}
}

func TestConvert_AudioValidationDisabledSkipsProbe(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.ValidateAudio = false
	s := &scriptRunner{t: t, results: []ffmpeg.Result{okRun}, audioProbe: noAudio}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if !out.Converted {
		t.Fatal("conversion must succeed with validation disabled")
	}
	if len(s.probeCalls()) != 0 {
		t.Errorf("probe calls = %v, want none", s.probeCalls())
	}
}

func TestConvert_UHDSelectsHighQualityParams(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.HighQuality4K = true
	s := &scriptRunner{
		t:           t,
		results:     []ffmpeg.Result{failRun, okRun},
		audioProbe:  audioOK,
		heightProbe: ffmpeg.Result{Stdout: "2160\n"},
	}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if !out.Converted || out.Strategy != StrategyEncode {
		t.Fatalf("outcome = %+v, want converted via encode", out)
	}
	fc := s.ffmpegCalls()
	enc := fc[len(fc)-1].args
	if !hasPair(enc, "-crf", "16") || !hasPair(enc, "-b:a", "640k") {
		t.Errorf("encode args %v missing 4K parameter set", enc)
	}
}

func TestConvert_UHDToggleOffSkipsHeightProbe(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.HighQuality4K = false
	s := &scriptRunner{
		t:           t,
		results:     []ffmpeg.Result{failRun, okRun},
		audioProbe:  audioOK,
		heightProbe: ffmpeg.Result{Stdout: "2160\n"},
	}

	newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	for _, c := range s.probeCalls() {
		if selectedStreams(c.args) == "v:0" {
			t.Errorf("height probed with high_quality_4k disabled: %v", c.args)
		}
	}
	fc := s.ffmpegCalls()
	enc := fc[len(fc)-1].args
	if !hasPair(enc, "-crf", "18") {
		t.Errorf("encode args %v missing standard parameter set", enc)
	}
}

func TestConvert_UHDBelowThresholdUsesStandardParams(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.HighQuality4K = true
	s := &scriptRunner{
		t:           t,
		results:     []ffmpeg.Result{failRun, okRun},
		audioProbe:  audioOK,
		heightProbe: ffmpeg.Result{Stdout: "1080\n"},
	}

	newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	fc := s.ffmpegCalls()
	enc := fc[len(fc)-1].args
	if !hasPair(enc, "-crf", "18") {
		t.Errorf("encode args %v: 1080p source must use the standard set", enc)
	}
}

func TestConvert_DeleteOriginalAfterValidatedSuccess(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.DeleteOriginal = true
	s := &scriptRunner{t: t, results: []ffmpeg.Result{okRun}, audioProbe: audioOK}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if !out.Converted || !out.SourceRemoved {
		t.Fatalf("outcome = %+v, want converted with source removed", out)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("original still on disk (err = %v)", err)
	}
}

func TestConvert_CancellationStopsRetryLoop(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.MaxRetries = 3

	ctx, cancel := context.WithCancel(context.Background())
	s := &scriptRunner{t: t, results: []ffmpeg.Result{failRun, failRun}}
	s.onCall = func(n int) {
		if n == 1 {
			cancel()
		}
	}

	out := newTestEngine(&cfg, s).Convert(ctx, source, output)

	if out.Converted {
		t.Fatal("cancelled conversion must not report success")
	}
	if out.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (no retries after cancel)", out.Attempts)
	}
}

func TestConvert_LastFailureCauseWins(t *testing.T) {
	cfg, source, output := testSetup(t)
	cfg.MaxRetries = 1
	// Cycle 1: tool failure (remux and encode both die).
	// Cycle 2: remux succeeds but the output has no audio.
	s := &scriptRunner{t: t, results: []ffmpeg.Result{failRun, failRun, okRun}, audioProbe: noAudio}

	out := newTestEngine(&cfg, s).Convert(context.Background(), source, output)

	if out.Converted {
		t.Fatal("conversion must fail")
	}
	if out.Fail != FailAudio {
		t.Errorf("Fail = %v, want FailAudio (cause of the final attempt)", out.Fail)
	}
}

func TestMoveFile_Rename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mkv")
	dst := filepath.Join(dir, "b.mkv")
	touch(t, src)

	if err := moveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present (err = %v)", err)
	}
}

func TestCopyFile_PreservesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	dst := filepath.Join(dir, "b.bin")
	want := []byte("not actually a video")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("content = %q, want %q", got, want)
	}
}

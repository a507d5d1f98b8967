package frames

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dojotrack/technique-analyzer/pkg/logger"
	"github.com/pkg/errors"
)

const (
	// DefaultFrameCount is used when a submission does not set one.
	DefaultFrameCount = 10
	// MaxEdge bounds the longest edge of an extracted frame; the scoring
	// service rejects larger inputs.
	MaxEdge = 1024
)

// Frame is a single still image extracted from a video, JPEG-encoded.
// Index is the frame's position in the source video.
type Frame struct {
	Index int
	Data  []byte
}

// Sampler extracts an ordered, evenly spaced sequence of stills from a video.
type Sampler interface {
	Sample(ctx context.Context, videoPath string, n int) ([]Frame, error)
}

// ExtractionError reports a video that could not be opened, decoded, or that
// yielded no usable frames. A job whose sampling ends in one of these must
// never reach scoring.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("frame extraction failed for %q: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// SampleIndices selects n evenly distributed frame indices over [0, total).
// When total <= n every index is returned. Indices are strictly increasing
// for total >= n, so no frame is picked twice.
func SampleIndices(total, n int) []int {
	if total <= 0 {
		return nil
	}
	if n <= 0 {
		n = DefaultFrameCount
	}
	if total <= n {
		idxs := make([]int, total)
		for i := range idxs {
			idxs[i] = i
		}
		return idxs
	}
	idxs := make([]int, n)
	for i := 0; i < n; i++ {
		idxs[i] = i * total / n
	}
	return idxs
}

type ffmpegSampler struct {
	logger logger.Logger
}

func NewFFmpegSampler(log logger.Logger) Sampler {
	return &ffmpegSampler{logger: log}
}

func (s *ffmpegSampler) Sample(ctx context.Context, videoPath string, n int) ([]Frame, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, &ExtractionError{Path: videoPath, Err: err}
	}

	total, err := s.probeFrameCount(ctx, videoPath)
	if err != nil {
		return nil, &ExtractionError{Path: videoPath, Err: err}
	}
	if total == 0 {
		return nil, &ExtractionError{Path: videoPath, Err: errors.New("video has zero frames")}
	}

	idxs := SampleIndices(total, n)

	frameDir, err := os.MkdirTemp("", "analyzer_frames_")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create frame directory")
	}
	defer os.RemoveAll(frameDir)

	if err := s.extract(ctx, videoPath, frameDir, idxs); err != nil {
		return nil, &ExtractionError{Path: videoPath, Err: err}
	}

	frames, err := s.collect(frameDir, idxs)
	if err != nil {
		return nil, &ExtractionError{Path: videoPath, Err: err}
	}
	if len(frames) == 0 {
		return nil, &ExtractionError{Path: videoPath, Err: errors.New("no decodable frames at requested indices")}
	}

	s.logger.Infof("sampled %d/%d frames from %s (total frames: %d)", len(frames), len(idxs), videoPath, total)
	return frames, nil
}

// probeFrameCount reads the video stream's frame count via ffprobe, falling
// back to duration * frame rate for containers that do not carry nb_frames.
func (s *ffmpegSampler) probeFrameCount(ctx context.Context, inputPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=nb_frames", "-of", "csv=p=0", inputPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %v output: %v", err, string(output))
	}

	raw := strings.TrimSpace(string(output))
	if total, err := strconv.Atoi(raw); err == nil && total > 0 {
		return total, nil
	}

	cmd = exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate:format=duration", "-of", "csv=p=0", inputPath)
	output, err = cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe fallback error: %v output: %v", err, string(output))
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("unexpected ffprobe output: %s", string(output))
	}
	rate, err := parseFrameRate(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, err
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %v", err)
	}
	return int(duration * rate), nil
}

// parseFrameRate parses ffprobe's "num/den" rational frame rate.
func parseFrameRate(raw string) (float64, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil {
			return rate, nil
		}
		return 0, fmt.Errorf("invalid frame rate: %s", raw)
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate numerator: %v", err)
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0, fmt.Errorf("invalid frame rate denominator: %s", raw)
	}
	return num / den, nil
}

// extract pulls the selected frames in a single ffmpeg pass, downscaling so
// the longest edge stays within MaxEdge without upscaling smaller videos.
func (s *ffmpegSampler) extract(ctx context.Context, inputPath, frameDir string, idxs []int) error {
	exprs := make([]string, len(idxs))
	for i, idx := range idxs {
		exprs[i] = fmt.Sprintf("eq(n\\,%d)", idx)
	}
	filter := fmt.Sprintf(
		"select='%s',scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		strings.Join(exprs, "+"), MaxEdge, MaxEdge,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-vf", filter,
		"-vsync", "0",
		"-q:v", "2",
		"-y", filepath.Join(frameDir, "frame_%04d.jpg"),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %v output: %s", err, string(output))
	}
	return nil
}

// collect reads the extracted JPEGs back in temporal order, labelling the
// file named frame_000k.jpg with the k-th requested index. The labels are
// best-effort: if the decoder drops a selected frame the later outputs shift
// down by one, so Index may point at the preceding requested slot. Order is
// still correct, which is what prompt assembly relies on.
func (s *ffmpegSampler) collect(frameDir string, idxs []int) ([]Frame, error) {
	paths, err := filepath.Glob(filepath.Join(frameDir, "frame_*.jpg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	frames := make([]Frame, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warnf("skipping unreadable frame %s: %v", path, err)
			continue
		}
		index := -1
		if n, ok := frameNumber(path); ok && n >= 1 && n <= len(idxs) {
			index = idxs[n-1]
		}
		frames = append(frames, Frame{Index: index, Data: data})
	}
	return frames, nil
}

// frameNumber parses the sequence number out of a frame_%04d.jpg filename.
func frameNumber(path string) (int, bool) {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, "frame_")
	name = strings.TrimSuffix(name, ".jpg")
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response. Only codec type and durations are requested; that keeps the
// probe fast on large recordings.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "stream=codec_type,codec_name,duration,width,height:format=duration,size",
		"-of", "json",
		"--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	result, perr := Parse(output)
	if perr != nil {
		return Result{}, perr
	}
	return result, nil
}

// Parse decodes a raw ffprobe JSON payload.
func Parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), payload...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// ContainerDurationMS returns the container duration in integer
// milliseconds, or 0 when unavailable.
func (r Result) ContainerDurationMS() int64 {
	return durationMS(r.Format.Duration)
}

// VideoDurationMS returns the first video stream's duration in integer
// milliseconds, or 0 when no video stream reports one.
func (r Result) VideoDurationMS() int64 {
	return r.streamDurationMS("video")
}

// AudioDurationMS returns the first audio stream's duration in integer
// milliseconds, or 0 when no audio stream reports one.
func (r Result) AudioDurationMS() int64 {
	return r.streamDurationMS("audio")
}

// AVOffsetMS is the video duration minus the audio duration in integer
// milliseconds. It is zero when either stream's duration is unknown, so an
// audio-less recording never trips the sync gate.
func (r Result) AVOffsetMS() int64 {
	video := r.VideoDurationMS()
	audio := r.AudioDurationMS()
	if video == 0 || audio == 0 {
		return 0
	}
	return video - audio
}

// VideoDimensions returns the first video stream's width and height, or
// zeros when no video stream is present.
func (r Result) VideoDimensions() (int, int) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream.Width, stream.Height
		}
	}
	return 0, 0
}

// HasAudio reports whether any audio stream is present.
func (r Result) HasAudio() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return true
		}
	}
	return false
}

func (r Result) streamDurationMS(codecType string) int64 {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			if ms := durationMS(stream.Duration); ms > 0 {
				return ms
			}
		}
	}
	return 0
}

func durationMS(value string) int64 {
	seconds := parseFloat(value)
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

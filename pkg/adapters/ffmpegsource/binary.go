// Package ffmpegsource decodes video by running the ffmpeg command-line tool
// and reading raw RGB24 frames from its standard output.
package ffmpegsource

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
var ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found")

// ErrFFprobeNotFound is returned when no ffprobe binary can be located.
var ErrFFprobeNotFound = errors.New("ffmpegsource: ffprobe not found")

// FindFFmpeg locates ffmpeg. Priority: custom path, FFMPEG_PATH, PATH, common
// install locations.
func FindFFmpeg(custom string) (string, error) {
	return findBinary("ffmpeg", custom, "FFMPEG_PATH", ErrFFmpegNotFound)
}

// FindFFprobe locates ffprobe. A custom ffmpeg path is used to derive a
// sibling ffprobe before falling back to FFPROBE_PATH, PATH and common
// install locations.
func FindFFprobe(custom, ffmpegPath string) (string, error) {
	if custom == "" && ffmpegPath != "" && filepath.IsAbs(ffmpegPath) {
		candidate := filepath.Join(filepath.Dir(ffmpegPath), executable("ffprobe"))
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return findBinary("ffprobe", custom, "FFPROBE_PATH", ErrFFprobeNotFound)
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable(custom string) bool {
	_, err := FindFFmpeg(custom)
	return err == nil
}

func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func findBinary(name, custom, envVar string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", notFound, envVar, envPath)
	}

	execName := executable(name)
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var dirs []string
	switch runtime.GOOS {
	case "windows":
		dirs = []string{`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`, `C:\Program Files (x86)\ffmpeg\bin`}
	case "darwin":
		dirs = []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}
	default:
		dirs = []string{"/usr/bin", "/usr/local/bin", "/opt/homebrew/bin", "/snap/bin"}
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

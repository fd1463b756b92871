package ffmpeg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Private variables (alphabetical)

// ffmpegVersionRegex is used to detect FFmpeg version from version string.
// It extracts the numeric version (e.g., 4.4.1) from FFmpeg's version output.
var ffmpegVersionRegex = regexp.MustCompile(`(?i)(?:version|ffmpeg)\s+(?:n|\w)?(\d+\.\d+(?:\.\d+(?:\.\d+)?)?)`)

// Private functions (alphabetical)

// checkFFmpegExistence confirms if FFmpeg is installed on the system by searching for the executable.
// It first looks for the ffmpeg executable in the user's PATH environment variable.
// If not found there, it checks common installation directories based on the operating system.
func checkFFmpegExistence() (string, bool) {
	pathCmd, err := exec.LookPath("ffmpeg")
	if err == nil {
		return pathCmd, true
	}

	for _, path := range getCommonInstallPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// extractConfiguration finds the configuration line in FFmpeg output.
func extractConfiguration(lines []string) string {
	for _, line := range lines {
		if strings.HasPrefix(line, "  configuration:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "  configuration:"))
		}
	}
	return ""
}

// extractLibraries parses the libraries section from FFmpeg output.
func extractLibraries(lines []string) []string {
	var libraries []string
	capturing := false

	for _, line := range lines {
		if strings.HasPrefix(line, "  lib") {
			capturing = true
			libraries = append(libraries, strings.TrimSpace(line))
			continue
		}
		if capturing && line != "" {
			break
		}
	}
	return libraries
}

// extractVersion extracts the version number, configuration, and libraries from FFmpeg version output.
// An unparseable version is reported as "unknown".
func extractVersion(versionOutput string) (string, string, []string) {
	version, configuration, libraries := extractVersionInfo(versionOutput)
	if version == "" {
		version = "unknown"
	}
	return version, configuration, libraries
}

// extractVersionInfo parses FFmpeg's version output to extract version, configuration and libraries.
func extractVersionInfo(versionOutput string) (string, string, []string) {
	lines := strings.Split(versionOutput, "\n")
	if len(lines) == 0 {
		return "", "", nil
	}
	version := parseVersionFromFirstLine(lines[0])
	if version == "" {
		if matches := ffmpegVersionRegex.FindStringSubmatch(versionOutput); len(matches) >= 2 {
			version = matches[1]
		}
	}
	return version, extractConfiguration(lines), extractLibraries(lines)
}

// getCommonInstallPaths returns a list of common FFmpeg installation paths for the current OS.
func getCommonInstallPaths() []string {
	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	switch runtime.GOOS {
	case "windows":
		searchPaths := []string{
			filepath.Join("C:", "Program Files", "FFmpeg", "bin", execName),
			filepath.Join("C:", "Program Files (x86)", "FFmpeg", "bin", execName),
			filepath.Join("C:", "FFmpeg", "bin", execName),
		}
		if programFiles := os.Getenv("ProgramFiles"); programFiles != "" {
			searchPaths = append(searchPaths, filepath.Join(programFiles, "FFmpeg", "bin", execName))
		}
		return searchPaths
	case "darwin":
		return []string{
			filepath.Join("/usr", "local", "bin", execName),
			filepath.Join("/opt", "local", "bin", execName),
			filepath.Join("/opt", "homebrew", "bin", execName),
		}
	}
	return []string{
		filepath.Join("/usr", "bin", execName),
		filepath.Join("/usr", "local", "bin", execName),
		filepath.Join("/opt", "ffmpeg", "bin", execName),
	}
}

// getFFmpegVersion retrieves and parses the version information from the FFmpeg executable.
func getFFmpegVersion(ffmpegPath string) (string, string, []string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), GetDefaultTimeout())
	defer cancel()

	output, err := exec.CommandContext(ctx, ffmpegPath, "-version").Output()
	if err != nil {
		return "", "", nil, FormatError("error getting FFmpeg version: %w", err)
	}
	version, configuration, libraries := extractVersion(string(output))
	return version, configuration, libraries, nil
}

// parseEncoders returns the encoder names listed by ffmpeg -encoders.
func parseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	listing := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "------") {
			listing = true
			continue
		}
		if !listing {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 2 {
			encoders[fields[1]] = true
		}
	}
	return encoders
}

// parseVersionFromFirstLine parses the version string from the first line of FFmpeg output.
func parseVersionFromFirstLine(firstLine string) string {
	versionParts := strings.Split(firstLine, " version ")
	if len(versionParts) > 1 {
		remainingParts := strings.Split(versionParts[1], " ")
		if len(remainingParts) > 0 {
			versionStr := strings.TrimPrefix(remainingParts[0], "n")
			if idx := strings.Index(versionStr, "-dev"); idx > 0 {
				versionStr = versionStr[:idx]
			}
			return versionStr
		}
	}

	if strings.Contains(firstLine, "(c)") {
		return "(c)"
	}
	return ""
}

// Public functions (alphabetical)

// DetectFFmpeg locates and identifies FFmpeg installation on the system.
// It returns an FFmpegInfo struct with details including path, version and
// build configuration. A missing installation is not an error.
func DetectFFmpeg() (*FFmpegInfo, error) {
	ffmpegPath, found := checkFFmpegExistence()
	if !found {
		return &FFmpegInfo{Installed: false, Version: "unknown"}, nil
	}

	version, configuration, libraries, err := getFFmpegVersion(ffmpegPath)
	if err != nil {
		return &FFmpegInfo{Installed: false, Version: "unknown"}, err
	}

	return &FFmpegInfo{
		Installed:     true,
		Path:          ffmpegPath,
		Version:       version,
		Configuration: configuration,
		Libraries:     libraries,
	}, nil
}

// FindFFmpeg returns the FFmpeg installation at path, or detects one when
// path is empty.
func FindFFmpeg(path string) (*FFmpegInfo, error) {
	if path == "" {
		return DetectFFmpeg()
	}
	if _, err := os.Stat(path); err != nil {
		resolved, lookErr := exec.LookPath(path)
		if lookErr != nil {
			return &FFmpegInfo{Installed: false, Version: "unknown"}, FormatError("ffmpeg not found at %s: %w", path, err)
		}
		path = resolved
	}
	version, configuration, libraries, err := getFFmpegVersion(path)
	if err != nil {
		return &FFmpegInfo{Installed: false, Path: path, Version: "unknown"}, err
	}
	return &FFmpegInfo{
		Installed:     true,
		Path:          path,
		Version:       version,
		Configuration: configuration,
		Libraries:     libraries,
	}, nil
}

// GetExecutablePaths gets the paths to FFmpeg, FFplay and FFprobe.
// It assumes the tools are located in the same directory as FFmpeg.
func GetExecutablePaths(ffmpegPath string) *ExecutablePaths {
	sibling := func(name string) string {
		path := filepath.Join(filepath.Dir(ffmpegPath), name)
		if runtime.GOOS == "windows" {
			path += ".exe"
		}
		return path
	}
	return &ExecutablePaths{
		FFmpeg:  ffmpegPath,
		FFplay:  sibling("ffplay"),
		FFprobe: sibling("ffprobe"),
	}
}

// GetFFmpegPath attempts to detect the path to the FFmpeg executable.
// It returns the path if found, or an empty string if not found.
func GetFFmpegPath() string {
	ffmpegPath, found := checkFFmpegExistence()
	if found {
		return ffmpegPath
	}
	return ""
}

// HasEncoder reports whether the FFmpeg installation can encode with the
// named encoder, for example libvpx-vp9 or h264_nvenc.
func HasEncoder(ctx context.Context, info *FFmpegInfo, encoder string) (bool, error) {
	if info == nil || !info.Installed {
		return false, FormatError("ffmpeg not available")
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, info.Path, "-hide_banner", "-encoders")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return false, FormatError("listing encoders: %w", err)
	}
	return parseEncoders(out.String())[encoder], nil
}

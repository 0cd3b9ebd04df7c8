package recording

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// ConfigurationError indicates a malformed mapping or settings input. It
// aborts the run, unlike per-channel analysis failures.
type ConfigurationError struct {
	msg string
}

func NewConfigurationError(msg string) *ConfigurationError {
	return &ConfigurationError{msg}
}

func (e *ConfigurationError) Error() string {
	return e.msg
}

// LoadChannelMap reads an ordered list of channel names, one per line.
// A line may also be a CSV row, in which case its first field is used.
// Blank lines and lines starting with '#' are skipped. Returns a
// ConfigurationError if the file cannot be read or contains no usable names.
func LoadChannelMap(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("opening channel map '%s': %s", path, err))
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !utf8.ValidString(line) {
			return nil, NewConfigurationError(fmt.Sprintf("channel map '%s' is not a text file", path))
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("reading channel map '%s': %s", path, err))
	}
	if len(names) == 0 {
		return nil, NewConfigurationError(fmt.Sprintf("channel map '%s' contains no names", path))
	}
	return names, nil
}

// ResolveChannelNames produces a display name for every channel index.
// Mapped indices take the supplied name; the rest fall back to "Channel N"
// (1-indexed). A mapping longer than the channel count is truncated, a
// shorter one is never an error.
func ResolveChannelNames(channelCount int, mapped []string) []string {
	names := make([]string, channelCount)
	for i := range names {
		if i < len(mapped) && mapped[i] != "" {
			names[i] = mapped[i]
			continue
		}
		names[i] = fmt.Sprintf("Channel %d", i+1)
	}
	return names
}

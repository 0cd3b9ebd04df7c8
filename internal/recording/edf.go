package recording

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OpenPSG/edf"
)

const edfReadChunk = 8192

// LoadEDF reads a recording from an EDF/EDF+ file. Signals are read in full
// and converted to their physical values by the decoder. The reader does not
// expose the signal headers, so the sample rate comes from configuration and
// channel names from the mapping resolver, same as for CSV input.
func LoadEDF(path string, sampleRate float64) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	er, err := edf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("parsing EDF header '%s': %w", path, err)
	}

	var series [][]float64
	for i := 0; ; i++ {
		sr, err := er.Signal(i)
		if err != nil {
			// The reader reports an out-of-range index as an error,
			// which is the only way to learn the signal count.
			break
		}

		samples, err := readSignal(sr)
		if err != nil {
			return nil, fmt.Errorf("reading EDF signal %d: %w", i, err)
		}
		series = append(series, samples)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("reading recording '%s': no signals found", path)
	}

	rec, err := New(path, sampleRate, series)
	if err != nil {
		return nil, fmt.Errorf("reading recording '%s': %w", path, err)
	}
	return rec, nil
}

func readSignal(sr *edf.SignalReader) ([]float64, error) {
	var samples []float64
	buf := make([]float64, edfReadChunk)
	for {
		n, err := sr.Read(buf)
		samples = append(samples, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

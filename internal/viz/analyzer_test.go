package viz

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func sineWindow(n int, freq, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestNewAnalyzerDefaults(t *testing.T) {
	a := NewAnalyzer(0, -1, 0)

	if a.fftSize != DefaultFFTSize {
		t.Errorf("fftSize = %d, want %d", a.fftSize, DefaultFFTSize)
	}
	if a.spectrumBins != DefaultSpectrumBins {
		t.Errorf("spectrumBins = %d, want %d", a.spectrumBins, DefaultSpectrumBins)
	}
	if a.waveformSamples != DefaultWaveformSamples {
		t.Errorf("waveformSamples = %d, want %d", a.waveformSamples, DefaultWaveformSamples)
	}
}

// Degenerate fft sizes would leave the Hann window undefined.
func TestNewAnalyzerRejectsTinyFFT(t *testing.T) {
	a := NewAnalyzer(1, 16, 100)

	if a.fftSize != DefaultFFTSize {
		t.Errorf("fftSize = %d, want fallback %d", a.fftSize, DefaultFFTSize)
	}
	for i, v := range a.window {
		if math.IsNaN(v) {
			t.Fatalf("window[%d] is NaN", i)
		}
	}
}

func TestSingleBinSpectrum(t *testing.T) {
	a := NewAnalyzer(1024, 1, 100)
	bins := a.Spectrum(sineWindow(4096, 440, 44100))

	if len(bins) != 1 {
		t.Fatalf("len = %d, want 1", len(bins))
	}
	if bins[0] < 0 || bins[0] > 1 {
		t.Errorf("bin = %v, out of [0,1]", bins[0])
	}
}

func TestSingleSampleWaveform(t *testing.T) {
	a := NewAnalyzer(1024, 16, 1)
	window := make([]float64, 4096)
	window[0] = 0.5

	wave := a.Waveform(window)

	if len(wave) != 1 {
		t.Fatalf("len = %d, want 1", len(wave))
	}
	if !approxEqual(wave[0], 1) {
		t.Errorf("sample = %v, want 1 (first sample, peak normalized)", wave[0])
	}
}

func TestSpectrumShapeAndRange(t *testing.T) {
	a := NewAnalyzer(2048, 32, 100)
	bins := a.Spectrum(sineWindow(2048, 440, 44100))

	if len(bins) != 32 {
		t.Fatalf("len = %d, want 32", len(bins))
	}
	var peak float64
	for i, v := range bins {
		if v < 0 || v > 1 {
			t.Errorf("bin %d = %v, out of [0,1]", i, v)
		}
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		t.Error("spectrum of a pure tone should have at least one non-zero bin")
	}
}

func TestSpectrumDeterministic(t *testing.T) {
	a := NewAnalyzer(1024, 16, 100)
	window := sineWindow(1024, 1000, 44100)

	first := a.Spectrum(window)
	second := a.Spectrum(window)

	for i := range first {
		if !approxEqual(first[i], second[i]) {
			t.Fatalf("bin %d differs between identical calls: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSpectrumSilenceIsAllZero(t *testing.T) {
	a := NewAnalyzer(1024, 16, 100)
	bins := a.Spectrum(make([]float64, 1024))

	for i, v := range bins {
		if v != 0 {
			t.Errorf("bin %d = %v, want 0 for a silent window", i, v)
		}
	}
}

func TestSpectrumShortWindow(t *testing.T) {
	a := NewAnalyzer(1024, 16, 100)
	bins := a.Spectrum(sineWindow(300, 440, 44100))

	if len(bins) != 16 {
		t.Fatalf("len = %d, want 16", len(bins))
	}
	for i, v := range bins {
		if v < 0 || v > 1 {
			t.Errorf("bin %d = %v, out of [0,1]", i, v)
		}
	}
}

func TestWaveformDownsampleAndNormalize(t *testing.T) {
	a := NewAnalyzer(1024, 16, 50)
	window := make([]float64, 1000)
	for i := range window {
		window[i] = 0.25 * math.Sin(2*math.Pi*float64(i)/100)
	}

	wave := a.Waveform(window)

	if len(wave) != 50 {
		t.Fatalf("len = %d, want 50", len(wave))
	}
	var peak float64
	for i, v := range wave {
		if v < -1 || v > 1 {
			t.Errorf("sample %d = %v, out of [-1,1]", i, v)
		}
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}
	if !approxEqual(peak, 1) {
		t.Errorf("peak = %v, want 1 after normalization", peak)
	}
}

func TestWaveformSilence(t *testing.T) {
	a := NewAnalyzer(1024, 16, 50)
	for i, v := range a.Waveform(make([]float64, 1000)) {
		if v != 0 {
			t.Errorf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestWaveformShortWindow(t *testing.T) {
	a := NewAnalyzer(1024, 16, 50)
	wave := a.Waveform([]float64{0.5, -0.5})

	if len(wave) != 50 {
		t.Fatalf("len = %d, want 50", len(wave))
	}
	if !approxEqual(wave[0], 1) || !approxEqual(wave[1], -1) {
		t.Errorf("head = [%v %v], want [1 -1]", wave[0], wave[1])
	}
	for i := 2; i < 50; i++ {
		if wave[i] != 0 {
			t.Errorf("padding sample %d = %v, want 0", i, wave[i])
		}
	}
}

func TestVUSmoothingMono(t *testing.T) {
	a := NewAnalyzer(1024, 16, 100)
	window := make([]float64, 256)
	for i := range window {
		window[i] = 0.5
	}

	left, right := a.updateVU(window, 1)
	if !approxEqual(left, 0.1) {
		t.Errorf("left after first window = %v, want 0.1", left)
	}
	if !approxEqual(left, right) {
		t.Errorf("mono input should drive both channels equally: %v vs %v", left, right)
	}

	left, _ = a.updateVU(window, 1)
	if !approxEqual(left, 0.18) {
		t.Errorf("left after second window = %v, want 0.18", left)
	}
}

func TestVUStereoChannels(t *testing.T) {
	a := NewAnalyzer(1024, 16, 100)

	// Interleaved: left at 0.5, right silent.
	window := make([]float64, 256)
	for i := 0; i < len(window); i += 2 {
		window[i] = 0.5
	}

	left, right := a.updateVU(window, 2)
	if !approxEqual(left, 0.1) {
		t.Errorf("left = %v, want 0.1", left)
	}
	if right != 0 {
		t.Errorf("right = %v, want 0", right)
	}
}

func TestVUReset(t *testing.T) {
	a := NewAnalyzer(1024, 16, 100)
	a.updateVU([]float64{1, 1, 1, 1}, 1)
	a.Reset()

	if l, r := a.VU(); l != 0 || r != 0 {
		t.Errorf("VU after Reset = (%v, %v), want (0, 0)", l, r)
	}
}

func TestProcessStereoFrame(t *testing.T) {
	a := NewAnalyzer(512, 16, 50)
	window := sineWindow(1024, 440, 44100)

	frame := a.Process(window, 2)

	if len(frame.Spectrum) != 16 {
		t.Errorf("Spectrum len = %d, want 16", len(frame.Spectrum))
	}
	if len(frame.Waveform) != 50 {
		t.Errorf("Waveform len = %d, want 50", len(frame.Waveform))
	}
	if frame.VULeft < 0 || frame.VULeft > 1 || frame.VURight < 0 || frame.VURight > 1 {
		t.Errorf("VU = (%v, %v), out of [0,1]", frame.VULeft, frame.VURight)
	}
}

func TestMonoMix(t *testing.T) {
	mono := monoMix([]float64{1, 0, 0.5, 0.5}, 2)
	if len(mono) != 2 {
		t.Fatalf("len = %d, want 2", len(mono))
	}
	if !approxEqual(mono[0], 0.5) || !approxEqual(mono[1], 0.5) {
		t.Errorf("mono = %v, want [0.5 0.5]", mono)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}

	tests := []struct {
		q        float64
		expected float64
	}{
		{0, 0},
		{5, 0.45},
		{50, 4.5},
		{95, 8.55},
		{100, 9},
	}

	for _, tt := range tests {
		if got := percentile(values, tt.q); !approxEqual(got, tt.expected) {
			t.Errorf("percentile(%v) = %v, want %v", tt.q, got, tt.expected)
		}
	}

	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile of empty input = %v, want 0", got)
	}
}

func TestResampleLog(t *testing.T) {
	t.Run("short input pads", func(t *testing.T) {
		out := resampleLog([]float64{0.1, 0.2}, 4)
		want := []float64{0.1, 0.2, 0, 0}
		for i := range want {
			if !approxEqual(out[i], want[i]) {
				t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
			}
		}
	})

	t.Run("log spacing favors low indices", func(t *testing.T) {
		in := make([]float64, 1000)
		for i := range in {
			in[i] = float64(i)
		}
		out := resampleLog(in, 10)

		if len(out) != 10 {
			t.Fatalf("len = %d, want 10", len(out))
		}
		// Indices must be non-decreasing and end at the top of the input.
		for i := 1; i < len(out); i++ {
			if out[i] < out[i-1] {
				t.Errorf("bin %d (%v) decreased from bin %d (%v)", i, out[i], i-1, out[i-1])
			}
		}
		if out[9] != 999 {
			t.Errorf("last bin = %v, want 999 (clamped to top index)", out[9])
		}
		// More than half the bins should come from the lower half of the input.
		low := 0
		for _, v := range out {
			if v < 500 {
				low++
			}
		}
		if low <= 5 {
			t.Errorf("only %d of 10 bins from the lower half, want log-heavy spacing", low)
		}
	})
}

// Package viz turns PCM windows into normalized visualization frames:
// spectrum bins, waveform samples, and VU levels.
package viz

import (
	"math"
	"sort"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// DefaultFFTSize is the analysis window length in samples.
	DefaultFFTSize = 2048
	// DefaultSpectrumBins is the number of spectrum bars produced.
	DefaultSpectrumBins = 32
	// DefaultWaveformSamples is the number of waveform points produced.
	DefaultWaveformSamples = 100

	// vuSmoothing is the exponential smoothing factor for VU levels
	// (higher = smoother).
	vuSmoothing = 0.8
	// epsilon guards log10 and the dynamic-range collapse check.
	epsilon = 1e-6
	// gammaExponent lifts quiet content; 0.5 is a square-root curve.
	gammaExponent = 0.5
	// spectrumCeiling caps bar fullness so peaks don't pin at 1.0.
	spectrumCeiling = 0.6
)

// Frame is one ephemeral visualization snapshot. Spectrum values are in
// [0,1], waveform values in [-1,1], VU levels in [0,1].
type Frame struct {
	Spectrum []float64
	Waveform []float64
	VULeft   float64
	VURight  float64
}

// Analyzer computes visualization frames from PCM windows. Apart from the
// VU smoothing accumulators it holds no state between calls: the same input
// window always yields the same spectrum and waveform.
type Analyzer struct {
	fftSize         int
	spectrumBins    int
	waveformSamples int

	window []float64 // precomputed Hann coefficients
	buf    []float64 // reusable FFT input buffer

	vuLeft  float64
	vuRight float64
}

// NewAnalyzer creates an Analyzer. Non-positive arguments fall back to the
// package defaults; fftSize must be at least 2 for the Hann window to be
// well defined.
func NewAnalyzer(fftSize, spectrumBins, waveformSamples int) *Analyzer {
	if fftSize < 2 {
		fftSize = DefaultFFTSize
	}
	if spectrumBins <= 0 {
		spectrumBins = DefaultSpectrumBins
	}
	if waveformSamples <= 0 {
		waveformSamples = DefaultWaveformSamples
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	return &Analyzer{
		fftSize:         fftSize,
		spectrumBins:    spectrumBins,
		waveformSamples: waveformSamples,
		window:          hann,
		buf:             make([]float64, fftSize),
	}
}

// Process computes a full frame from a PCM window. channels describes the
// interleaving of window: 2 means L/R interleaved stereo, anything else is
// treated as mono. Spectrum and waveform always work on the mono mix; VU
// levels use the raw per-channel samples.
func (a *Analyzer) Process(window []float64, channels int) Frame {
	mono := monoMix(window, channels)

	frame := Frame{
		Spectrum: a.Spectrum(mono),
		Waveform: a.Waveform(mono),
	}
	frame.VULeft, frame.VURight = a.updateVU(window, channels)
	return frame
}

// Spectrum computes normalized spectrum bins from a mono window. The last
// fftSize samples are used, left-padded with silence when the window is
// shorter.
func (a *Analyzer) Spectrum(mono []float64) []float64 {
	clear(a.buf)
	if len(mono) >= a.fftSize {
		copy(a.buf, mono[len(mono)-a.fftSize:])
	} else {
		copy(a.buf[a.fftSize-len(mono):], mono)
	}
	for i := range a.buf {
		a.buf[i] *= a.window[i]
	}

	spectrum := fft.FFTReal(a.buf)

	// Real input: only the first half carries information.
	half := a.fftSize/2 + 1
	logMag := make([]float64, half)
	scale := 2 / float64(a.fftSize)
	for i := 0; i < half; i++ {
		mag := math.Hypot(real(spectrum[i]), imag(spectrum[i])) * scale
		logMag[i] = math.Log10(mag + epsilon)
	}

	// Adaptive dynamic range from the 5th/95th percentiles.
	lo := percentile(logMag, 5)
	hi := percentile(logMag, 95)

	normalized := make([]float64, half)
	if hi-lo >= epsilon {
		for i, v := range logMag {
			n := (v - lo) / (hi - lo)
			n = clamp01(n)
			normalized[i] = math.Pow(n, gammaExponent) * spectrumCeiling
		}
	}

	return resampleLog(normalized, a.spectrumBins)
}

// Waveform downsamples a mono window to the configured sample count via
// evenly spaced index selection and normalizes by the peak absolute value.
func (a *Analyzer) Waveform(mono []float64) []float64 {
	out := make([]float64, a.waveformSamples)

	if len(mono) < a.waveformSamples {
		copy(out, mono)
	} else if a.waveformSamples == 1 {
		out[0] = mono[0]
	} else {
		step := float64(len(mono)-1) / float64(a.waveformSamples-1)
		for i := range out {
			out[i] = mono[int(float64(i)*step)]
		}
	}

	var peak float64
	for _, v := range out {
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}
	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out
}

// VU returns the current smoothed VU levels without processing new audio.
func (a *Analyzer) VU() (left, right float64) {
	return a.vuLeft, a.vuRight
}

// Reset zeroes the VU smoothing accumulators.
func (a *Analyzer) Reset() {
	a.vuLeft = 0
	a.vuRight = 0
}

// updateVU folds per-channel RMS of the raw window into the smoothed
// levels. Mono input drives both channels with the same RMS.
func (a *Analyzer) updateVU(window []float64, channels int) (left, right float64) {
	var leftRMS, rightRMS float64
	if channels == 2 && len(window) >= 2 {
		leftRMS = rmsStride(window, 0, 2)
		rightRMS = rmsStride(window, 1, 2)
	} else {
		leftRMS = rmsStride(window, 0, 1)
		rightRMS = leftRMS
	}

	a.vuLeft = clamp01(vuSmoothing*a.vuLeft + (1-vuSmoothing)*leftRMS)
	a.vuRight = clamp01(vuSmoothing*a.vuRight + (1-vuSmoothing)*rightRMS)
	return a.vuLeft, a.vuRight
}

// monoMix averages interleaved stereo down to mono; mono input is returned
// as-is.
func monoMix(window []float64, channels int) []float64 {
	if channels != 2 || len(window) < 2 {
		return window
	}
	mono := make([]float64, len(window)/2)
	for i := range mono {
		mono[i] = (window[2*i] + window[2*i+1]) / 2
	}
	return mono
}

func rmsStride(samples []float64, offset, stride int) float64 {
	var sum float64
	n := 0
	for i := offset; i < len(samples); i += stride {
		sum += samples[i] * samples[i]
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// percentile computes the q-th percentile (0-100) with linear interpolation
// between closest ranks.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}

// resampleLog picks logarithmically spaced indices so low frequencies get
// proportionally more output bins than high ones. Inputs shorter than the
// requested bin count are right-padded with zeros; a single requested bin
// carries the DC value.
func resampleLog(spectrum []float64, bins int) []float64 {
	out := make([]float64, bins)
	if len(spectrum) <= bins || bins == 1 {
		copy(out, spectrum[:min(len(spectrum), bins)])
		return out
	}

	maxExp := math.Log10(float64(len(spectrum)))
	for i := 0; i < bins; i++ {
		exp := maxExp * float64(i) / float64(bins-1)
		idx := int(math.Pow(10, exp))
		if idx > len(spectrum)-1 {
			idx = len(spectrum) - 1
		}
		out[i] = spectrum[idx]
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

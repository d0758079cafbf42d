package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/musictools/internal/audio/decoder"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"

	"github.com/spf13/cobra"
	wav "github.com/youpy/go-wav"
	soxr "github.com/zaf/resample"
)

const transformBufferFrames = 4096

var transformCmd = &cobra.Command{
	Use:   "transform <input_file>",
	Short: "Transform audio file sample rate and format",
	Long: `Transform audio files to different sample rates and convert to WAV format.
Supports input from MP3, FLAC, WAV, and OGG formats with optional mono conversion.

Examples:
  # Transform MP3 to 48kHz WAV
  musictools transform input.mp3 --new-samplerate 48000 --out output.wav

  # Transform FLAC to 44.1kHz mono WAV
  musictools transform input.flac --new-samplerate 44100 --mono --out output.wav

  # Transform WAV with default settings (48kHz)
  musictools transform input.wav

Supported Input Formats:
  - MP3 (.mp3)
  - FLAC (.flac)
  - WAV (.wav)
  - OGG (.ogg)

Output Format:
  - WAV (16-bit PCM)

Sample Rate Options:
  Common rates: 8000, 16000, 22050, 44100, 48000, 96000, 192000 Hz`,
	Args: cobra.ExactArgs(1),
	Run:  runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().Int("new-samplerate", 48000, "Target sample rate in Hz")
	transformCmd.Flags().String("out", "out_transformed.wav", "Output WAV file path")
	transformCmd.Flags().Bool("mono", false, "Convert output to mono signal (average channels)")
}

func runTransform(cmd *cobra.Command, args []string) {
	inFileName := args[0]

	if _, err := os.Stat(inFileName); os.IsNotExist(err) {
		slog.Error("Input file not found", "path", inFileName)
		os.Exit(1)
	}

	newSampleRate, err := cmd.Flags().GetInt("new-samplerate")
	if err != nil {
		slog.Error("Failed to get new-samplerate flag", "error", err)
		os.Exit(1)
	}

	outFileName, err := cmd.Flags().GetString("out")
	if err != nil {
		slog.Error("Failed to get out flag", "error", err)
		os.Exit(1)
	}

	convertToMono, err := cmd.Flags().GetBool("mono")
	if err != nil {
		slog.Error("Failed to get mono flag", "error", err)
		os.Exit(1)
	}

	if newSampleRate <= 0 || newSampleRate > 384000 {
		slog.Error("Invalid sample rate", "rate", newSampleRate, "valid_range", "1-384000")
		os.Exit(1)
	}

	dec, sampleType, err := openDecoderAnyType(inFileName)
	if err != nil {
		slog.Error("Failed to open decoder", "error", err)
		os.Exit(1)
	}
	defer dec.Close()

	inSampleRate := dec.SampleRate()
	channels := dec.ChannelCount()

	slog.Info("Audio transformation starting",
		"input_file", inFileName,
		"input_sample_rate", inSampleRate,
		"input_channels", channels,
		"decoded_as", sampleType.String(),
		"output_sample_rate", newSampleRate,
		"output_mono", convertToMono,
		"output_file", outFileName)

	slog.Info("Decoding audio data")
	audioData, totalSamples, err := decodeAllAudio(dec, sampleType, channels)
	if err != nil {
		slog.Error("Failed to decode audio", "error", err)
		os.Exit(1)
	}

	slog.Info("Decoding complete",
		"input_samples", totalSamples,
		"input_bytes", len(audioData))

	slog.Info("Resampling audio",
		"from_rate", inSampleRate,
		"to_rate", newSampleRate)

	resampledData, err := resampleAudio(audioData, inSampleRate, newSampleRate, channels)
	if err != nil {
		slog.Error("Failed to resample audio", "error", err)
		os.Exit(1)
	}

	const bytesPerSample = 2 // every decode path below lands on 16-bit PCM
	outSamples := len(resampledData) / (channels * bytesPerSample)

	slog.Info("Resampling complete",
		"output_samples", outSamples,
		"output_bytes", len(resampledData))

	outChannels := channels
	outputData := resampledData

	if convertToMono && channels > 1 {
		slog.Info("Converting to mono", "input_channels", channels)
		outputData = convertToMono16Bit(resampledData, channels)
		outChannels = 1
		slog.Info("Mono conversion complete", "output_channels", 1)
	}

	slog.Info("Writing output WAV file", "path", outFileName)
	if err := writeWAVFile(outFileName, outputData, uint32(outSamples), uint16(outChannels), uint32(newSampleRate), 16); err != nil {
		slog.Error("Failed to write WAV file", "error", err)
		os.Exit(1)
	}

	slog.Info("Transformation complete",
		"input_samples", totalSamples,
		"output_samples", outSamples,
		"sample_rate_ratio", fmt.Sprintf("%.3f", float64(newSampleRate)/float64(inSampleRate)))
}

// openDecoderAnyType opens inFileName through the shared decoder
// factory, probing its supported sample types in turn since a codec's
// native type (and, for wav/flac, its bit depth) isn't known before
// opening. Each attempt reopens the stream fresh: a rejected Open call
// leaves the codec-specific reader in an unusable state.
func openDecoderAnyType(path string) (decoder.Decoder, format.SampleType, error) {
	ext := source.Extension(path)
	var lastErr error
	for _, st := range []format.SampleType{format.Int16, format.Int32, format.Float32} {
		stream, err := source.OpenFileStream(path)
		if err != nil {
			return nil, 0, err
		}
		dec, err := decoder.OpenExt(ext, stream, st)
		if err == nil {
			return dec, st, nil
		}
		stream.Close()
		lastErr = err
	}
	return nil, 0, fmt.Errorf("transform: no supported sample type opened %q: %w", path, lastErr)
}

// decodeAllAudio drains dec to completion, landing every sample type on
// 16-bit interleaved PCM bytes regardless of how the file was decoded
// (Int32/Float32 samples are rescaled down) so resampleAudio always has
// one input shape to work with.
func decodeAllAudio(dec decoder.Decoder, st format.SampleType, channels int) ([]byte, int, error) {
	audioData := make([]byte, 0, transformBufferFrames*channels*2*10)
	totalSamples := 0

	switch st {
	case format.Int16:
		buf := make([]int16, transformBufferFrames*channels)
		for {
			n, err := dec.ReadFramesI16(buf)
			if err != nil {
				return nil, 0, fmt.Errorf("decode error: %w", err)
			}
			if n == 0 {
				break
			}
			audioData = append(audioData, int16sToBytes(buf[:n*channels])...)
			totalSamples += n
		}
	case format.Int32:
		buf := make([]int32, transformBufferFrames*channels)
		for {
			n, err := dec.ReadFramesI32(buf)
			if err != nil {
				return nil, 0, fmt.Errorf("decode error: %w", err)
			}
			if n == 0 {
				break
			}
			audioData = append(audioData, int32sToInt16Bytes(buf[:n*channels])...)
			totalSamples += n
		}
	case format.Float32:
		buf := make([]float32, transformBufferFrames*channels)
		for {
			n, err := dec.ReadFramesF32(buf)
			if err != nil {
				return nil, 0, fmt.Errorf("decode error: %w", err)
			}
			if n == 0 {
				break
			}
			audioData = append(audioData, float32sToInt16Bytes(buf[:n*channels])...)
			totalSamples += n
		}
	}

	return audioData, totalSamples, nil
}

func int16sToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(uint16(s))
		out[i*2+1] = byte(uint16(s) >> 8)
	}
	return out
}

func int32sToInt16Bytes(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s >> 16)
		out[i*2] = byte(uint16(v))
		out[i*2+1] = byte(uint16(v) >> 8)
	}
	return out
}

func float32sToInt16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[i*2] = byte(uint16(v))
		out[i*2+1] = byte(uint16(v) >> 8)
	}
	return out
}

// resampleAudio resamples 16-bit interleaved PCM using SoXR (high-quality resampler).
func resampleAudio(audioData []byte, fromRate, toRate, channels int) ([]byte, error) {
	if fromRate == toRate {
		return audioData, nil
	}

	var bufResampled bytes.Buffer
	bufWriter := bufio.NewWriter(&bufResampled)

	resampler, err := soxr.New(
		bufWriter,
		float64(fromRate),
		float64(toRate),
		channels,
		soxr.I16,
		soxr.HighQ,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	if _, err := resampler.Write(audioData); err != nil {
		resampler.Close()
		return nil, fmt.Errorf("failed to resample: %w", err)
	}

	if err := resampler.Close(); err != nil {
		return nil, fmt.Errorf("failed to close resampler: %w", err)
	}

	if err := bufWriter.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush buffer: %w", err)
	}

	return bufResampled.Bytes(), nil
}

// convertToMono16Bit converts stereo (or multi-channel) 16-bit audio to mono by averaging channels
func convertToMono16Bit(stereoData []byte, channels int) []byte {
	if channels == 1 {
		return stereoData
	}

	monoSize := len(stereoData) / channels
	monoData := make([]byte, monoSize)

	idx := 0
	outIdx := 0

	for idx < len(stereoData) {
		sum := int32(0)
		for ch := 0; ch < channels; ch++ {
			if idx+1 >= len(stereoData) {
				break
			}

			b0 := int16(stereoData[idx])
			b1 := int16(stereoData[idx+1])
			sample := int16((b1 << 8) | b0)

			sum += int32(sample)
			idx += 2
		}

		avgSample := int16(sum / int32(channels))

		if outIdx+1 < len(monoData) {
			monoData[outIdx] = byte(avgSample & 0xFF)
			monoData[outIdx+1] = byte((avgSample >> 8) & 0xFF)
			outIdx += 2
		}
	}

	return monoData
}

// writeWAVFile writes audio data to a WAV file
func writeWAVFile(fileName string, audioData []byte, numSamples uint32, numChannels uint16, sampleRate uint32, bitsPerSample uint16) error {
	fOut, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fOut.Close()

	wavWriter := wav.NewWriter(fOut, numSamples, numChannels, sampleRate, bitsPerSample)

	if _, err := wavWriter.Write(audioData); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	return nil
}

// Command generate writes a starter set of sound effects and spoken cues
// into the sounds directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/Duckduckgot/gtts"
	"github.com/Duckduckgot/gtts/handlers"
	"github.com/Duckduckgot/gtts/voices"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const sampleRate = beep.SampleRate(44100)

type tone struct {
	name     string
	freq     float64
	duration time.Duration
}

var tones = []tone{
	{name: "click", freq: 1760, duration: 30 * time.Millisecond},
	{name: "beep", freq: 880, duration: 150 * time.Millisecond},
	{name: "alarm", freq: 440, duration: 600 * time.Millisecond},
}

var cues = []string{
	"Ready.",
	"Game over.",
	"Level complete!",
}

func main() {
	dir := flag.String("dir", "sounds", "output directory")
	speak := flag.Bool("speech", false, "also generate spoken cues")
	flag.Parse()

	handleError(os.MkdirAll(*dir, 0o755))

	for _, t := range tones {
		handleError(writeTone(filepath.Join(*dir, t.name+".wav"), t))
	}

	if *speak {
		speech := gtts.Speech{Folder: *dir, Language: voices.English, Handler: &handlers.MPlayer{}}
		for _, text := range cues {
			Audio(speech, text)
		}
	}
}

func writeTone(path string, t tone) error {
	sine, err := generators.SineTone(sampleRate, t.freq)
	if err != nil {
		return fmt.Errorf("failed to create tone %s: %w", t.name, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	quieter := &effects.Gain{Streamer: beep.Take(sampleRate.N(t.duration), sine), Gain: -0.5}
	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, quieter, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

func Audio(speech gtts.Speech, text string) {
	// replace special characters and spaces to create a valid filename
	filename, err := toASCII(text)
	handleError(err)
	_, err = speech.CreateSpeechFile(text, filename)
	handleError(err)
}

func handleError(err error) {
	if err != nil {
		panic(fmt.Sprintf("Error generating audio: %s", err.Error()))
	}
}

func toASCII(str string) (string, error) {
	// Step 1: Decompose and remove diacritics (accents)
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
	)
	normalized, _, err := transform.String(t, str)
	if err != nil {
		return "", err
	}

	// Step 2: Keep ASCII letters, digits and spaces
	filtered := strings.Map(func(r rune) rune {
		if r > 127 {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, normalized)

	filtered = strings.TrimSpace(strings.ToLower(filtered))
	filtered = strings.Join(strings.Fields(filtered), "_")

	if filtered == "" {
		return "", fmt.Errorf("resulting filename is empty after processing")
	}

	return filtered, nil
}

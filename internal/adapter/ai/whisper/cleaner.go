package whisper

import (
	"regexp"
	"strings"
)

// Transcript post-processing: hesitation removal, number-word and currency
// normalization. Whisper output is already punctuated; this only smooths the
// artifacts that trip up the NLU prompt.

var hesitations = map[string]bool{
	"euh": true, "heu": true, "hem": true, "hum": true,
	"uh": true, "um": true, "ah": true,
}

var numberWords = []struct {
	word  string
	digit string
}{
	{"un", "1"}, {"deux", "2"}, {"trois", "3"}, {"quatre", "4"}, {"cinq", "5"},
	{"six", "6"}, {"sept", "7"}, {"huit", "8"}, {"neuf", "9"}, {"dix", "10"},
	{"vingt", "20"}, {"trente", "30"}, {"quarante", "40"}, {"cinquante", "50"},
	{"cent", "100"}, {"mille", "1000"}, {"million", "1000000"},
}

var (
	euroPattern  = regexp.MustCompile(`(?i)\b(euros?|eur)\b`)
	francPattern = regexp.MustCompile(`(?i)\b(francs?|fcfa|cfa)\b`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// CleanTranscript normalizes a raw transcription before NLU analysis.
func CleanTranscript(text string) string {
	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if hesitations[strings.ToLower(strings.Trim(w, ",."))] {
			continue
		}
		kept = append(kept, w)
	}
	text = strings.Join(kept, " ")

	for _, nw := range numberWords {
		re := regexp.MustCompile(`(?i)\b` + nw.word + `\b`)
		text = re.ReplaceAllString(text, nw.digit)
	}

	text = euroPattern.ReplaceAllString(text, "EUR")
	text = francPattern.ReplaceAllString(text, "FCFA")

	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

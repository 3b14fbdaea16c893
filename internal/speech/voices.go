package speech

import "strings"

// ParseVoiceList reads `espeak-ng --voices` style output:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-gb           --/M      English_(Great_Britain) gmw/en
func ParseVoiceList(output string) []Voice {
	var voices []Voice
	for i, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if i == 0 && len(fields) > 0 && fields[0] == "Pty" {
			continue
		}
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Language: fields[1], Name: fields[3]})
	}
	return voices
}

// SelectVoice picks the voice argument for an utterance: the hint when it
// names an installed voice or language, otherwise the first English voice,
// otherwise the hint unchanged.
func SelectVoice(voices []Voice, hint string) string {
	hint = strings.TrimSpace(hint)
	for _, v := range voices {
		if hint != "" && (strings.EqualFold(v.Name, hint) || strings.EqualFold(v.Language, hint)) {
			return v.Language
		}
	}
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Language), "en") {
			return v.Language
		}
	}
	return hint
}

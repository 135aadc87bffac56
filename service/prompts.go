package service

import "fmt"

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ja": "Japanese",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

func summarySystemPrompt(language string) string {
	return fmt.Sprintf(`You are a helpful assistant that creates summaries of audio transcripts.
Create a concise, structured summary of the transcript.
Use bullet points for readability.
Focus on the main points and important details.
Respond in %s.`, languageName(language))
}

func summaryUserPrompt(transcript string) string {
	return fmt.Sprintf("Create a summary of this transcript:\n\n%s", transcript)
}

func promptSystemPrompt(language string) string {
	return fmt.Sprintf(`You are a helpful assistant that analyzes and processes audio transcripts.
Follow the user's instructions precisely.
Respond in %s and structure the output clearly.`, languageName(language))
}

func promptUserPrompt(transcript, instruction string) string {
	return fmt.Sprintf("Transcript:\n%s\n\nInstruction: %s", transcript, instruction)
}

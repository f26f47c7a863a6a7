package vision

import (
	"fmt"

	"leafscan/internal/catalog"
)

func systemPrompt(lang catalog.Language) string {
	return fmt.Sprintf(`You are an expert plant pathologist. Examine the supplied plant photo and diagnose the most likely disease.

Respond with a single JSON object and nothing else. No prose, no markdown fences. The object must have exactly these fields:
{
  "diseaseName": string,
  "scientificName": string (latin name of the pathogen or disease),
  "confidence": integer 0-100,
  "severity": one of "low", "moderate", "high", "critical",
  "description": string,
  "symptoms": array of strings,
  "causes": array of strings,
  "treatment": array of strings,
  "prevention": array of strings,
  "affectedParts": array of strings,
  "spreadRate": one of "low", "moderate", "high"
}

Write every free-text value in %s (%s). Keep "severity", "spreadRate" and all field names in English exactly as shown. If the plant looks healthy, say so in diseaseName and describe preventive care.`, lang.Name, lang.NativeName)
}

func userDirective(lang catalog.Language) string {
	return fmt.Sprintf("Diagnose the plant in this photo. Reply in %s with the JSON object described in the system instructions.", lang.Name)
}

package formgen

import (
	"fmt"
	"strings"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
)

func fieldTypeList() string {
	names := make([]string, 0, len(forms.FieldTypes))
	for _, t := range forms.FieldTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func generateSystemPrompt(language string) string {
	return fmt.Sprintf(`You are an expert form designer. Generate 2 different form designs based on the user's description. Each form should be well-structured, user-friendly, and optimized for the specified language.
Requirements:
- Create 2 distinct form designs.
- Each form should have 5-10 relevant fields.
- Use appropriate field types: %s.
- For 'rating' fields, use a 'max' validation between 3 and 10.
- For 'slider' fields, define 'min', 'max', and 'step' validation properties.
- For 'select', 'radio' and 'checkbox' fields, provide a non-empty 'options' array of strings.
- Include proper validation rules where appropriate (e.g., min/max length for text).
- Make fields required when necessary.
- Use clear, concise labels and placeholders.
- Use one of these themes: modern, classic, minimal, colorful.
- Generate all text content in the specified language: %s.
Each form object has: title, description, theme, language and fields; each field has: id, type, label, placeholder, required, options, validation.
Return the response as valid JSON: an object {"forms": [...]} holding an array of 2 form objects.`, fieldTypeList(), language)
}

func generateUserPrompt(prompt string) string {
	return "Create 2 different forms for: " + prompt
}

func refineSystemPrompt(language string) string {
	return fmt.Sprintf(`You are an expert form editor. The user will provide an existing form as a JSON object and a prompt with instructions to modify it. Your task is to apply the requested changes and return the single, updated form as a valid JSON object.
Requirements:
- Only return ONE updated form object. Do not return an array.
- The returned JSON object must be a complete and valid form structure.
- Do not change the 'id' of the form or the 'id' of existing fields.
- When adding new fields, generate a new unique UUID for the 'id' for them.
- Interpret the user's request and modify the form accordingly (e.g., add, remove, or change fields, update labels, change validation).
- Ensure all text content remains in the form's original language: %s.`, language)
}

func refineUserPrompt(formJSON, instruction string) string {
	return fmt.Sprintf("Here is the current form:\n%s\n\nPlease apply this change: \"%s\"", formJSON, instruction)
}

func translateSystemPrompt(target string) string {
	return fmt.Sprintf(`You are a professional translator. Translate the form content to %s while maintaining the form structure and functionality.
Translate:
- Form title
- Form description
- Field labels
- Placeholders
- Option values (for select, radio, checkbox fields)
Keep the technical structure (field types, validation rules, ids) unchanged.
Return the complete translated form as a single valid JSON object.`, target)
}

func translateUserPrompt(target, formJSON string) string {
	return fmt.Sprintf("Translate this form to %s:\n%s", target, formJSON)
}

const analyzeSystemPrompt = `You are a data analyst expert. Analyze the form submission data and provide insights in simple, understandable language.
Analyze:
- Submission patterns
- User behavior
- Form performance
- Potential improvements
Provide insights that are actionable and easy to understand for non-technical users.
Return your insights as a numbered list of short, distinct sentences, each on a new line.`

func analyzeUserPrompt(dataJSON string) string {
	return "Analyze this form data and provide insights:\n" + dataJSON
}

const insightsSystemPrompt = `You are a helpful AI assistant that explains form analytics in simple terms. Answer user questions about their form data in a clear, conversational way.`

func insightsUserPrompt(question, dataJSON string) string {
	return fmt.Sprintf("Question: %s\nForm Data: %s\nPlease provide a clear, simple explanation.", question, dataJSON)
}

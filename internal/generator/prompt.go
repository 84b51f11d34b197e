package generator

import "fmt"

// buildModulePrompt constructs the instruction for one module. The bot must
// answer with bare JSON matching moduleSchema; fences are tolerated anyway.
func buildModulePrompt(p Params, moduleNumber int) string {
	return fmt.Sprintf(`You are an expert instructional designer for online courses.
Create an educational module for the course %q (category: %s).
Use evidence-based teaching practice.
Difficulty level: %s.
This is module %d of %d.

Return JSON in the following format (NO markdown, ONLY JSON):
{
  "title": "Module title (concise, under 50 characters)",
  "content": "Detailed educational content (200-300 words). Explain the concepts, give examples, add practical recommendations. Use HTML format with only <b>, </b>, <i>, </i> tags.",
  "quiz": {
    "title": "Quiz: Module title",
    "questions": [
      {
        "text": "Question text",
        "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
        "correctAnswer": 0
      }
    ]
  }
}

The questions array must contain exactly 5 questions, each with exactly
4 options and a correctAnswer index between 0 and 3.`,
		p.Title, p.Category, p.Difficulty, moduleNumber, p.ModuleCount)
}

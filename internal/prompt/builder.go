package prompt

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/lamim/promptlab/pkg/models"
)

const constraintsTemplate = `[CONSTRAINTS]
- IDEA: {{.Idea}}
- GENRE: {{.Genre}}
- STYLE: {{.Style}}
- POV: {{.POV}}
- TONE: {{.Tone}}
- LENGTH: ~{{.Length}} words
- MUST INCLUDE: {{join .Includes}}
- AVOID: {{join .Avoids}}`

// Strategy scaffolds. Each one embeds the rendered constraint block.
var scaffolds = map[models.VariantID]string{
	models.VariantZeroShot: `### INSTRUCTION: Write a story based on these constraints.

{{.Constraints}}`,

	models.VariantOneShot: `### TASK: Write a story following the style and constraints provided.
### EXAMPLE OF EXCELLENCE:
"The Danube was a ribbon of black glass reflecting the dying embers of a forgotten century. Elias stepped into the cold, his coat a heavy shadow against the mist. In Budapest, the stones don't just sit; they listen."
### YOUR TURN:
{{.Constraints}}`,

	models.VariantFewShot: `### INSTRUCTIONS: You will write a story. Study these three stylistic examples first.
Example 1: "Poetic melancholy drips from every spire in this city."
Example 2: "First person perspective focused on internal decay."
Example 3: "Literary science fiction that ignores the 'science' and embraces the 'fiction'."
### NOW WRITE:
{{.Constraints}}`,

	models.VariantPersona: `### ROLE: You are an award-winning literary novelist. You specialize in {{or .Genre "literary fiction"}} where the premise is a background for human suffering and wonder. Your prose is dense, rhythmic, and avoids all genre clichés.
### OBJECTIVE: Write a definitive story based on these constraints.
{{.Constraints}}`,

	models.VariantStructuredOutline: `### MULTI-STEP PROCESS:
1. Brainstorm an outline with 5 beats: The Return, The Uncanny Echo, The Discovery of the Hidden Memory, The Impossible Choice, and The Final Departure.
2. Write a full {{.Length}} word narrative based strictly on that outline.
### CONSTRAINTS:
{{.Constraints}}`,

	models.VariantDecomposition: `### TASK DECOMPOSITION:
- Scene A: Focus on the sensory details of the setting at night.
- Scene B: Focus on the {{lower (or .POV "close")}} internal monologue regarding the moral choice.
- Scene C: Focus on the resolution of the central paradox.
Merge these into a single fluid narrative.
### CONSTRAINTS:
{{.Constraints}}`,

	models.VariantVisualGrounded: `### VISUAL FOCUS: Prioritize "show, don't tell." Use cinematic language. Ground every scene in the senses: the flicker of distant lights (sight), the smell of damp stone (smell), the sound of a tram on the tracks (sound), the cold of the air on skin (touch). The {{or .Genre "genre"}} elements should be felt, not explained.
### CONSTRAINTS:
{{.Constraints}}`,

	models.VariantMultiAgent: `### ITERATIVE REFINEMENT:
1. Create a "Rough Draft" focusing only on plot.
2. Rewrite the draft to add "{{or .Style "Poetic Style"}}" and "{{or .Tone "Dark Tone"}}".
3. Edit the result for "Character Consistency."
Only provide the final, polished result of Step 3.
### CONSTRAINTS:
{{.Constraints}}`,
}

const judgeTemplate = `### ROLE: Academic Writing Examiner
Evaluate the following creative writing piece on a scale of 1-10 across five specific metrics.
Be rigorous. A score of 10 is only for professional-grade literature. A score of 1 is for nonsensical output.

### METRICS:
1. COHERENCE (1-10): Logical flow and narrative structure.
2. CREATIVITY (1-10): Originality of imagery and subversion of genre tropes.
3. CHARACTER CONSISTENCY (1-10): Is the narrative voice stable and authentic?
4. STYLE ADHERENCE (1-10): Does it match the requested style specifically?
5. ENDING IMPACT (1-10): Thematic resonance of the conclusion.

### STORY:
"""
{{.}}
"""

### OUTPUT FORMAT:
You must respond with a raw JSON object only.
{
  "coherence": number,
  "creativity": number,
  "characterConsistency": number,
  "styleMatch": number,
  "endingStrength": number,
  "avg": number,
  "judgeRationale": "Detailed explanation of the strengths and weaknesses relative to the prompt variants."
}`

var funcs = template.FuncMap{
	"join":  func(items []string) string { return strings.Join(items, ", ") },
	"lower": strings.ToLower,
}

var (
	constraintsTmpl = template.Must(template.New("constraints").Funcs(funcs).Parse(constraintsTemplate))
	judgeTmpl       = template.Must(template.New("judge").Parse(judgeTemplate))
	scaffoldTmpls   = parseScaffolds()
)

func parseScaffolds() map[models.VariantID]*template.Template {
	out := make(map[models.VariantID]*template.Template, len(scaffolds))
	for id, text := range scaffolds {
		out[id] = template.Must(template.New(string(id)).Funcs(funcs).Parse(text))
	}
	return out
}

type scaffoldData struct {
	models.StoryConfig
	Constraints string
}

// BuildConstraints renders the constraint block shared by every variant
func BuildConstraints(cfg models.StoryConfig) string {
	var buf bytes.Buffer
	if err := constraintsTmpl.Execute(&buf, cfg); err != nil {
		return fallbackConstraints(cfg)
	}
	return buf.String()
}

// BuildGenerationPrompt renders the generation prompt for a variant.
// Unknown IDs fall back to a bare instruction.
func BuildGenerationPrompt(id models.VariantID, cfg models.StoryConfig) string {
	constraints := BuildConstraints(cfg)

	tmpl, ok := scaffoldTmpls[id]
	if !ok {
		return "Write a story: " + constraints
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scaffoldData{StoryConfig: cfg, Constraints: constraints}); err != nil {
		return "Write a story: " + constraints
	}
	return buf.String()
}

// BuildJudgePrompt embeds the story verbatim in the scoring rubric
func BuildJudgePrompt(story string) string {
	var buf bytes.Buffer
	if err := judgeTmpl.Execute(&buf, story); err != nil {
		return strings.Replace(judgeTemplate, "{{.}}", story, 1)
	}
	return buf.String()
}

// fallbackConstraints builds the block without templates
func fallbackConstraints(cfg models.StoryConfig) string {
	lines := []string{
		"[CONSTRAINTS]",
		"- IDEA: " + cfg.Idea,
		"- GENRE: " + cfg.Genre,
		"- STYLE: " + cfg.Style,
		"- POV: " + cfg.POV,
		"- TONE: " + cfg.Tone,
		"- LENGTH: ~" + strconv.Itoa(cfg.Length) + " words",
		"- MUST INCLUDE: " + strings.Join(cfg.Includes, ", "),
		"- AVOID: " + strings.Join(cfg.Avoids, ", "),
	}
	return strings.Join(lines, "\n")
}

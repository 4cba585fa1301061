package llm

import (
	"fmt"
	"strings"

	"storyline/internal/suggest"
)

// maxPriorScenes bounds how many earlier scenes are summarised in a prompt.
const maxPriorScenes = 5

const continueSystemPrompt = `You are a co-author helping a writer draft a story scene by scene.
Continue the writer's current scene with one or two sentences in the same voice and tense.
Reply with the continuation only: no quotes, no preamble, no repetition of the existing text.`

const sceneSystemPrompt = `You are a co-author helping a writer draft a story scene by scene.
Write the next scene of the story. Reply with a single JSON object and nothing else:
{"content": "<scene text>", "title": "<short title>", "newCharacters": [{"name": "", "role": "", "description": ""}]}
List in newCharacters only characters that do not appear in the provided character list.`

func systemPrompt(mode suggest.Mode) string {
	if mode == suggest.ModeScene {
		return sceneSystemPrompt
	}
	return continueSystemPrompt
}

// buildUserPrompt renders the story context of req as the user message.
func buildUserPrompt(req suggest.Request) string {
	var b strings.Builder

	if req.Title != "" {
		fmt.Fprintf(&b, "Story: %s\n", req.Title)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "Story summary: %s\n", req.Description)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	if req.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n\n", req.Genre)
	}

	if len(req.Characters) > 0 {
		b.WriteString("Characters:\n")
		for _, c := range req.Characters {
			b.WriteString("- ")
			b.WriteString(c.Name)
			if c.Role != "" {
				fmt.Fprintf(&b, " (%s)", c.Role)
			}
			if c.Description != "" {
				fmt.Fprintf(&b, ": %s", c.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	prior := req.PriorSceneSummaries
	if len(prior) > maxPriorScenes {
		prior = prior[len(prior)-maxPriorScenes:]
	}
	if len(prior) > 0 {
		b.WriteString("Earlier scenes:\n")
		for i, s := range prior {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}

	if req.ActiveSceneTitle != "" {
		fmt.Fprintf(&b, "Current scene: %s\n", req.ActiveSceneTitle)
	}
	if req.ActiveSceneText != "" {
		fmt.Fprintf(&b, "Current scene text:\n%s\n", req.ActiveSceneText)
	}

	if req.Instruction != "" {
		fmt.Fprintf(&b, "\nInstruction: %s\n", req.Instruction)
	}

	return strings.TrimRight(b.String(), "\n")
}

// stripCodeFence removes a surrounding ``` block some models add around JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

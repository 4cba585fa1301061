package llm

// GenerationParams tunes one kind of completion request.
type GenerationParams struct {
	// MaxTokens caps the completion length. 0 leaves it to the server.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}

var (
	// continueParams keeps inline continuations short and close to the text.
	continueParams = GenerationParams{MaxTokens: 120, Temperature: 0.7}

	// sceneParams leaves room for a complete scene.
	sceneParams = GenerationParams{MaxTokens: 1500, Temperature: 0.8}
)

// generatedScenePayload is the JSON object requested from the model in
// scene mode.
type generatedScenePayload struct {
	Content       string               `json:"content"`
	Title         string               `json:"title,omitempty"`
	NewCharacters []generatedCharacter `json:"newCharacters,omitempty"`
}

type generatedCharacter struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
}

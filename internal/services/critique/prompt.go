package critique

// Instruction is sent with every image. Only the image varies between
// requests; the requested keys must stay in sync with models.Critique.
const Instruction = "You are an art teacher. Please critique this image and return the feedback " +
	"as a single JSON object with exactly these keys: " +
	"\"rating\" - a number rating the artwork out of 10, " +
	"\"Strengths\" - an array of strings describing its strengths, " +
	"\"Weaknesses\" - an array of strings describing its weaknesses, " +
	"\"Tips\" - an array of strings with tips to improve. " +
	"Respond with the JSON object only."

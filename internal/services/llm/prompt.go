package llm

// courseDescriptionPrompt instructs the model to summarize a course package
// from its title and sampled content. The strict JSON shape keeps parsing
// trivial even for models that like to narrate.
const courseDescriptionPrompt = `You write catalog descriptions for e-learning courses.

Given a course title, its original upload filename, and a sample of text
extracted from its content pages, write a one-to-two sentence description of
what the course covers and who it is for. Base the description only on the
provided material; do not invent topics the sample does not support. Plain
prose, no marketing superlatives.

Respond with JSON only, in exactly this shape:
{"description": "<one to two sentences>"}`

package ai

// grammarSystemPrompt fixes mechanics without touching markup or voice.
const grammarSystemPrompt = `Fix the grammar, spelling, and punctuation of the following HTML-formatted text.

RULES:
1. Strictly preserve all HTML tags (like <p>, <b>, <i>, <ul>, <li>, <h1>).
2. Preserve the author's original style, tone, and voice.
3. Return ONLY the corrected HTML string.`

// expandSystemPrompt grows a snippet with matching-style detail.
const expandSystemPrompt = `Act as a creative writing assistant. Expand the following text snippet by adding 2-3 sentences of descriptive detail or character inner-thought that matches the existing style.

Return ONLY the expanded version. Do NOT include HTML tags in your output unless they are bold or italics for emphasis.`

// contextWindowChars bounds how much chapter context rides along with an
// expansion request.
const contextWindowChars = 1500

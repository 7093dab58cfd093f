package prompts

const evaluateSpec = `Respond with a JSON object matching this exact structure:

{
  "checks": [
    {"constraint": "<constraint id>", "pass": false, "note": "<short reason>"}
  ],
  "feedback": "<diagnostic guidance for the next generation attempt>"
}

Field constraints:
- checks: One entry per checklist constraint, in the exact order listed,
  using the exact constraint ids. Every constraint must appear exactly once.
- pass: true only when the constraint holds perfectly on the LATEST try-on
  image. Judge each constraint independently; do not skip later constraints
  because an earlier one failed.
- note: Brief evidence for the judgement. May be empty for passing checks.
- feedback: Concrete instructions for what the generator must change on the
  next attempt, leading with the earliest failing constraint. When every
  check passes, summarize why the result is acceptable.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing, no extra text
- Evaluate only the latest try-on image; use earlier ones as history context`

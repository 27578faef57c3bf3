package service

// outcome tags the result of the prompt-validate pipeline every LLM-backed
// operation runs: the call itself can fail, the reply can fail validation,
// or the data is good. Which outcomes trigger a fallback differs per
// operation; simulation falls back on both failure kinds, catalog
// generation on neither.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeValidationFailed
	outcomeUpstreamFailed
)

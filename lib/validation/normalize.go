package validation

// Issue is a single violation reported by a schema validator.
type Issue struct {
	// Path is the location of the offending value, outermost segment first.
	Path    []string
	Message string
}

// Field returns the first path segment, or FormKey for root level issues.
func (i Issue) Field() string {
	if len(i.Path) == 0 {
		return FormKey
	}
	return i.Path[0]
}

// Policy decides which message survives when a field has several issues.
type Policy int

const (
	// KeepFirst keeps the first message reported for a field.
	KeepFirst Policy = iota
	// KeepLast lets later messages overwrite earlier ones.
	KeepLast
)

// Normalize folds issues into an ErrorMap with the KeepFirst policy.
func Normalize(issues []Issue) ErrorMap {
	return NormalizeWith(KeepFirst, issues)
}

// NormalizeWith folds issues into an ErrorMap keyed by their first path
// segment, in the order the validator reported them.
func NormalizeWith(policy Policy, issues []Issue) ErrorMap {
	out := make(ErrorMap, len(issues))
	for _, issue := range issues {
		key := issue.Field()
		if _, exists := out[key]; exists && policy == KeepFirst {
			continue
		}
		out[key] = issue.Message
	}
	return out
}

package toolkit

// Result is the JSON object returned by workspace tools.
type Result map[string]any

const (
	statusSuccess = "success"
	statusError   = "error"
)

func success(message string) Result {
	return Result{"status": statusSuccess, "message": message}
}

func failure(message string) Result {
	return Result{"status": statusError, "message": message}
}

// With adds key/value pairs to r and returns it.
func (r Result) With(kv ...any) Result {
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			r[key] = kv[i+1]
		}
	}
	return r
}

// OK reports whether r represents a successful outcome.
func (r Result) OK() bool {
	switch r["status"] {
	case statusSuccess, "passed":
		return true
	}
	return false
}

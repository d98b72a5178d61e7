package steam

// Verdict is the outcome of one external verification. Unreachable means the
// check could not be performed (timeout, rate limit, network) and must never
// be read as a negative result.
type Verdict int

const (
	VerdictUnreachable Verdict = iota
	VerdictAbsent
	VerdictPresent
)

// Engagement checks share the same outcomes under different names.
const (
	VerdictUnconfirmed = VerdictAbsent
	VerdictConfirmed   = VerdictPresent
)

func (v Verdict) String() string {
	switch v {
	case VerdictPresent:
		return "present"
	case VerdictAbsent:
		return "absent"
	default:
		return "unreachable"
	}
}

// Satisfied reports whether the verdict completes the quest condition.
func (v Verdict) Satisfied() bool {
	return v == VerdictPresent
}

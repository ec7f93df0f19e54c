package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a
// user-supplied SQL fragment.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Clause      string // Which clause the fragment came from ("where", "having", ...)
	Fragment    string // The fragment that was checked
}

// CheckClauseForInjection uses libinjection to detect SQL injection patterns
// in a user-supplied filter fragment (WHERE or HAVING body).
//
// Fragments are passed through to the generated SQL verbatim, so this check
// is advisory: a positive result flags the request for logging, it does not
// prove the fragment is malicious (filter expressions legitimately look like
// SQL). Returns nil if no pattern is detected.
func CheckClauseForInjection(clause, fragment string) *InjectionCheckResult {
	if fragment == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(fragment)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: fingerprint,
			Clause:      clause,
			Fragment:    fragment,
		}
	}

	return nil
}

// CheckFilterClauses checks the WHERE and HAVING fragments of a chart request.
// Returns one result per flagged clause; an empty slice means all clean.
func CheckFilterClauses(where, having string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	if result := CheckClauseForInjection("where", where); result != nil {
		results = append(results, result)
	}
	if result := CheckClauseForInjection("having", having); result != nil {
		results = append(results, result)
	}
	return results
}

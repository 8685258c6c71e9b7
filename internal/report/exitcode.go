package report

import "github.com/ppiankov/ssl-checker/internal/result"

// Exit codes for the check command.
//
//	0  all targets ok or expiring-soon
//	1  expiring-soon present and the caller opted into failing on warnings
//	2  policy or content fault (expired, hostname-mismatch, chain-invalid)
//	3  transport fault (unreachable, handshake-failed, timeout)
const (
	ExitOK        = 0
	ExitWarning   = 1
	ExitPolicy    = 2
	ExitTransport = 3
)

// ExitCode maps a report onto a process exit code. Transport faults win over
// policy faults, which win over warnings.
func ExitCode(rep result.Report, failOnWarning bool) int {
	code := ExitOK
	for i := range rep.Results {
		o := rep.Results[i].Outcome
		switch {
		case o.TransportFault():
			return ExitTransport
		case o.PolicyFault():
			code = ExitPolicy
		case o.Category == result.CategoryExpiringSoon && failOnWarning && code < ExitWarning:
			code = ExitWarning
		}
	}
	return code
}

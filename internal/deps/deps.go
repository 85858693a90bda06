package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external executable heicbatch needs.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status is the result of resolving one Requirement. Command holds the
// resolved path when the binary was found.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// LookPathFunc resolves a command name to an executable path.
type LookPathFunc func(string) (string, error)

// CheckBinaries resolves each requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	return CheckBinariesWith(exec.LookPath, requirements)
}

// CheckBinariesWith is CheckBinaries with an injectable resolver.
func CheckBinariesWith(lookPath LookPathFunc, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(lookPath, req))
	}
	return results
}

func check(lookPath LookPathFunc, req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := lookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

// Package health aggregates dependency health checks into one JSON report.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Check struct {
	Name  string
	Check func(context.Context, bool) (int, string, error)
}

// CheckAll runs every check in order. The overall status is 503 as soon as one check
// fails or reports anything other than 200.
func CheckAll(ctx context.Context, checkLiveness bool, checks []Check) (int, string, error) {
	var (
		overallStatus = http.StatusOK
		messages      = make([]string, 0, len(checks))
	)

	for _, check := range checks {
		status, message, err := check.Check(ctx, checkLiveness)
		if err != nil || status != http.StatusOK {
			overallStatus = http.StatusServiceUnavailable
		}

		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}

		var msg string

		// nested reports are embedded as is
		if len(message) > 0 && message[0] == '{' && message[len(message)-1] == '}' {
			msg = fmt.Sprintf(`{"resource": %q, "status": "%d", "error": %q, "dependencies": [%s]}`, check.Name, status, errMsg, message)
		} else {
			msg = fmt.Sprintf(`{"resource": %q, "status": "%d", "error": %q, "message": %q}`, check.Name, status, errMsg, message)
		}

		messages = append(messages, msg)
	}

	return overallStatus, fmt.Sprintf(`{"status":"%d", "dependencies":[%s]}`, overallStatus, strings.Join(messages, ",\n")), nil
}

// SPDX-License-Identifier: Apache-2.0

package cmd

import "time"

// timeNowUnix seeds pkg/emit's deterministic timestamp sequence. pkg/emit
// itself never calls time.Now: only the CLI, at the moment a real generate
// run happens, supplies a real wall-clock seed.
func timeNowUnix() int64 {
	return time.Now().Unix()
}

// nowRFC3339 stamps CLI-authored artifacts (migration headers, create
// metadata) with the current time; pkg/emit itself never calls this.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Package interpolation expands environment variable references in
// configuration strings.
package interpolation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Pattern for ${VAR_NAME} and ${VAR_NAME:default} syntax - captures colon explicitly
var envVarWithDefaultPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:)?([^}]*)\}`)

// ErrUndefinedVariable is returned for a reference without a default whose
// variable is not set.
var ErrUndefinedVariable = errors.New("environment variable not defined")

// ExpandEnvVars expands environment variables with default values in the format:
//
//	${VAR_NAME:default_value}
//
// A set variable wins, even when empty. An unset variable takes the default
// when a colon is present; otherwise the reference is left as written and
// an error is returned.
func ExpandEnvVars(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	var missingVars []error
	result := envVarWithDefaultPattern.ReplaceAllStringFunc(input, func(match string) string {
		// [full_match, varName, colon, defaultValue]
		submatches := envVarWithDefaultPattern.FindStringSubmatch(match)
		varName := submatches[1]

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		if submatches[2] == ":" {
			return submatches[3]
		}

		missingVars = append(missingVars, fmt.Errorf("%w: %s", ErrUndefinedVariable, varName))
		return match
	})

	return result, errors.Join(missingVars...)
}

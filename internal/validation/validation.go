// Package validation checks configuration values that end up as process
// arguments or query strings, so a document cannot smuggle in flags, shell
// syntax or query fragments.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidBundleID    = errors.New("invalid bundle identifier")
	ErrInvalidBinaryName  = errors.New("invalid binary name")
	ErrInvalidAppName     = errors.New("invalid application name")
	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidItemName    = errors.New("invalid vault item name")
	ErrInvalidRegion      = errors.New("invalid region")
	ErrFlagInjection      = errors.New("value looks like a command-line flag")
)

// Compiled regex patterns for validation (compiled once for performance).
var (
	// packageNameRegex matches Homebrew formula and cask names, optionally
	// qualified by a tap.
	// Examples: "git", "python@3.12", "g++", "hashicorp/tap/terraform"
	packageNameRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+/[a-zA-Z0-9_-]+/)?[a-zA-Z0-9][a-zA-Z0-9._+@-]*$`)

	// bundleIDRegex matches reverse-DNS bundle identifiers.
	// Examples: "com.tinyspeck.slackmacgap", "com.1password.1password"
	bundleIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)+$`)

	// binaryNameRegex matches executable names looked up on PATH.
	// Examples: "aws", "openvpn", "op"
	binaryNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// regionRegex matches cloud region names.
	// Examples: "eu-west-1", "us-gov-east-1", "ap-southeast-2"
	regionRegex = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-[0-9]+$`)

	// controlRegex matches any ASCII control character.
	controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

const maxLen = 256

// ValidatePackageName validates a Homebrew formula or cask name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > maxLen {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidPackageName, maxLen)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateBundleID validates an application bundle identifier. The value is
// embedded in a Spotlight query, so quotes must never pass.
func ValidateBundleID(id string) error {
	if id == "" {
		return ErrEmptyInput
	}
	if len(id) > maxLen || !bundleIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidBundleID, id)
	}
	return nil
}

// ValidateBinaryName validates a bare executable name.
func ValidateBinaryName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > maxLen || !binaryNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidBinaryName, name)
	}
	return nil
}

// ValidateAppName validates an application name passed to "open -a".
// Spaces are allowed ("Visual Studio Code"); leading dashes are not.
func ValidateAppName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q", ErrFlagInjection, name)
	}
	if len(name) > maxLen || controlRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAppName, name)
	}
	return nil
}

// ValidateCommand validates the program of a command action. Absolute
// paths are allowed. Arguments are not checked: they never pass through a
// shell.
func ValidateCommand(command string) error {
	if command == "" {
		return ErrEmptyInput
	}
	if strings.HasPrefix(command, "-") {
		return fmt.Errorf("%w: %q", ErrFlagInjection, command)
	}
	return ValidatePath(command)
}

// ValidatePath rejects empty paths and paths holding control characters.
// Relative paths and ".." are fine: documents are trusted to point anywhere
// the operator can write.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if controlRegex.MatchString(path) {
		return fmt.Errorf("%w: %q contains control characters", ErrInvalidPath, path)
	}
	return nil
}

// ValidateItemName validates a vault item stored as a single file, so it
// cannot name anything outside the vault directory.
func ValidateItemName(item string) error {
	if item == "" {
		return ErrEmptyInput
	}
	if item == "." || item == ".." || strings.ContainsAny(item, `/\`) || controlRegex.MatchString(item) {
		return fmt.Errorf("%w: %q", ErrInvalidItemName, item)
	}
	return nil
}

// ValidateRegion validates a cloud region such as "eu-west-1".
func ValidateRegion(region string) error {
	if region == "" {
		return ErrEmptyInput
	}
	if len(region) > 64 || !regionRegex.MatchString(region) {
		return fmt.Errorf("%w: %q", ErrInvalidRegion, region)
	}
	return nil
}

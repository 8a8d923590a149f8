package auth

import "regexp"

// emailPattern decides whether a login identifier is looked up as an email.
// Anything it does not match is treated as a username.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// IsEmail reports whether identifier is classified as an email address.
func IsEmail(identifier string) bool {
	return emailPattern.MatchString(identifier)
}

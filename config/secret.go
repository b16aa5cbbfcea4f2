package config

// Secret is a string that is never printed.
type Secret string

const maskedSecret = "*****"

// String ...
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return maskedSecret
}

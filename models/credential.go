package models

// Credential is one configured account. It is never modified after loading.
type Credential struct {
	Identifier string
	Secret     string

	// Line is the 1-based source line, kept for log messages only.
	Line int
}

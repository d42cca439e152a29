package session

import "github.com/use-agent/vitrina/extract"

// Login-surface locator tables. Like the page schemas, these are data:
// a new storefront layout variant means a new table entry, not new code.

var emailCandidates = extract.Candidates{
	`input[type="email"]`,
	`input[name="email"]`,
	`input[name="username"]`,
	`input[placeholder*="correo"]`,
	`input[placeholder*="email"]`,
	"#email",
	"#username",
	".email-input",
}

var passwordCandidates = extract.Candidates{
	`input[type="password"]`,
	`input[name="password"]`,
	`input[placeholder*="contraseña"]`,
	`input[placeholder*="password"]`,
	"#password",
	".password-input",
}

var submitCandidates = extract.Candidates{
	`button[type="submit"]`,
	`input[type="submit"]`,
	".btn-login",
	".login-button",
	`[data-testid="login-button"]`,
}

// loggedInIndicators are the strongest positive signal of an authenticated
// page and are checked before any URL heuristic.
var loggedInIndicators = extract.Candidates{
	".user-menu",
	".account-menu",
	`[data-testid="user-menu"]`,
	".mi-cuenta",
	".user-profile",
	`a[href*="mi-cuenta"]`,
}

var logoutCandidates = extract.Candidates{
	`a[href*="cerrar-sesion"]`,
	".logout",
	`[data-testid="logout"]`,
	".salir",
}

// loginPathMarkers identify the login surface in a URL.
var loginPathMarkers = []string{"iniciar-sesion", "login"}

// IsLoginURL reports whether url points at the login surface. A fetch that
// lands here mid-operation has lost its session.
func IsLoginURL(url string) bool { return onLoginPath(url) }

// failureKeywords in the page body indicate rejected credentials.
var failureKeywords = []string{"credenciales", "incorrecto", "error"}

// challengeMarkers in the page title indicate an anti-bot interstitial.
var challengeMarkers = []string{"just a moment", "cloudflare", "attention required"}

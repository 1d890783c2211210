package common

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session"

// FlashCookieName carries a one-shot message across a redirect.
const FlashCookieName = "flash"

// DefaultImageFile is the placeholder picture every new account starts with.
const DefaultImageFile = "default.jpg"

//go:build !darwin

package secrets

// EnsureKeychainAccess is a no-op outside macOS.
func EnsureKeychainAccess() error { return nil }

// CheckKeychainLocked is always false outside macOS.
func CheckKeychainLocked() bool { return false }

// UnlockKeychain is a no-op outside macOS.
func UnlockKeychain() error { return nil }

func loginKeychainPath() string { return "~/Library/Keychains/login.keychain-db" }

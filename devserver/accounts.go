package devserver

import "golang.org/x/crypto/bcrypt"

// Account is a backend admin-console account. Non-admin accounts exist so
// the 403 paths can be exercised.
type Account struct {
	Email        string
	PasswordHash string
	PhoneNumber  string
	Admin        bool
}

// HashPassword hashes a plaintext password for account seeding.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password against a stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *Server) accountByPhone(phoneNumber string) (Account, bool) {
	for _, account := range s.accounts {
		if account.PhoneNumber == phoneNumber {
			return account, true
		}
	}
	return Account{}, false
}

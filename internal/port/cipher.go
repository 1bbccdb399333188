package port

// FieldCipher encrypts individual column values before they are stored.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

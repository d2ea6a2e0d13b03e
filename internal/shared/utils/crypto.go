package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashIdentifier empreinte BLAKE2b-256 (hex) d'un identifiant personnel.
// Utilisée pour ne jamais exposer un CPF en clair dans une clé Redis ou un log.
func HashIdentifier(value string) string {
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// GenerateToken génère un jeton aléatoire de n bytes (2n caractères hex)
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("impossible de générer le jeton: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

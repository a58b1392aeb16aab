package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// HashToken creates the bcrypt hash of a relay token, as stored in the config
func HashToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("token cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash token")
	}
	log.Debugln("Token hash:", string(hash))

	return string(hash), nil
}

// validateToken compares a presented token with the configured hash
func validateToken(hash, token string) error {
	if token == "" {
		return errors.New("missing auth token")
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
}

package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxPlayerIDLength = 64
	maxSongIDLength   = 64
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("player", func(fl validator.FieldLevel) bool {
			_, err := validatePlayerID(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("song", func(fl validator.FieldLevel) bool {
			_, err := validateSongID(fl.Field().String())
			return err == nil
		})
	})
}

func validatePlayerID(id string) (string, error) {
	return validateIdentifier("player id", id, maxPlayerIDLength)
}

func validateSongID(id string) (string, error) {
	return validateIdentifier("song id", id, maxSongIDLength)
}

func validateIdentifier(label, text string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeIdentifier(trimmed) {
		return "", errors.New(label + " contains unsupported characters")
	}
	return trimmed, nil
}

func isSafeIdentifier(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case '-', '_', '.', ':', '@':
			continue
		default:
			return false
		}
	}
	return true
}

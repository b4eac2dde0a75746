package middleware

import (
	"errors"
	"net/mail"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateRoomID validates a room ID.
func ValidateRoomID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid room ID format")
	}
	return nil
}

// ValidateVisitorToken validates a visitor token.
func ValidateVisitorToken(token string) error {
	if len(token) == 0 {
		return errors.New("visitor token cannot be empty")
	}
	if len(token) > 128 {
		return errors.New("visitor token exceeds maximum length")
	}
	return nil
}

// ValidateEmail validates a transcript destination address.
func ValidateEmail(address string) error {
	if _, err := mail.ParseAddress(address); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidateComment validates a closing comment.
func ValidateComment(comment string) error {
	if len(comment) > 4096 {
		return errors.New("comment exceeds maximum length")
	}
	if !utf8.ValidString(comment) {
		return errors.New("comment must be valid UTF-8")
	}
	return nil
}

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateTags validates close-request tags.
func ValidateTags(tags []string) error {
	if len(tags) > 32 {
		return errors.New("too many tags")
	}
	for _, t := range tags {
		if t == "" {
			return errors.New("tags cannot be empty")
		}
		if len(t) > 128 {
			return errors.New("tag exceeds maximum length")
		}
	}
	return nil
}

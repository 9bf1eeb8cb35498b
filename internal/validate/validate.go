// Package validate holds the inline validation rules shared by the HTTP
// handlers and the client SDK. Everything here runs before any network or
// database work.
package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	BioMaxLength      = 150
	CaptionMaxLength  = 2200
	CommentMinLength  = 1
	CommentMaxLength  = 500

	// DefaultPasswordMinLength applies when no minimum is configured.
	DefaultPasswordMinLength = 6
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

var (
	ErrUsernameLength  = fmt.Errorf("username must be %d-%d characters", UsernameMinLength, UsernameMaxLength)
	ErrUsernameCharset = errors.New("username may only contain letters, digits, '.' and '_'")
	ErrBioTooLong      = fmt.Errorf("bio must be at most %d characters", BioMaxLength)
	ErrCaptionTooLong  = fmt.Errorf("caption must be at most %d characters", CaptionMaxLength)
	ErrCommentLength   = fmt.Errorf("comment must be %d-%d characters", CommentMinLength, CommentMaxLength)
	ErrEmailInvalid    = errors.New("invalid email address")
)

// Username checks the handle rule: 3-30 characters from [A-Za-z0-9._].
func Username(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	return nil
}

// Password checks the candidate against the configured minimum length. A
// non-positive minimum falls back to DefaultPasswordMinLength.
func Password(password string, minLength int) error {
	if minLength <= 0 {
		minLength = DefaultPasswordMinLength
	}
	if utf8.RuneCountInString(password) < minLength {
		return fmt.Errorf("password must be at least %d characters", minLength)
	}
	return nil
}

// Email checks that the address parses.
func Email(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

// Bio checks the profile bio length limit.
func Bio(bio string) error {
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return ErrBioTooLong
	}
	return nil
}

// Caption checks the post caption length limit.
func Caption(caption string) error {
	if utf8.RuneCountInString(caption) > CaptionMaxLength {
		return ErrCaptionTooLong
	}
	return nil
}

// Comment checks the comment content bounds. Whitespace-only content counts
// as empty.
func Comment(content string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	if n < CommentMinLength || n > CommentMaxLength {
		return ErrCommentLength
	}
	return nil
}
